package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shegerhomes/gebeya/internal/actorcontext"
)

func (s *Server) EntitlementSummary(c *gin.Context) {
	companyID, ok := actorcontext.CompanyIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp, err := s.entitlementSvc.ActiveSummary(c.Request.Context(), companyID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListEntitlementGrants(c *gin.Context) {
	companyID, ok := actorcontext.CompanyIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp, err := s.entitlementSvc.ListGrants(c.Request.Context(), companyID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
