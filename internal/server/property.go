package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shegerhomes/gebeya/internal/actorcontext"
	listingdomain "github.com/shegerhomes/gebeya/internal/listing/domain"
	"github.com/shegerhomes/gebeya/pkg/db/pagination"
)

type createPropertyRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	ListingType string  `json:"listing_type"`
	Price       int64   `json:"price"`
	Currency    string  `json:"currency"`
	Location    string  `json:"location"`
}

func (s *Server) CreateProperty(c *gin.Context) {
	companyID, ok := actorcontext.CompanyIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createPropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.listingSvc.Create(c.Request.Context(), companyID, listingdomain.CreateRequest{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		ListingType: strings.TrimSpace(req.ListingType),
		Price:       req.Price,
		Currency:    strings.TrimSpace(req.Currency),
		Location:    strings.TrimSpace(req.Location),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListProperties(c *gin.Context) {
	var query struct {
		Status      string `form:"status"`
		ListingType string `form:"listing_type"`
		Mine        string `form:"mine"`
		pagination.Pagination
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := listingdomain.ListRequest{
		Status:      strings.TrimSpace(query.Status),
		ListingType: strings.TrimSpace(query.ListingType),
		Pagination:  query.Pagination,
	}

	// Anonymous browsing sees active listings only. Companies may scope
	// to their own inventory in any state with mine=true.
	mine, err := parseOptionalBool(query.Mine)
	if err != nil {
		AbortWithError(c, newValidationError("mine", "invalid_mine", "invalid mine"))
		return
	}
	companyID, isCompany := actorcontext.CompanyIDFromContext(c.Request.Context())
	if mine != nil && *mine {
		if !isCompany {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		req.CompanyID = companyID
	} else {
		req.Status = string(listingdomain.StatusActive)
	}

	resp, pageInfo, err := s.listingSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp, "page_info": pageInfo})
}

func (s *Server) GetPropertyByID(c *gin.Context) {
	resp, err := s.listingSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	// Non-owners only see published listings.
	if resp.Status != string(listingdomain.StatusActive) {
		companyID, ok := actorcontext.CompanyIDFromContext(c.Request.Context())
		if !ok || companyID.String() != resp.CompanyID {
			AbortWithError(c, listingdomain.ErrNotFound)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updatePropertyRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Price       *int64  `json:"price"`
	Currency    *string `json:"currency"`
	Location    *string `json:"location"`
}

func (s *Server) UpdateProperty(c *gin.Context) {
	companyID, ok := actorcontext.CompanyIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req updatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.listingSvc.Update(c.Request.Context(), companyID, listingdomain.UpdateRequest{
		ID:          strings.TrimSpace(c.Param("id")),
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Currency:    req.Currency,
		Location:    req.Location,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ActivateProperty(c *gin.Context) {
	s.transitionProperty(c, s.listingSvc.Activate)
}

func (s *Server) DeactivateProperty(c *gin.Context) {
	s.transitionProperty(c, s.listingSvc.Deactivate)
}

func (s *Server) transitionProperty(c *gin.Context, op func(ctx context.Context, companyID snowflake.ID, id string) (*listingdomain.Response, error)) {
	companyID, ok := actorcontext.CompanyIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp, err := op(c.Request.Context(), companyID, strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RemoveProperty(c *gin.Context) {
	companyID, ok := actorcontext.CompanyIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.listingSvc.Remove(c.Request.Context(), companyID, strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "removed"})
}
