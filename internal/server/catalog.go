package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/shegerhomes/gebeya/internal/catalog/domain"
)

type createPackageRequest struct {
	Code             string         `json:"code"`
	Name             string         `json:"name"`
	Tier             string         `json:"tier"`
	PriceUSD         int64          `json:"price_usd"`
	PriceETB         int64          `json:"price_etb"`
	DurationDays     int            `json:"duration_days"`
	PropertyCapacity int            `json:"property_capacity"`
	Description      *string        `json:"description"`
	Metadata         map[string]any `json:"metadata"`
}

func (s *Server) CreatePackage(c *gin.Context) {
	var req createPackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.catalogSvc.Create(c.Request.Context(), catalogdomain.CreateRequest{
		Code:             strings.TrimSpace(req.Code),
		Name:             strings.TrimSpace(req.Name),
		Tier:             strings.TrimSpace(req.Tier),
		PriceUSD:         req.PriceUSD,
		PriceETB:         req.PriceETB,
		DurationDays:     req.DurationDays,
		PropertyCapacity: req.PropertyCapacity,
		Description:      req.Description,
		Metadata:         req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPackages(c *gin.Context) {
	var query struct {
		Tier   string `form:"tier"`
		Active string `form:"active"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	active, err := parseOptionalBool(query.Active)
	if err != nil {
		AbortWithError(c, newValidationError("active", "invalid_active", "invalid active"))
		return
	}

	resp, err := s.catalogSvc.List(c.Request.Context(), catalogdomain.ListRequest{
		Tier:   strings.TrimSpace(query.Tier),
		Active: active,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetPackageByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.catalogSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updatePackageRequest struct {
	Name         *string        `json:"name"`
	PriceUSD     *int64         `json:"price_usd"`
	PriceETB     *int64         `json:"price_etb"`
	DurationDays *int           `json:"duration_days"`
	Capacity     *int           `json:"property_capacity"`
	Description  *string        `json:"description"`
	Active       *bool          `json:"active"`
	Metadata     map[string]any `json:"metadata"`
}

func (s *Server) UpdatePackage(c *gin.Context) {
	var req updatePackageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.catalogSvc.Update(c.Request.Context(), catalogdomain.UpdateRequest{
		ID:           strings.TrimSpace(c.Param("id")),
		Name:         req.Name,
		PriceUSD:     req.PriceUSD,
		PriceETB:     req.PriceETB,
		DurationDays: req.DurationDays,
		Capacity:     req.Capacity,
		Description:  req.Description,
		Active:       req.Active,
		Metadata:     req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ArchivePackage(c *gin.Context) {
	resp, err := s.catalogSvc.Archive(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
