package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shegerhomes/gebeya/internal/actorcontext"
	appointmentdomain "github.com/shegerhomes/gebeya/internal/appointment/domain"
	"github.com/shegerhomes/gebeya/pkg/db/pagination"
)

type createAppointmentRequest struct {
	PropertyID    string    `json:"property_id"`
	ScheduledDate time.Time `json:"scheduled_date"`
	Message       *string   `json:"message"`
}

func (s *Server) CreateAppointment(c *gin.Context) {
	customerID, ok := actorcontext.CustomerIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.appointmentSvc.Create(c.Request.Context(), customerID, appointmentdomain.CreateRequest{
		PropertyID:    strings.TrimSpace(req.PropertyID),
		ScheduledDate: req.ScheduledDate,
		Message:       req.Message,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type listAppointmentsQuery struct {
	Status     string `form:"status"`
	PropertyID string `form:"property_id"`
	pagination.Pagination
}

func (s *Server) ListCompanyAppointments(c *gin.Context) {
	companyID, ok := actorcontext.CompanyIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var query listAppointmentsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, pageInfo, err := s.appointmentSvc.ListByCompany(c.Request.Context(), companyID, appointmentdomain.ListRequest{
		Status:     strings.TrimSpace(query.Status),
		PropertyID: strings.TrimSpace(query.PropertyID),
		Pagination: query.Pagination,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp, "page_info": pageInfo})
}

func (s *Server) ListMyAppointments(c *gin.Context) {
	customerID, ok := actorcontext.CustomerIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var query listAppointmentsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, pageInfo, err := s.appointmentSvc.ListByCustomer(c.Request.Context(), customerID, appointmentdomain.ListRequest{
		Status:     strings.TrimSpace(query.Status),
		PropertyID: strings.TrimSpace(query.PropertyID),
		Pagination: query.Pagination,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp, "page_info": pageInfo})
}

type setAppointmentStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) SetAppointmentStatus(c *gin.Context) {
	companyID, ok := actorcontext.CompanyIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req setAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.appointmentSvc.SetStatus(c.Request.Context(), companyID, strings.TrimSpace(c.Param("id")), strings.TrimSpace(req.Status))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteAppointment(c *gin.Context) {
	customerID, ok := actorcontext.CustomerIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	if err := s.appointmentSvc.Delete(c.Request.Context(), customerID, strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
