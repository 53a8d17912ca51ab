package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	reconciliationdomain "github.com/shegerhomes/gebeya/internal/reconciliation/domain"
)

const maxCallbackBody = 1 << 20 // 1 MiB

type reconcilePaymentRequest struct {
	Provider              string `json:"provider"`
	ProviderTransactionID string `json:"provider_transaction_id"`
	CompanyID             string `json:"company_id"`
	PackageID             string `json:"package_id"`
	Amount                int64  `json:"amount"`
	Currency              string `json:"currency"`
}

// ReconcilePayment is the trusted backchannel used when a checkout is
// confirmed synchronously rather than via webhook.
func (s *Server) ReconcilePayment(c *gin.Context) {
	var req reconcilePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.reconciliationSvc.Reconcile(c.Request.Context(), reconciliationdomain.ReconcileRequest{
		Provider:              strings.TrimSpace(req.Provider),
		ProviderTransactionID: strings.TrimSpace(req.ProviderTransactionID),
		CompanyID:             strings.TrimSpace(req.CompanyID),
		PackageID:             strings.TrimSpace(req.PackageID),
		Amount:                req.Amount,
		Currency:              strings.TrimSpace(req.Currency),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// PaymentCallback ingests a raw provider webhook. Events the provider sends
// but this service does not act on are acknowledged so the provider stops
// retrying them.
func (s *Server) PaymentCallback(c *gin.Context) {
	provider := strings.TrimSpace(c.Param("provider"))

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxCallbackBody))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.reconciliationSvc.IngestCallback(c.Request.Context(), provider, payload, c.Request.Header)
	if err != nil {
		if errors.Is(err, reconciliationdomain.ErrEventIgnored) {
			c.JSON(http.StatusOK, gin.H{"status": "ignored"})
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
