package server

import (
	"errors"
	"net/http"
	"testing"

	appointmentdomain "github.com/shegerhomes/gebeya/internal/appointment/domain"
	catalogdomain "github.com/shegerhomes/gebeya/internal/catalog/domain"
	entitlementdomain "github.com/shegerhomes/gebeya/internal/entitlement/domain"
	listingdomain "github.com/shegerhomes/gebeya/internal/listing/domain"
	reconciliationdomain "github.com/shegerhomes/gebeya/internal/reconciliation/domain"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestMapErrorStatusAndType(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"bad webhook signature", reconciliationdomain.ErrInvalidSignature, http.StatusUnauthorized, "unauthorized"},
		{"forbidden", listingdomain.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"appointment forbidden", appointmentdomain.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"catalog not found", catalogdomain.ErrNotFound, http.StatusNotFound, "not_found"},
		{"grant not found", entitlementdomain.ErrGrantNotFound, http.StatusNotFound, "not_found"},
		{"gorm not found", gorm.ErrRecordNotFound, http.StatusNotFound, "not_found"},
		{"provider not found", reconciliationdomain.ErrProviderNotFound, http.StatusNotFound, "not_found"},
		{"capacity exhausted", entitlementdomain.ErrNoCapacityAvailable, http.StatusConflict, "no_capacity_available"},
		{"listing transition", listingdomain.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
		{"appointment transition", appointmentdomain.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
		{"amount mismatch", reconciliationdomain.ErrAmountMismatch, http.StatusUnprocessableEntity, "payment_amount_mismatch"},
		{"rate limited", ErrTooManyRequests, http.StatusTooManyRequests, "too_many_requests"},
		{"unavailable", ErrServiceUnavailable, http.StatusServiceUnavailable, "service_unavailable"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, payload := mapError(tc.err)
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantType, payload.Type)
		})
	}
}

func TestMapErrorValidation(t *testing.T) {
	status, payload := mapError(catalogdomain.ErrInvalidTier)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "validation_error", payload.Type)
	if assert.Len(t, payload.Errors, 1) {
		assert.Equal(t, "invalid_tier", payload.Errors[0].Code)
		assert.Equal(t, "tier", payload.Errors[0].Field)
	}

	status, payload = mapError(newValidationError("price", "invalid_price", "invalid price"))
	assert.Equal(t, http.StatusBadRequest, status)
	if assert.Len(t, payload.Errors, 1) {
		assert.Equal(t, "price", payload.Errors[0].Field)
	}
}

func TestClassifyErrorForLog(t *testing.T) {
	errType, code := classifyErrorForLog(entitlementdomain.ErrNoCapacityAvailable)
	assert.Equal(t, "no_capacity_available", errType)
	assert.Equal(t, "no_capacity_available", code)

	errType, code = classifyErrorForLog(catalogdomain.ErrInvalidTier)
	assert.Equal(t, "validation_error", errType)
	assert.Equal(t, "invalid_tier", code)

	errType, code = classifyErrorForLog(nil)
	assert.Equal(t, "", errType)
	assert.Equal(t, "", code)
}
