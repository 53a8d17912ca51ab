// Package domain defines the payment reconciliation contract: turning a
// provider checkout confirmation into exactly one entitlement credit.
package domain

import (
	"context"
	"errors"
	"net/http"
	"time"

	entitlementdomain "github.com/shegerhomes/gebeya/internal/entitlement/domain"
)

// ReconcileRequest is the canonical reconciliation input, independent of
// which provider confirmed the payment.
type ReconcileRequest struct {
	Provider              string `json:"provider"`
	ProviderTransactionID string `json:"provider_transaction_id"`
	CompanyID             string `json:"company_id"`
	PackageID             string `json:"package_id"`
	Amount                int64  `json:"amount"`   // minor units
	Currency              string `json:"currency"` // USD or ETB
}

type Service interface {
	// Reconcile validates the paid amount against the package price for
	// the currency and credits the entitlement ledger. Safe to invoke any
	// number of times for the same providerTransactionID.
	Reconcile(ctx context.Context, req ReconcileRequest) (*entitlementdomain.GrantResponse, error)

	// IngestCallback verifies and parses a raw provider callback through
	// the adapter registry, then feeds the confirmation into Reconcile.
	IngestCallback(ctx context.Context, provider string, payload []byte, headers http.Header) (*entitlementdomain.GrantResponse, error)
}

// CheckoutConfirmation is a verified, parsed provider callback.
type CheckoutConfirmation struct {
	Provider      string
	TransactionID string
	CompanyID     string
	PackageID     string
	Amount        int64
	Currency      string
	PaidAt        time.Time
}

// AdapterConfig carries the per-provider verification material.
type AdapterConfig struct {
	Secret string
}

// CheckoutAdapter hides provider-specific signature and payload rules.
// Nothing provider-shaped leaks past Parse.
type CheckoutAdapter interface {
	Verify(ctx context.Context, payload []byte, headers http.Header) error
	Parse(ctx context.Context, payload []byte) (*CheckoutConfirmation, error)
}

// AdapterFactory builds a provider adapter from its config.
type AdapterFactory interface {
	Provider() string
	NewAdapter(cfg AdapterConfig) (CheckoutAdapter, error)
}

var (
	ErrInvalidProvider    = errors.New("invalid_provider")
	ErrProviderNotFound   = errors.New("provider_not_found")
	ErrInvalidConfig      = errors.New("invalid_provider_config")
	ErrInvalidPayload     = errors.New("invalid_payload")
	ErrInvalidSignature   = errors.New("invalid_signature")
	ErrInvalidEvent       = errors.New("invalid_event")
	ErrEventIgnored       = errors.New("event_ignored")
	ErrInvalidCurrency    = errors.New("invalid_currency")
	ErrAmountMismatch     = errors.New("payment_amount_mismatch")
	ErrInvalidCompany     = errors.New("invalid_company")
	ErrInvalidPackage     = errors.New("invalid_package")
	ErrInvalidTransaction = errors.New("invalid_transaction")
)
