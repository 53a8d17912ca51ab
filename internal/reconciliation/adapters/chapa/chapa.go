// Package chapa verifies and parses Chapa checkout webhooks.
package chapa

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/shegerhomes/gebeya/internal/reconciliation/domain"
)

const (
	ProviderName    = "chapa"
	signatureHeader = "Chapa-Signature"
	eventSuccess    = "charge.success"
)

type Factory struct{}

func NewFactory() *Factory { return &Factory{} }

func (f *Factory) Provider() string { return ProviderName }

func (f *Factory) NewAdapter(cfg domain.AdapterConfig) (domain.CheckoutAdapter, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, domain.ErrInvalidConfig
	}
	return &adapter{secret: cfg.Secret}, nil
}

type adapter struct {
	secret string
}

// Verify checks the HMAC-SHA256 hex digest Chapa places in the
// Chapa-Signature header against the raw request body.
func (a *adapter) Verify(ctx context.Context, payload []byte, headers http.Header) error {
	signature := strings.TrimSpace(headers.Get(signatureHeader))
	if signature == "" {
		return domain.ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(a.secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(signature))) {
		return domain.ErrInvalidSignature
	}
	return nil
}

type webhookPayload struct {
	Event    string `json:"event"`
	TxRef    string `json:"tx_ref"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	PaidAt   string `json:"paid_at"`
	Meta     struct {
		CompanyID string `json:"company_id"`
		PackageID string `json:"package_id"`
	} `json:"meta"`
}

func (a *adapter) Parse(ctx context.Context, payload []byte) (*domain.CheckoutConfirmation, error) {
	var body webhookPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	if body.Event == "" {
		return nil, domain.ErrInvalidEvent
	}
	if body.Event != eventSuccess {
		return nil, domain.ErrEventIgnored
	}
	if strings.TrimSpace(body.TxRef) == "" {
		return nil, domain.ErrInvalidPayload
	}

	paidAt := time.Now().UTC()
	if body.PaidAt != "" {
		if parsed, err := time.Parse(time.RFC3339, body.PaidAt); err == nil {
			paidAt = parsed
		}
	}

	return &domain.CheckoutConfirmation{
		Provider:      ProviderName,
		TransactionID: body.TxRef,
		CompanyID:     body.Meta.CompanyID,
		PackageID:     body.Meta.PackageID,
		Amount:        body.Amount,
		Currency:      strings.ToUpper(body.Currency),
		PaidAt:        paidAt,
	}, nil
}
