// Package paypal verifies and parses PayPal capture webhooks.
package paypal

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shegerhomes/gebeya/internal/reconciliation/domain"
)

const (
	ProviderName    = "paypal"
	signatureHeader = "Paypal-Transmission-Sig"
	eventCompleted  = "PAYMENT.CAPTURE.COMPLETED"
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

func (a *adapter) Verify(ctx context.Context, payload []byte, headers http.Header) error {
	signature := strings.TrimSpace(headers.Get(signatureHeader))
	if signature == "" {
		return domain.ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(a.secret))
	mac.Write(payload)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return domain.ErrInvalidSignature
	}
	return nil
}

type webhookEvent struct {
	EventType string `json:"event_type"`
	Resource  struct {
		ID     string `json:"id"`
		Amount struct {
			Value        string `json:"value"` // minor units
			CurrencyCode string `json:"currency_code"`
		} `json:"amount"`
		CustomID   string `json:"custom_id"` // "<company_id>:<package_id>"
		CreateTime string `json:"create_time"`
	} `json:"resource"`
}

func (a *adapter) Parse(ctx context.Context, payload []byte) (*domain.CheckoutConfirmation, error) {
	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	if event.EventType == "" {
		return nil, domain.ErrInvalidEvent
	}
	if event.EventType != eventCompleted {
		return nil, domain.ErrEventIgnored
	}
	capture := event.Resource
	if strings.TrimSpace(capture.ID) == "" {
		return nil, domain.ErrInvalidPayload
	}

	amount, err := strconv.ParseInt(strings.TrimSpace(capture.Amount.Value), 10, 64)
	if err != nil {
		return nil, domain.ErrInvalidPayload
	}

	companyID, packageID, found := strings.Cut(capture.CustomID, ":")
	if !found {
		return nil, domain.ErrInvalidPayload
	}

	paidAt := time.Now().UTC()
	if capture.CreateTime != "" {
		if parsed, err := time.Parse(time.RFC3339, capture.CreateTime); err == nil {
			paidAt = parsed
		}
	}

	return &domain.CheckoutConfirmation{
		Provider:      ProviderName,
		TransactionID: capture.ID,
		CompanyID:     companyID,
		PackageID:     packageID,
		Amount:        amount,
		Currency:      strings.ToUpper(capture.Amount.CurrencyCode),
		PaidAt:        paidAt,
	}, nil
}
