// Package stripe verifies and parses Stripe checkout webhooks.
package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shegerhomes/gebeya/internal/reconciliation/domain"
)

const (
	ProviderName    = "stripe"
	signatureHeader = "Stripe-Signature"
	eventSucceeded  = "payment_intent.succeeded"
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

// Verify implements Stripe's signed-event scheme: the header carries
// "t=<unix>,v1=<hex hmac>" and the signed message is "<t>.<body>".
func (a *adapter) Verify(ctx context.Context, payload []byte, headers http.Header) error {
	header := strings.TrimSpace(headers.Get(signatureHeader))
	if header == "" {
		return domain.ErrInvalidSignature
	}

	var timestamp, signature string
	for _, part := range strings.Split(header, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			signature = value
		}
	}
	if timestamp == "" || signature == "" {
		return domain.ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(a.secret))
	fmt.Fprintf(mac, "%s.%s", timestamp, payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return domain.ErrInvalidSignature
	}
	return nil
}

type webhookEvent struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string `json:"id"`
			Amount   int64  `json:"amount"`
			Currency string `json:"currency"`
			Created  int64  `json:"created"`
			Metadata struct {
				CompanyID string `json:"company_id"`
				PackageID string `json:"package_id"`
			} `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

func (a *adapter) Parse(ctx context.Context, payload []byte) (*domain.CheckoutConfirmation, error) {
	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	if event.Type == "" {
		return nil, domain.ErrInvalidEvent
	}
	if event.Type != eventSucceeded {
		return nil, domain.ErrEventIgnored
	}
	intent := event.Data.Object
	if strings.TrimSpace(intent.ID) == "" {
		return nil, domain.ErrInvalidPayload
	}

	paidAt := time.Now().UTC()
	if intent.Created > 0 {
		paidAt = time.Unix(intent.Created, 0).UTC()
	}

	return &domain.CheckoutConfirmation{
		Provider:      ProviderName,
		TransactionID: intent.ID,
		CompanyID:     intent.Metadata.CompanyID,
		PackageID:     intent.Metadata.PackageID,
		Amount:        intent.Amount,
		Currency:      strings.ToUpper(intent.Currency),
		PaidAt:        paidAt,
	}, nil
}
