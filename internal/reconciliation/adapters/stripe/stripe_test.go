package stripe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/shegerhomes/gebeya/internal/reconciliation/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildSignatureHeader(secret string, payload []byte, timestamp int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", timestamp, payload)
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}

func newAdapter(t *testing.T, secret string) domain.CheckoutAdapter {
	t.Helper()
	adapter, err := NewFactory().NewAdapter(domain.AdapterConfig{Secret: secret})
	require.NoError(t, err)
	return adapter
}

func TestVerifySignature(t *testing.T) {
	secret := "whsec_test"
	payload := []byte(`{"type":"payment_intent.succeeded","data":{"object":{}}}`)
	timestamp := time.Now().Unix()

	adapter := newAdapter(t, secret)

	headers := http.Header{}
	headers.Set("Stripe-Signature", buildSignatureHeader(secret, payload, timestamp))
	require.NoError(t, adapter.Verify(context.Background(), payload, headers))

	headers.Set("Stripe-Signature", buildSignatureHeader("wrong", payload, timestamp))
	assert.ErrorIs(t, adapter.Verify(context.Background(), payload, headers), domain.ErrInvalidSignature)

	headers.Set("Stripe-Signature", "v1=deadbeef")
	assert.ErrorIs(t, adapter.Verify(context.Background(), payload, headers), domain.ErrInvalidSignature)
}

func TestParseSucceededIntent(t *testing.T) {
	created := time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)
	payload, err := json.Marshal(map[string]any{
		"type": "payment_intent.succeeded",
		"data": map[string]any{
			"object": map[string]any{
				"id":       "pi_123",
				"amount":   999,
				"currency": "usd",
				"created":  created.Unix(),
				"metadata": map[string]any{
					"company_id": "1001",
					"package_id": "2002",
				},
			},
		},
	})
	require.NoError(t, err)

	adapter := newAdapter(t, "whsec_test")
	confirmation, err := adapter.Parse(context.Background(), payload)
	require.NoError(t, err)
	assert.Equal(t, "stripe", confirmation.Provider)
	assert.Equal(t, "pi_123", confirmation.TransactionID)
	assert.Equal(t, "1001", confirmation.CompanyID)
	assert.Equal(t, "2002", confirmation.PackageID)
	assert.Equal(t, int64(999), confirmation.Amount)
	assert.Equal(t, "USD", confirmation.Currency)
	assert.Equal(t, created, confirmation.PaidAt)
}

func TestParseRejectsOtherEvents(t *testing.T) {
	adapter := newAdapter(t, "whsec_test")

	_, err := adapter.Parse(context.Background(), []byte(`{"type":"payment_intent.created","data":{"object":{"id":"pi_1"}}}`))
	assert.ErrorIs(t, err, domain.ErrEventIgnored)

	_, err = adapter.Parse(context.Background(), []byte(`{"data":{"object":{"id":"pi_1"}}}`))
	assert.ErrorIs(t, err, domain.ErrInvalidEvent)

	_, err = adapter.Parse(context.Background(), []byte(`not-json`))
	assert.ErrorIs(t, err, domain.ErrInvalidPayload)
}
