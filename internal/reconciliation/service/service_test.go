package service_test

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

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	catalogdomain "github.com/shegerhomes/gebeya/internal/catalog/domain"
	catalogrepo "github.com/shegerhomes/gebeya/internal/catalog/repository"
	"github.com/shegerhomes/gebeya/internal/clock"
	"github.com/shegerhomes/gebeya/internal/config"
	entitlementdomain "github.com/shegerhomes/gebeya/internal/entitlement/domain"
	entitlementrepo "github.com/shegerhomes/gebeya/internal/entitlement/repository"
	entitlementservice "github.com/shegerhomes/gebeya/internal/entitlement/service"
	"github.com/shegerhomes/gebeya/internal/events"
	"github.com/shegerhomes/gebeya/internal/reconciliation/adapters"
	"github.com/shegerhomes/gebeya/internal/reconciliation/adapters/chapa"
	"github.com/shegerhomes/gebeya/internal/reconciliation/domain"
	"github.com/shegerhomes/gebeya/internal/reconciliation/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type noopEmitter struct{}

func (noopEmitter) Emit(ctx context.Context, event events.Event) {
	_ = ctx
	_ = event
}

type fixture struct {
	db        *gorm.DB
	svc       domain.Service
	node      *snowflake.Node
	companyID snowflake.ID
	pkg       *catalogdomain.PackageDefinition
}

func setup(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&catalogdomain.PackageDefinition{},
		&entitlementdomain.EntitlementGrant{},
	))

	node, err := snowflake.NewNode(9)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC))
	log := zaptest.NewLogger(t)

	entitlementSvc := entitlementservice.New(entitlementservice.Params{
		DB:      db,
		Log:     log,
		GenID:   node,
		Clock:   clk,
		Repo:    entitlementrepo.Provide(),
		Emitter: noopEmitter{},
	})

	pkg := &catalogdomain.PackageDefinition{
		ID:               node.Generate(),
		Code:             "standard-30",
		Name:             "Standard",
		Tier:             catalogdomain.TierStandard,
		PriceUSD:         999,
		PriceETB:         49900,
		DurationDays:     30,
		PropertyCapacity: 5,
		Active:           true,
		CreatedAt:        clk.Now(),
		UpdatedAt:        clk.Now(),
	}
	require.NoError(t, db.Create(pkg).Error)

	cfg := config.Config{
		Payment: config.PaymentConfig{
			ChapaWebhookSecret: "chapa-secret",
		},
	}

	svc := service.New(service.Params{
		DB:           db,
		Log:          log,
		Config:       cfg,
		Registry:     adapters.NewRegistry(chapa.NewFactory()),
		Packages:     catalogrepo.Provide(),
		Entitlements: entitlementSvc,
	})

	return &fixture{
		db:        db,
		svc:       svc,
		node:      node,
		companyID: node.Generate(),
		pkg:       pkg,
	}
}

func (f *fixture) request(txn string, amount int64, currency string) domain.ReconcileRequest {
	return domain.ReconcileRequest{
		Provider:              "chapa",
		ProviderTransactionID: txn,
		CompanyID:             f.companyID.String(),
		PackageID:             f.pkg.ID.String(),
		Amount:                amount,
		Currency:              currency,
	}
}

func TestReconcileCreditsGrant(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	grant, err := f.svc.Reconcile(ctx, f.request("txn-100", 49900, "ETB"))
	require.NoError(t, err)
	assert.Equal(t, f.companyID.String(), grant.CompanyID)
	assert.Equal(t, "Standard", grant.PackageName)
	assert.Equal(t, 5, grant.CapacityTotal)
	assert.Equal(t, "chapa", grant.PaymentMethod)
}

func TestReconcileReplayReturnsSameGrant(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	first, err := f.svc.Reconcile(ctx, f.request("txn-replay", 999, "USD"))
	require.NoError(t, err)

	second, err := f.svc.Reconcile(ctx, f.request("txn-replay", 999, "USD"))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, f.db.Model(&entitlementdomain.EntitlementGrant{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestReconcileRejectsAmountMismatch(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	_, err := f.svc.Reconcile(ctx, f.request("txn-usd-off", 998, "USD"))
	assert.ErrorIs(t, err, domain.ErrAmountMismatch)

	_, err = f.svc.Reconcile(ctx, f.request("txn-etb-off", 49901, "ETB"))
	assert.ErrorIs(t, err, domain.ErrAmountMismatch)

	// No credit happened on either attempt.
	var count int64
	require.NoError(t, f.db.Model(&entitlementdomain.EntitlementGrant{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestReconcileRejectsUnknownCurrencyAndPackage(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	_, err := f.svc.Reconcile(ctx, f.request("txn-eur", 999, "EUR"))
	assert.ErrorIs(t, err, domain.ErrInvalidCurrency)

	req := f.request("txn-no-pkg", 999, "USD")
	req.PackageID = f.node.Generate().String()
	_, err = f.svc.Reconcile(ctx, req)
	assert.ErrorIs(t, err, catalogdomain.ErrNotFound)
}

func signChapa(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func (f *fixture) chapaPayload(t *testing.T, event, txRef string, amount int64) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]any{
		"event":    event,
		"tx_ref":   txRef,
		"amount":   amount,
		"currency": "ETB",
		"meta": map[string]any{
			"company_id": f.companyID.String(),
			"package_id": f.pkg.ID.String(),
		},
	})
	require.NoError(t, err)
	return payload
}

func TestIngestCallbackVerifiesAndCredits(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	payload := f.chapaPayload(t, "charge.success", "txn-webhook", 49900)
	headers := http.Header{}
	headers.Set("Chapa-Signature", signChapa("chapa-secret", payload))

	grant, err := f.svc.IngestCallback(ctx, "chapa", payload, headers)
	require.NoError(t, err)
	assert.Equal(t, "txn-webhook", grant.TransactionID)
}

func TestIngestCallbackRejectsBadSignature(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	payload := f.chapaPayload(t, "charge.success", "txn-forged", 49900)
	headers := http.Header{}
	headers.Set("Chapa-Signature", signChapa("wrong-secret", payload))

	_, err := f.svc.IngestCallback(ctx, "chapa", payload, headers)
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
}

func TestIngestCallbackIgnoresOtherEvents(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	payload := f.chapaPayload(t, "charge.failed", "txn-failed", 49900)
	headers := http.Header{}
	headers.Set("Chapa-Signature", signChapa("chapa-secret", payload))

	_, err := f.svc.IngestCallback(ctx, "chapa", payload, headers)
	assert.ErrorIs(t, err, domain.ErrEventIgnored)
}

func TestIngestCallbackUnknownProvider(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	_, err := f.svc.IngestCallback(ctx, "telebirr", []byte(`{}`), http.Header{})
	assert.ErrorIs(t, err, domain.ErrProviderNotFound)
}
