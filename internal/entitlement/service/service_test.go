package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shegerhomes/gebeya/internal/clock"
	"github.com/shegerhomes/gebeya/internal/entitlement/domain"
	"github.com/shegerhomes/gebeya/internal/entitlement/repository"
	"github.com/shegerhomes/gebeya/internal/entitlement/service"
	"github.com/shegerhomes/gebeya/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type recordingEmitter struct {
	events []events.Event
}

func (r *recordingEmitter) Emit(ctx context.Context, event events.Event) {
	_ = ctx
	r.events = append(r.events, event)
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.EntitlementGrant{}))
	return db
}

func newTestService(t *testing.T, db *gorm.DB, clk clock.Clock) (domain.Service, *recordingEmitter) {
	t.Helper()

	node, err := snowflake.NewNode(7)
	require.NoError(t, err)

	emitter := &recordingEmitter{}
	svc := service.New(service.Params{
		DB:      db,
		Log:     zaptest.NewLogger(t),
		GenID:   node,
		Clock:   clk,
		Repo:    repository.Provide(),
		Emitter: emitter,
	})
	return svc, emitter
}

func snapshot(pkgID snowflake.ID, capacity, durationDays int) domain.PackageSnapshot {
	return domain.PackageSnapshot{
		PackageID:    pkgID,
		Name:         "Standard",
		Tier:         "standard",
		PriceUSD:     999,
		PriceETB:     49900,
		DurationDays: durationDays,
		Capacity:     capacity,
	}
}

func TestCreditIsIdempotentOnTransactionID(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc, emitter := newTestService(t, db, clk)

	node, _ := snowflake.NewNode(2)
	companyID := node.Generate()
	pkgID := node.Generate()

	first, err := svc.Credit(ctx, companyID, snapshot(pkgID, 5, 30), "chapa", "txn-001")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 5, first.CapacityTotal)
	assert.Equal(t, 0, first.CapacityUsed)
	assert.True(t, first.Active)

	replay, err := svc.Credit(ctx, companyID, snapshot(pkgID, 5, 30), "chapa", "txn-001")
	require.NoError(t, err)
	assert.Equal(t, first.ID, replay.ID)

	var count int64
	require.NoError(t, db.Model(&domain.EntitlementGrant{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// One credited event, not two.
	assert.Len(t, emitter.events, 1)
	assert.Equal(t, events.TypeEntitlementCredited, emitter.events[0].Type)
}

func TestCreditSnapshotSurvivesLaterEdits(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, db, clk)

	node, _ := snowflake.NewNode(2)
	companyID := node.Generate()

	grant, err := svc.Credit(ctx, companyID, snapshot(node.Generate(), 5, 30), "stripe", "txn-snap")
	require.NoError(t, err)
	assert.Equal(t, int64(999), grant.PriceUSD)
	assert.Equal(t, int64(49900), grant.PriceETB)
	assert.Equal(t, 30, grant.DurationDays)
	assert.Equal(t, clk.Now().AddDate(0, 0, 30), grant.ExpiresAt)
}

func TestConsumeCapacityExhaustion(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, db, clk)

	node, _ := snowflake.NewNode(2)
	companyID := node.Generate()

	_, err := svc.Credit(ctx, companyID, snapshot(node.Generate(), 2, 30), "chapa", "txn-cap2")
	require.NoError(t, err)

	first, err := svc.ConsumeCapacity(ctx, companyID)
	require.NoError(t, err)
	second, err := svc.ConsumeCapacity(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = svc.ConsumeCapacity(ctx, companyID)
	assert.ErrorIs(t, err, domain.ErrNoCapacityAvailable)
}

func TestConsumeCapacityPrefersNearestExpiry(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, db, clk)

	node, _ := snowflake.NewNode(2)
	companyID := node.Generate()

	longGrant, err := svc.Credit(ctx, companyID, snapshot(node.Generate(), 1, 90), "chapa", "txn-long")
	require.NoError(t, err)
	shortGrant, err := svc.Credit(ctx, companyID, snapshot(node.Generate(), 1, 7), "chapa", "txn-short")
	require.NoError(t, err)

	consumed, err := svc.ConsumeCapacity(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, shortGrant.ID, consumed.String())

	consumed, err = svc.ConsumeCapacity(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, longGrant.ID, consumed.String())
}

func TestExpiredGrantStopsServingCapacity(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, db, clk)

	node, _ := snowflake.NewNode(2)
	companyID := node.Generate()

	_, err := svc.Credit(ctx, companyID, snapshot(node.Generate(), 5, 7), "paypal", "txn-exp")
	require.NoError(t, err)

	_, err = svc.ConsumeCapacity(ctx, companyID)
	require.NoError(t, err)

	clk.Advance(8 * 24 * time.Hour)

	_, err = svc.ConsumeCapacity(ctx, companyID)
	assert.ErrorIs(t, err, domain.ErrNoCapacityAvailable)

	summary, err := svc.ActiveSummary(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.ActiveGrants)
	assert.Equal(t, int64(0), summary.AvailableCapacity)
}

func TestReleaseCapacityNeverGoesNegative(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, db, clk)

	node, _ := snowflake.NewNode(2)
	companyID := node.Generate()

	grant, err := svc.Credit(ctx, companyID, snapshot(node.Generate(), 3, 30), "chapa", "txn-rel")
	require.NoError(t, err)
	grantID, err := snowflake.ParseString(grant.ID)
	require.NoError(t, err)

	consumed, err := svc.ConsumeCapacity(ctx, companyID)
	require.NoError(t, err)
	require.Equal(t, grantID, consumed)

	require.NoError(t, svc.ReleaseCapacity(ctx, grantID))
	// Double release is a no-op, not an underflow.
	require.NoError(t, svc.ReleaseCapacity(ctx, grantID))

	var stored domain.EntitlementGrant
	require.NoError(t, db.Where("id = ?", grantID).First(&stored).Error)
	assert.Equal(t, 0, stored.CapacityUsed)

	err = svc.ReleaseCapacity(ctx, snowflake.ID(12345))
	assert.ErrorIs(t, err, domain.ErrGrantNotFound)
}

func TestActiveSummaryAggregates(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc, _ := newTestService(t, db, clk)

	node, _ := snowflake.NewNode(2)
	companyID := node.Generate()

	_, err := svc.Credit(ctx, companyID, snapshot(node.Generate(), 5, 30), "chapa", "txn-a")
	require.NoError(t, err)
	_, err = svc.Credit(ctx, companyID, snapshot(node.Generate(), 20, 90), "stripe", "txn-b")
	require.NoError(t, err)

	_, err = svc.ConsumeCapacity(ctx, companyID)
	require.NoError(t, err)

	summary, err := svc.ActiveSummary(ctx, companyID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.ActiveGrants)
	assert.Equal(t, int64(25), summary.TotalCapacity)
	assert.Equal(t, int64(1), summary.UsedCapacity)
	assert.Equal(t, int64(24), summary.AvailableCapacity)
	require.NotNil(t, summary.NearestExpiry)
	assert.Equal(t, clk.Now().AddDate(0, 0, 30), summary.NearestExpiry.UTC())
}
