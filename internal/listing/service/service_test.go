package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shegerhomes/gebeya/internal/clock"
	entitlementdomain "github.com/shegerhomes/gebeya/internal/entitlement/domain"
	entitlementrepo "github.com/shegerhomes/gebeya/internal/entitlement/repository"
	entitlementservice "github.com/shegerhomes/gebeya/internal/entitlement/service"
	"github.com/shegerhomes/gebeya/internal/events"
	"github.com/shegerhomes/gebeya/internal/listing/domain"
	"github.com/shegerhomes/gebeya/internal/listing/repository"
	"github.com/shegerhomes/gebeya/internal/listing/service"
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
	db           *gorm.DB
	svc          domain.Service
	entitlements entitlementdomain.Service
	clk          *clock.FakeClock
	node         *snowflake.Node
	companyID    snowflake.ID
}

func setup(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&entitlementdomain.EntitlementGrant{},
		&domain.Property{},
	))

	node, err := snowflake.NewNode(11)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC))
	log := zaptest.NewLogger(t)

	entitlementSvc := entitlementservice.New(entitlementservice.Params{
		DB:      db,
		Log:     log,
		GenID:   node,
		Clock:   clk,
		Repo:    entitlementrepo.Provide(),
		Emitter: noopEmitter{},
	})

	svc := service.New(service.Params{
		DB:           db,
		Log:          log,
		GenID:        node,
		Clock:        clk,
		Repo:         repository.Provide(),
		Entitlements: entitlementSvc,
	})

	return &fixture{
		db:           db,
		svc:          svc,
		entitlements: entitlementSvc,
		clk:          clk,
		node:         node,
		companyID:    node.Generate(),
	}
}

func (f *fixture) credit(t *testing.T, capacity, durationDays int, txn string) {
	t.Helper()
	_, err := f.entitlements.Credit(context.Background(), f.companyID, entitlementdomain.PackageSnapshot{
		PackageID:    f.node.Generate(),
		Name:         "Standard",
		Tier:         "standard",
		PriceUSD:     999,
		PriceETB:     49900,
		DurationDays: durationDays,
		Capacity:     capacity,
	}, "chapa", txn)
	require.NoError(t, err)
}

func (f *fixture) draft(t *testing.T, title string) *domain.Response {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), f.companyID, domain.CreateRequest{
		Title:       title,
		ListingType: "sale",
		Price:       250000000,
		Currency:    "ETB",
		Location:    "Addis Ababa, Bole",
	})
	require.NoError(t, err)
	require.Equal(t, string(domain.StatusDraft), resp.Status)
	return resp
}

func TestActivateConsumesCapacityAndStampsGrant(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.credit(t, 2, 30, "txn-act")

	prop := f.draft(t, "Two bedroom near Edna Mall")

	activated, err := f.svc.Activate(ctx, f.companyID, prop.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusActive), activated.Status)
	require.NotNil(t, activated.ConsumedGrantID)

	summary, err := f.entitlements.ActiveSummary(ctx, f.companyID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.UsedCapacity)
}

func TestActivationBlockedWhenExhausted(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.credit(t, 2, 30, "txn-exhaust")

	for i := 0; i < 2; i++ {
		prop := f.draft(t, fmt.Sprintf("Listing %d", i))
		_, err := f.svc.Activate(ctx, f.companyID, prop.ID)
		require.NoError(t, err)
	}

	third := f.draft(t, "One listing too many")
	_, err := f.svc.Activate(ctx, f.companyID, third.ID)
	assert.ErrorIs(t, err, entitlementdomain.ErrNoCapacityAvailable)

	// The failed activation left the draft untouched.
	got, err := f.svc.Get(ctx, third.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusDraft), got.Status)
}

func TestDeactivateReleasesCapacityForReuse(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.credit(t, 1, 30, "txn-reuse")

	first := f.draft(t, "First listing")
	_, err := f.svc.Activate(ctx, f.companyID, first.ID)
	require.NoError(t, err)

	second := f.draft(t, "Second listing")
	_, err = f.svc.Activate(ctx, f.companyID, second.ID)
	require.ErrorIs(t, err, entitlementdomain.ErrNoCapacityAvailable)

	deactivated, err := f.svc.Deactivate(ctx, f.companyID, first.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusDraft), deactivated.Status)
	assert.Nil(t, deactivated.ConsumedGrantID)

	_, err = f.svc.Activate(ctx, f.companyID, second.ID)
	require.NoError(t, err)
}

func TestReactivationConsumesFreshCapacity(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.credit(t, 2, 30, "txn-fresh")

	prop := f.draft(t, "Cycled listing")

	_, err := f.svc.Activate(ctx, f.companyID, prop.ID)
	require.NoError(t, err)
	_, err = f.svc.Deactivate(ctx, f.companyID, prop.ID)
	require.NoError(t, err)
	_, err = f.svc.Activate(ctx, f.companyID, prop.ID)
	require.NoError(t, err)

	summary, err := f.entitlements.ActiveSummary(ctx, f.companyID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.UsedCapacity)
}

func TestActivateRejectsWrongStates(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.credit(t, 5, 30, "txn-states")

	prop := f.draft(t, "State machine listing")

	_, err := f.svc.Activate(ctx, f.companyID, prop.ID)
	require.NoError(t, err)

	// Already active.
	_, err = f.svc.Activate(ctx, f.companyID, prop.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	require.NoError(t, f.svc.Remove(ctx, f.companyID, prop.ID))

	// Removed is terminal.
	_, err = f.svc.Activate(ctx, f.companyID, prop.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestRemoveActiveListingReleasesCapacity(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.credit(t, 1, 30, "txn-remove")

	prop := f.draft(t, "Removed while active")
	_, err := f.svc.Activate(ctx, f.companyID, prop.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Remove(ctx, f.companyID, prop.ID))

	summary, err := f.entitlements.ActiveSummary(ctx, f.companyID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.UsedCapacity)
}

func TestOwnershipEnforced(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	f.credit(t, 5, 30, "txn-owner")

	prop := f.draft(t, "Someone else's listing")
	intruder := f.node.Generate()

	_, err := f.svc.Activate(ctx, intruder, prop.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.Update(ctx, intruder, domain.UpdateRequest{ID: prop.ID})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	err = f.svc.Remove(ctx, intruder, prop.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	_, err := f.svc.Create(ctx, f.companyID, domain.CreateRequest{
		ListingType: "sale", Price: 100, Location: "Addis",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTitle)

	_, err = f.svc.Create(ctx, f.companyID, domain.CreateRequest{
		Title: "Bad type", ListingType: "lease", Price: 100, Location: "Addis",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidListingType)

	_, err = f.svc.Create(ctx, f.companyID, domain.CreateRequest{
		Title: "Bad price", ListingType: "rent", Price: 0, Location: "Addis",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)
}
