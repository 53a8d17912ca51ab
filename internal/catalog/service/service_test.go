package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shegerhomes/gebeya/internal/catalog/domain"
	"github.com/shegerhomes/gebeya/internal/catalog/repository"
	"github.com/shegerhomes/gebeya/internal/catalog/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.PackageDefinition{}))

	node, err := snowflake.NewNode(5)
	require.NoError(t, err)

	return service.New(service.Params{
		DB:    db,
		Log:   zaptest.NewLogger(t),
		GenID: node,
		Repo:  repository.Provide(),
	})
}

func createRequest() domain.CreateRequest {
	return domain.CreateRequest{
		Code:             "standard-30",
		Name:             "Standard",
		Tier:             "standard",
		PriceUSD:         999,
		PriceETB:         49900,
		DurationDays:     30,
		PropertyCapacity: 5,
	}
}

func TestCreateAndGetPackage(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	created, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)
	assert.Equal(t, "standard-30", created.Code)
	assert.True(t, created.Active)

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, int64(999), got.PriceUSD)
	assert.Equal(t, int64(49900), got.PriceETB)

	_, err = svc.Get(ctx, "999999999999999999")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	cases := []struct {
		name    string
		mutate  func(*domain.CreateRequest)
		wantErr error
	}{
		{"missing code", func(r *domain.CreateRequest) { r.Code = " " }, domain.ErrInvalidCode},
		{"missing name", func(r *domain.CreateRequest) { r.Name = "" }, domain.ErrInvalidName},
		{"unknown tier", func(r *domain.CreateRequest) { r.Tier = "gold" }, domain.ErrInvalidTier},
		{"zero usd price", func(r *domain.CreateRequest) { r.PriceUSD = 0 }, domain.ErrInvalidPrice},
		{"zero etb price", func(r *domain.CreateRequest) { r.PriceETB = 0 }, domain.ErrInvalidPrice},
		{"zero duration", func(r *domain.CreateRequest) { r.DurationDays = 0 }, domain.ErrInvalidDuration},
		{"zero capacity", func(r *domain.CreateRequest) { r.PropertyCapacity = 0 }, domain.ErrInvalidCapacity},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := createRequest()
			tc.mutate(&req)
			_, err := svc.Create(ctx, req)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestListFiltersByTierAndActive(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)

	premium := createRequest()
	premium.Code = "premium-90"
	premium.Name = "Premium"
	premium.Tier = "premium"
	created, err := svc.Create(ctx, premium)
	require.NoError(t, err)

	all, err := svc.List(ctx, domain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	premiums, err := svc.List(ctx, domain.ListRequest{Tier: "premium"})
	require.NoError(t, err)
	require.Len(t, premiums, 1)
	assert.Equal(t, "premium-90", premiums[0].Code)

	_, err = svc.Archive(ctx, created.ID)
	require.NoError(t, err)

	active := true
	remaining, err := svc.List(ctx, domain.ListRequest{Active: &active})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "standard-30", remaining[0].Code)
}

func TestUpdateIsProspectiveOnly(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	created, err := svc.Create(ctx, createRequest())
	require.NoError(t, err)

	newPrice := int64(1299)
	newName := "Standard Plus"
	updated, err := svc.Update(ctx, domain.UpdateRequest{
		ID:       created.ID,
		Name:     &newName,
		PriceUSD: &newPrice,
	})
	require.NoError(t, err)
	assert.Equal(t, "Standard Plus", updated.Name)
	assert.Equal(t, int64(1299), updated.PriceUSD)
	// Untouched fields are kept.
	assert.Equal(t, int64(49900), updated.PriceETB)
	assert.Equal(t, 30, updated.DurationDays)

	zero := int64(0)
	_, err = svc.Update(ctx, domain.UpdateRequest{ID: created.ID, PriceUSD: &zero})
	assert.ErrorIs(t, err, domain.ErrInvalidPrice)
}
