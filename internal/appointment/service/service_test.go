package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shegerhomes/gebeya/internal/appointment/domain"
	"github.com/shegerhomes/gebeya/internal/appointment/repository"
	"github.com/shegerhomes/gebeya/internal/appointment/service"
	"github.com/shegerhomes/gebeya/internal/clock"
	"github.com/shegerhomes/gebeya/internal/events"
	listingdomain "github.com/shegerhomes/gebeya/internal/listing/domain"
	listingrepo "github.com/shegerhomes/gebeya/internal/listing/repository"
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

type fixture struct {
	db         *gorm.DB
	svc        domain.Service
	emitter    *recordingEmitter
	clk        *clock.FakeClock
	node       *snowflake.Node
	companyID  snowflake.ID
	customerID snowflake.ID
	property   *listingdomain.Property
}

func setup(t *testing.T) *fixture {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&listingdomain.Property{},
		&domain.Appointment{},
	))

	node, err := snowflake.NewNode(13)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC))
	emitter := &recordingEmitter{}

	svc := service.New(service.Params{
		DB:         db,
		Log:        zaptest.NewLogger(t),
		GenID:      node,
		Clock:      clk,
		Repo:       repository.Provide(),
		Properties: listingrepo.Provide(),
		Emitter:    emitter,
	})

	companyID := node.Generate()
	grantID := node.Generate()
	property := &listingdomain.Property{
		ID:              node.Generate(),
		CompanyID:       companyID,
		Title:           "Bole apartment",
		ListingType:     listingdomain.TypeRent,
		Price:           45000,
		Currency:        "ETB",
		Location:        "Addis Ababa, Bole",
		Status:          listingdomain.StatusActive,
		ConsumedGrantID: &grantID,
		CreatedAt:       clk.Now(),
		UpdatedAt:       clk.Now(),
	}
	require.NoError(t, db.Create(property).Error)

	return &fixture{
		db:         db,
		svc:        svc,
		emitter:    emitter,
		clk:        clk,
		node:       node,
		companyID:  companyID,
		customerID: node.Generate(),
		property:   property,
	}
}

func (f *fixture) book(t *testing.T) *domain.Response {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), f.customerID, domain.CreateRequest{
		PropertyID:    f.property.ID.String(),
		ScheduledDate: f.clk.Now().Add(48 * time.Hour),
	})
	require.NoError(t, err)
	require.Equal(t, string(domain.StatusPending), resp.Status)
	return resp
}

func TestCreateRequiresActiveListing(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	appt := f.book(t)
	assert.Equal(t, f.companyID.String(), appt.CompanyID)
	require.Len(t, f.emitter.events, 1)
	assert.Equal(t, events.TypeAppointmentRequested, f.emitter.events[0].Type)

	// Draft listings are not bookable.
	draft := &listingdomain.Property{
		ID:          f.node.Generate(),
		CompanyID:   f.companyID,
		Title:       "Unpublished",
		ListingType: listingdomain.TypeSale,
		Price:       100,
		Currency:    "ETB",
		Location:    "Addis",
		Status:      listingdomain.StatusDraft,
		CreatedAt:   f.clk.Now(),
		UpdatedAt:   f.clk.Now(),
	}
	require.NoError(t, f.db.Create(draft).Error)

	_, err := f.svc.Create(ctx, f.customerID, domain.CreateRequest{
		PropertyID:    draft.ID.String(),
		ScheduledDate: f.clk.Now().Add(24 * time.Hour),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidProperty)
}

func TestCreateRejectsPastSchedule(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	_, err := f.svc.Create(ctx, f.customerID, domain.CreateRequest{
		PropertyID:    f.property.ID.String(),
		ScheduledDate: f.clk.Now().Add(-time.Hour),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidSchedule)
}

func TestOnlyFirstDecisionApplies(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	appt := f.book(t)

	confirmed, err := f.svc.SetStatus(ctx, f.companyID, appt.ID, "confirmed")
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusConfirmed), confirmed.Status)

	// A second decision finds nothing pending.
	_, err = f.svc.SetStatus(ctx, f.companyID, appt.ID, "cancelled")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	var stored domain.Appointment
	require.NoError(t, f.db.Where("id = ?", appt.ID).First(&stored).Error)
	assert.Equal(t, domain.StatusConfirmed, stored.Status)
}

func TestSetStatusAuthorization(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	appt := f.book(t)

	otherCompany := f.node.Generate()
	_, err := f.svc.SetStatus(ctx, otherCompany, appt.ID, "confirmed")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.svc.SetStatus(ctx, f.companyID, appt.ID, "pending")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestCustomerDeletesOwnAppointment(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	appt := f.book(t)

	// Deletion is allowed even after confirmation.
	_, err := f.svc.SetStatus(ctx, f.companyID, appt.ID, "confirmed")
	require.NoError(t, err)

	otherCustomer := f.node.Generate()
	err = f.svc.Delete(ctx, otherCustomer, appt.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, f.svc.Delete(ctx, f.customerID, appt.ID))

	var count int64
	require.NoError(t, f.db.Model(&domain.Appointment{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestListScopesByActor(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	f.book(t)
	f.book(t)

	otherCustomer := f.node.Generate()
	_, err := f.svc.Create(ctx, otherCustomer, domain.CreateRequest{
		PropertyID:    f.property.ID.String(),
		ScheduledDate: f.clk.Now().Add(72 * time.Hour),
	})
	require.NoError(t, err)

	companyView, _, err := f.svc.ListByCompany(ctx, f.companyID, domain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, companyView, 3)

	mine, _, err := f.svc.ListByCustomer(ctx, f.customerID, domain.ListRequest{})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	pending, _, err := f.svc.ListByCompany(ctx, f.companyID, domain.ListRequest{Status: "pending"})
	require.NoError(t, err)
	assert.Len(t, pending, 3)
}
