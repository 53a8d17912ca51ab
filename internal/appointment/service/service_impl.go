package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shegerhomes/gebeya/internal/appointment/domain"
	"github.com/shegerhomes/gebeya/internal/clock"
	"github.com/shegerhomes/gebeya/internal/events"
	listingdomain "github.com/shegerhomes/gebeya/internal/listing/domain"
	obsmetrics "github.com/shegerhomes/gebeya/internal/observability/metrics"
	"github.com/shegerhomes/gebeya/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	Properties listingdomain.Repository
	Emitter    events.Emitter
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	properties listingdomain.Repository
	emitter    events.Emitter
	obsMetrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("appointment.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		properties: p.Properties,
		emitter:    p.Emitter,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Create(ctx context.Context, customerID snowflake.ID, req domain.CreateRequest) (*domain.Response, error) {
	if customerID == 0 {
		return nil, domain.ErrForbidden
	}

	propertyID, err := snowflake.ParseString(strings.TrimSpace(req.PropertyID))
	if err != nil || propertyID == 0 {
		return nil, domain.ErrInvalidProperty
	}

	property, err := s.properties.FindByID(ctx, s.db, propertyID)
	if err != nil {
		return nil, err
	}
	if property == nil {
		return nil, domain.ErrInvalidProperty
	}
	// Only listings currently visible to customers can be booked against.
	if property.Status != listingdomain.StatusActive {
		return nil, domain.ErrInvalidProperty
	}

	now := s.clock.Now()
	if req.ScheduledDate.IsZero() || !req.ScheduledDate.After(now) {
		return nil, domain.ErrInvalidSchedule
	}

	appointment := &domain.Appointment{
		ID:            s.genID.Generate(),
		PropertyID:    property.ID,
		CompanyID:     property.CompanyID,
		CustomerID:    customerID,
		ScheduledDate: req.ScheduledDate,
		Message:       req.Message,
		Status:        domain.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, s.db, appointment); err != nil {
		return nil, err
	}

	s.emitter.Emit(ctx, events.Event{
		Type:       events.TypeAppointmentRequested,
		OccurredAt: now,
		Data: map[string]any{
			"appointment_id": appointment.ID.String(),
			"property_id":    property.ID.String(),
			"company_id":     property.CompanyID.String(),
			"customer_id":    customerID.String(),
			"scheduled_date": appointment.ScheduledDate,
		},
	})

	resp := toResponse(appointment)
	return &resp, nil
}

func (s *Service) SetStatus(ctx context.Context, companyID snowflake.ID, id, status string) (*domain.Response, error) {
	if companyID == 0 {
		return nil, domain.ErrForbidden
	}

	target := domain.AppointmentStatus(strings.ToLower(strings.TrimSpace(status)))
	if !domain.ValidTargetStatus(target) {
		return nil, domain.ErrInvalidStatus
	}

	appointment, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if appointment.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}

	now := s.clock.Now()
	moved, err := s.repo.Transition(ctx, s.db, appointment.ID, target, now)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, domain.ErrInvalidTransition
	}

	appointment.Status = target
	appointment.UpdatedAt = now

	s.obsMetrics.RecordAppointmentTransition(ctx, string(target))
	eventType := events.TypeAppointmentConfirmed
	if target == domain.StatusCancelled {
		eventType = events.TypeAppointmentCancelled
	}
	s.emitter.Emit(ctx, events.Event{
		Type:       eventType,
		OccurredAt: now,
		Data: map[string]any{
			"appointment_id": appointment.ID.String(),
			"property_id":    appointment.PropertyID.String(),
			"customer_id":    appointment.CustomerID.String(),
		},
	})

	resp := toResponse(appointment)
	return &resp, nil
}

// Delete is the customer's withdrawal. Unlike the company decision it is not
// gated on pending: a customer may drop a confirmed appointment too.
func (s *Service) Delete(ctx context.Context, customerID snowflake.ID, id string) error {
	if customerID == 0 {
		return domain.ErrForbidden
	}

	appointment, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if appointment.CustomerID != customerID {
		return domain.ErrForbidden
	}

	if err := s.repo.Delete(ctx, s.db, appointment.ID); err != nil {
		return err
	}

	s.emitter.Emit(ctx, events.Event{
		Type:       events.TypeAppointmentCancelled,
		OccurredAt: s.clock.Now(),
		Data: map[string]any{
			"appointment_id": appointment.ID.String(),
			"property_id":    appointment.PropertyID.String(),
			"company_id":     appointment.CompanyID.String(),
			"withdrawn_by":   "customer",
		},
	})
	return nil
}

func (s *Service) ListByCompany(ctx context.Context, companyID snowflake.ID, req domain.ListRequest) ([]domain.Response, *pagination.PageInfo, error) {
	if companyID == 0 {
		return nil, nil, domain.ErrForbidden
	}
	return s.list(ctx, domain.ListFilter{CompanyID: companyID}, req)
}

func (s *Service) ListByCustomer(ctx context.Context, customerID snowflake.ID, req domain.ListRequest) ([]domain.Response, *pagination.PageInfo, error) {
	if customerID == 0 {
		return nil, nil, domain.ErrForbidden
	}
	return s.list(ctx, domain.ListFilter{CustomerID: customerID}, req)
}

func (s *Service) list(ctx context.Context, filter domain.ListFilter, req domain.ListRequest) ([]domain.Response, *pagination.PageInfo, error) {
	filter.Status = domain.AppointmentStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if propertyID := strings.TrimSpace(req.PropertyID); propertyID != "" {
		parsed, err := snowflake.ParseString(propertyID)
		if err != nil {
			return nil, nil, domain.ErrInvalidProperty
		}
		filter.PropertyID = parsed
	}
	filter.Limit = req.Pagination.PageSize
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if req.Pagination.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.Pagination.PageToken)
		if err != nil {
			return nil, nil, domain.ErrInvalidID
		}
		filter.Cursor = cursor
	}

	appointments, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, nil, err
	}

	appointments, pageInfo := pagination.BuildCursorPageInfo(appointments, filter.Limit, func(a domain.Appointment) pagination.Cursor {
		return pagination.Cursor{
			ID:        a.ID.String(),
			CreatedAt: a.CreatedAt.Format(time.RFC3339Nano),
		}
	})

	resp := make([]domain.Response, 0, len(appointments))
	for i := range appointments {
		resp = append(resp, toResponse(&appointments[i]))
	}
	return resp, pageInfo, nil
}

func (s *Service) find(ctx context.Context, id string) (*domain.Appointment, error) {
	appointmentID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || appointmentID == 0 {
		return nil, domain.ErrInvalidID
	}
	appointment, err := s.repo.FindByID(ctx, s.db, appointmentID)
	if err != nil {
		return nil, err
	}
	if appointment == nil {
		return nil, domain.ErrNotFound
	}
	return appointment, nil
}

func toResponse(appointment *domain.Appointment) domain.Response {
	return domain.Response{
		ID:            appointment.ID.String(),
		PropertyID:    appointment.PropertyID.String(),
		CompanyID:     appointment.CompanyID.String(),
		CustomerID:    appointment.CustomerID.String(),
		ScheduledDate: appointment.ScheduledDate,
		Message:       appointment.Message,
		Status:        string(appointment.Status),
		CreatedAt:     appointment.CreatedAt,
		UpdatedAt:     appointment.UpdatedAt,
	}
}
