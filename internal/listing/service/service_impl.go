package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shegerhomes/gebeya/internal/clock"
	entitlementdomain "github.com/shegerhomes/gebeya/internal/entitlement/domain"
	"github.com/shegerhomes/gebeya/internal/listing/domain"
	"github.com/shegerhomes/gebeya/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Repo         domain.Repository
	Entitlements entitlementdomain.Service
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	repo         domain.Repository
	entitlements entitlementdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("listing.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		repo:         p.Repo,
		entitlements: p.Entitlements,
	}
}

func (s *Service) Create(ctx context.Context, companyID snowflake.ID, req domain.CreateRequest) (*domain.Response, error) {
	if companyID == 0 {
		return nil, domain.ErrForbidden
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, domain.ErrInvalidTitle
	}
	listingType := domain.ListingType(strings.ToLower(strings.TrimSpace(req.ListingType)))
	if !domain.ValidListingType(listingType) {
		return nil, domain.ErrInvalidListingType
	}
	if req.Price <= 0 {
		return nil, domain.ErrInvalidPrice
	}
	if strings.TrimSpace(req.Location) == "" {
		return nil, domain.ErrInvalidLocation
	}

	now := s.clock.Now()
	property := &domain.Property{
		ID:          s.genID.Generate(),
		CompanyID:   companyID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		ListingType: listingType,
		Price:       req.Price,
		Currency:    strings.ToUpper(strings.TrimSpace(req.Currency)),
		Location:    strings.TrimSpace(req.Location),
		Status:      domain.StatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if property.Currency == "" {
		property.Currency = "ETB"
	}

	if err := s.repo.Create(ctx, s.db, property); err != nil {
		return nil, err
	}

	resp := toResponse(property)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	property, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := toResponse(property)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, *pagination.PageInfo, error) {
	filter := domain.ListFilter{
		CompanyID:   req.CompanyID,
		Status:      domain.PropertyStatus(strings.ToLower(strings.TrimSpace(req.Status))),
		ListingType: domain.ListingType(strings.ToLower(strings.TrimSpace(req.ListingType))),
		Limit:       req.Pagination.PageSize,
	}
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

	properties, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, nil, err
	}

	properties, pageInfo := pagination.BuildCursorPageInfo(properties, filter.Limit, func(p domain.Property) pagination.Cursor {
		return pagination.Cursor{
			ID:        p.ID.String(),
			CreatedAt: p.CreatedAt.Format(time.RFC3339Nano),
		}
	})

	resp := make([]domain.Response, 0, len(properties))
	for i := range properties {
		resp = append(resp, toResponse(&properties[i]))
	}
	return resp, pageInfo, nil
}

func (s *Service) Update(ctx context.Context, companyID snowflake.ID, req domain.UpdateRequest) (*domain.Response, error) {
	property, err := s.findOwned(ctx, companyID, req.ID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, domain.ErrInvalidTitle
		}
		property.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		property.Description = req.Description
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			return nil, domain.ErrInvalidPrice
		}
		property.Price = *req.Price
	}
	if req.Currency != nil {
		property.Currency = strings.ToUpper(strings.TrimSpace(*req.Currency))
	}
	if req.Location != nil {
		if strings.TrimSpace(*req.Location) == "" {
			return nil, domain.ErrInvalidLocation
		}
		property.Location = strings.TrimSpace(*req.Location)
	}
	property.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, s.db, property); err != nil {
		return nil, err
	}

	resp := toResponse(property)
	return &resp, nil
}

// Activate consumes a capacity unit first and stamps the row second. When the
// stamp loses a concurrent race the unit is released again, so capacity never
// leaks on the failure path.
func (s *Service) Activate(ctx context.Context, companyID snowflake.ID, id string) (*domain.Response, error) {
	property, err := s.findOwned(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	switch property.Status {
	case domain.StatusActive:
		return nil, domain.ErrInvalidTransition
	case domain.StatusRemoved:
		return nil, domain.ErrInvalidTransition
	}

	grantID, err := s.entitlements.ConsumeCapacity(ctx, companyID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	stamped, err := s.repo.MarkActive(ctx, s.db, property.ID, grantID, now)
	if err != nil || !stamped {
		if releaseErr := s.entitlements.ReleaseCapacity(ctx, grantID); releaseErr != nil {
			s.log.Error("release after failed activation",
				zap.String("property_id", property.ID.String()),
				zap.String("grant_id", grantID.String()),
				zap.Error(releaseErr),
			)
		}
		if err != nil {
			return nil, err
		}
		return nil, domain.ErrInvalidTransition
	}

	property.Status = domain.StatusActive
	property.ConsumedGrantID = &grantID
	property.UpdatedAt = now

	s.log.Info("listing activated",
		zap.String("property_id", property.ID.String()),
		zap.String("company_id", companyID.String()),
		zap.String("grant_id", grantID.String()),
	)

	resp := toResponse(property)
	return &resp, nil
}

func (s *Service) Deactivate(ctx context.Context, companyID snowflake.ID, id string) (*domain.Response, error) {
	property, err := s.findOwned(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if property.Status != domain.StatusActive {
		return nil, domain.ErrInvalidTransition
	}

	grantID := property.ConsumedGrantID
	now := s.clock.Now()
	moved, err := s.repo.MarkInactive(ctx, s.db, property.ID, domain.StatusDraft, now)
	if err != nil {
		return nil, err
	}
	if !moved {
		return nil, domain.ErrInvalidTransition
	}

	s.releaseGrant(ctx, property.ID, grantID)

	property.Status = domain.StatusDraft
	property.ConsumedGrantID = nil
	property.UpdatedAt = now

	resp := toResponse(property)
	return &resp, nil
}

func (s *Service) Remove(ctx context.Context, companyID snowflake.ID, id string) error {
	property, err := s.findOwned(ctx, companyID, id)
	if err != nil {
		return err
	}
	if property.Status == domain.StatusRemoved {
		return domain.ErrInvalidTransition
	}

	wasActive := property.Status == domain.StatusActive
	grantID := property.ConsumedGrantID

	removed, err := s.repo.MarkRemoved(ctx, s.db, property.ID, s.clock.Now())
	if err != nil {
		return err
	}
	if !removed {
		return domain.ErrInvalidTransition
	}

	if wasActive {
		s.releaseGrant(ctx, property.ID, grantID)
	}
	return nil
}

func (s *Service) find(ctx context.Context, id string) (*domain.Property, error) {
	propertyID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || propertyID == 0 {
		return nil, domain.ErrInvalidID
	}
	property, err := s.repo.FindByID(ctx, s.db, propertyID)
	if err != nil {
		return nil, err
	}
	if property == nil {
		return nil, domain.ErrNotFound
	}
	return property, nil
}

func (s *Service) findOwned(ctx context.Context, companyID snowflake.ID, id string) (*domain.Property, error) {
	if companyID == 0 {
		return nil, domain.ErrForbidden
	}
	property, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if property.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return property, nil
}

func (s *Service) releaseGrant(ctx context.Context, propertyID snowflake.ID, grantID *snowflake.ID) {
	if grantID == nil {
		s.log.Warn("active listing had no grant stamp", zap.String("property_id", propertyID.String()))
		return
	}
	if err := s.entitlements.ReleaseCapacity(ctx, *grantID); err != nil {
		s.log.Error("release capacity",
			zap.String("property_id", propertyID.String()),
			zap.String("grant_id", grantID.String()),
			zap.Error(err),
		)
	}
}

func toResponse(property *domain.Property) domain.Response {
	resp := domain.Response{
		ID:          property.ID.String(),
		CompanyID:   property.CompanyID.String(),
		Title:       property.Title,
		Description: property.Description,
		ListingType: string(property.ListingType),
		Price:       property.Price,
		Currency:    property.Currency,
		Location:    property.Location,
		Status:      string(property.Status),
		CreatedAt:   property.CreatedAt,
		UpdatedAt:   property.UpdatedAt,
	}
	if property.ConsumedGrantID != nil {
		value := property.ConsumedGrantID.String()
		resp.ConsumedGrantID = &value
	}
	return resp
}
