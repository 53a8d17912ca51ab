package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shegerhomes/gebeya/internal/catalog/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("catalog.service"),
		repo:  p.Repo,
		genID: p.GenID,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	tier := strings.ToLower(strings.TrimSpace(req.Tier))
	if tier != "" && !domain.ValidTier(domain.PackageTier(tier)) {
		return nil, domain.ErrInvalidTier
	}

	items, err := s.repo.List(ctx, s.db, domain.ListRequest{Tier: tier, Active: req.Active})
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for _, item := range items {
		resp = append(resp, s.toResponse(&item))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	pkgID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, pkgID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	resp := s.toResponse(item)
	return &resp, nil
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, domain.ErrInvalidCode
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	tier := domain.PackageTier(strings.ToLower(strings.TrimSpace(req.Tier)))
	if !domain.ValidTier(tier) {
		return nil, domain.ErrInvalidTier
	}
	if req.PriceUSD <= 0 || req.PriceETB <= 0 {
		return nil, domain.ErrInvalidPrice
	}
	if req.DurationDays <= 0 {
		return nil, domain.ErrInvalidDuration
	}
	if req.PropertyCapacity <= 0 {
		return nil, domain.ErrInvalidCapacity
	}

	description := strings.TrimSpace(ptrToString(req.Description))
	var descriptionPtr *string
	if description != "" {
		descriptionPtr = &description
	}

	now := time.Now().UTC()
	pkg := &domain.PackageDefinition{
		ID:               s.genID.Generate(),
		Code:             code,
		Name:             name,
		Tier:             tier,
		PriceUSD:         req.PriceUSD,
		PriceETB:         req.PriceETB,
		DurationDays:     req.DurationDays,
		PropertyCapacity: req.PropertyCapacity,
		Description:      descriptionPtr,
		Active:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if req.Metadata != nil {
		pkg.Metadata = datatypes.JSONMap(req.Metadata)
	}

	if err := s.repo.Create(ctx, s.db, pkg); err != nil {
		return nil, err
	}

	resp := s.toResponse(pkg)
	return &resp, nil
}

// Update edits a definition prospectively. Grants hold their own snapshot,
// so a price change here never alters what an existing purchase entitles.
func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	pkgID, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, pkgID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		item.Name = name
	}
	if req.PriceUSD != nil {
		if *req.PriceUSD <= 0 {
			return nil, domain.ErrInvalidPrice
		}
		item.PriceUSD = *req.PriceUSD
	}
	if req.PriceETB != nil {
		if *req.PriceETB <= 0 {
			return nil, domain.ErrInvalidPrice
		}
		item.PriceETB = *req.PriceETB
	}
	if req.DurationDays != nil {
		if *req.DurationDays <= 0 {
			return nil, domain.ErrInvalidDuration
		}
		item.DurationDays = *req.DurationDays
	}
	if req.Capacity != nil {
		if *req.Capacity <= 0 {
			return nil, domain.ErrInvalidCapacity
		}
		item.PropertyCapacity = *req.Capacity
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		if description == "" {
			item.Description = nil
		} else {
			item.Description = &description
		}
	}
	if req.Active != nil {
		item.Active = *req.Active
	}
	if req.Metadata != nil {
		item.Metadata = datatypes.JSONMap(req.Metadata)
	}

	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}

	resp := s.toResponse(item)
	return &resp, nil
}

func (s *Service) Archive(ctx context.Context, id string) (*domain.Response, error) {
	pkgID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, pkgID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	item.Active = false
	item.UpdatedAt = time.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}

	resp := s.toResponse(item)
	return &resp, nil
}

func (s *Service) toResponse(pkg *domain.PackageDefinition) domain.Response {
	resp := domain.Response{
		ID:               pkg.ID.String(),
		Code:             pkg.Code,
		Name:             pkg.Name,
		Tier:             string(pkg.Tier),
		PriceUSD:         pkg.PriceUSD,
		PriceETB:         pkg.PriceETB,
		DurationDays:     pkg.DurationDays,
		PropertyCapacity: pkg.PropertyCapacity,
		Description:      pkg.Description,
		Active:           pkg.Active,
		CreatedAt:        pkg.CreatedAt,
		UpdatedAt:        pkg.UpdatedAt,
	}

	if len(pkg.Metadata) > 0 {
		resp.Metadata = map[string]any(pkg.Metadata)
	}

	return resp
}

func ptrToString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
