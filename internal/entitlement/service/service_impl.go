package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shegerhomes/gebeya/internal/clock"
	"github.com/shegerhomes/gebeya/internal/entitlement/domain"
	"github.com/shegerhomes/gebeya/internal/events"
	obsmetrics "github.com/shegerhomes/gebeya/internal/observability/metrics"
	"github.com/shegerhomes/gebeya/pkg/db"
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
	Emitter    events.Emitter
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	emitter    events.Emitter
	obsMetrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("entitlement.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		emitter:    p.Emitter,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) Credit(ctx context.Context, companyID snowflake.ID, snapshot domain.PackageSnapshot, paymentMethod, transactionID string) (*domain.GrantResponse, error) {
	if companyID == 0 {
		return nil, domain.ErrInvalidCompany
	}
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return nil, domain.ErrInvalidTransaction
	}
	if snapshot.PackageID == 0 || snapshot.Capacity <= 0 || snapshot.DurationDays <= 0 {
		return nil, domain.ErrInvalidSnapshot
	}

	// Fast path for webhook redelivery.
	existing, err := s.repo.FindByTransactionID(ctx, s.db, transactionID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		resp := s.toResponse(existing)
		return &resp, nil
	}

	now := s.clock.Now()
	grant := &domain.EntitlementGrant{
		ID:            s.genID.Generate(),
		CompanyID:     companyID,
		PackageID:     snapshot.PackageID,
		PackageName:   snapshot.Name,
		Tier:          snapshot.Tier,
		PriceUSD:      snapshot.PriceUSD,
		PriceETB:      snapshot.PriceETB,
		DurationDays:  snapshot.DurationDays,
		CapacityTotal: snapshot.Capacity,
		CapacityUsed:  0,
		PaymentMethod: strings.ToLower(strings.TrimSpace(paymentMethod)),
		TransactionID: transactionID,
		PurchasedAt:   now,
		ExpiresAt:     now.AddDate(0, 0, snapshot.DurationDays),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Insert(ctx, s.db, grant); err != nil {
		// A concurrent duplicate delivery won the insert; the unique
		// index on transaction_id makes that the same credit.
		if db.IsDuplicateKeyErr(err) {
			existing, findErr := s.repo.FindByTransactionID(ctx, s.db, transactionID)
			if findErr != nil {
				return nil, findErr
			}
			if existing != nil {
				resp := s.toResponse(existing)
				return &resp, nil
			}
		}
		return nil, err
	}

	s.log.Info("entitlement credited",
		zap.String("grant_id", grant.ID.String()),
		zap.String("company_id", companyID.String()),
		zap.String("transaction_id", transactionID),
		zap.Int("capacity_total", grant.CapacityTotal),
	)
	s.emitter.Emit(ctx, events.Event{
		Type:       events.TypeEntitlementCredited,
		OccurredAt: now,
		Data: map[string]any{
			"grant_id":       grant.ID.String(),
			"company_id":     companyID.String(),
			"package_name":   grant.PackageName,
			"capacity_total": grant.CapacityTotal,
			"expires_at":     grant.ExpiresAt,
		},
	})

	resp := s.toResponse(grant)
	return &resp, nil
}

func (s *Service) ConsumeCapacity(ctx context.Context, companyID snowflake.ID) (snowflake.ID, error) {
	if companyID == 0 {
		return 0, domain.ErrInvalidCompany
	}

	now := s.clock.Now()
	candidates, err := s.repo.ListConsumable(ctx, s.db, companyID, now)
	if err != nil {
		return 0, err
	}

	// Oldest expiry first so capacity in a grant about to lapse is not
	// stranded. A lost compare-and-swap moves on to the next candidate.
	for _, grant := range candidates {
		ok, err := s.repo.TryConsume(ctx, s.db, grant.ID, now)
		if err != nil {
			return 0, err
		}
		if ok {
			s.obsMetrics.RecordCapacityConsumed(ctx)
			return grant.ID, nil
		}
	}

	return 0, domain.ErrNoCapacityAvailable
}

func (s *Service) ReleaseCapacity(ctx context.Context, grantID snowflake.ID) error {
	if grantID == 0 {
		return domain.ErrGrantNotFound
	}

	now := s.clock.Now()
	released, err := s.repo.Release(ctx, s.db, grantID, now)
	if err != nil {
		return err
	}
	if !released {
		grant, err := s.repo.FindByID(ctx, s.db, grantID)
		if err != nil {
			return err
		}
		if grant == nil {
			return domain.ErrGrantNotFound
		}
		// Already at zero: a malformed double release is a no-op.
		s.log.Warn("release on drained grant ignored", zap.String("grant_id", grantID.String()))
		return nil
	}

	s.obsMetrics.RecordCapacityReleased(ctx)
	return nil
}

func (s *Service) ActiveSummary(ctx context.Context, companyID snowflake.ID) (*domain.Summary, error) {
	if companyID == 0 {
		return nil, domain.ErrInvalidCompany
	}

	row, err := s.repo.Summarize(ctx, s.db, companyID, s.clock.Now())
	if err != nil {
		return nil, err
	}

	available := row.TotalCapacity - row.UsedCapacity
	if available < 0 {
		available = 0
	}

	return &domain.Summary{
		CompanyID:         companyID.String(),
		ActiveGrants:      row.GrantCount,
		TotalCapacity:     row.TotalCapacity,
		UsedCapacity:      row.UsedCapacity,
		AvailableCapacity: available,
		NearestExpiry:     row.NearestExpiry,
	}, nil
}

func (s *Service) ListGrants(ctx context.Context, companyID snowflake.ID) ([]domain.GrantResponse, error) {
	if companyID == 0 {
		return nil, domain.ErrInvalidCompany
	}

	grants, err := s.repo.ListByCompany(ctx, s.db, companyID)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.GrantResponse, 0, len(grants))
	for _, grant := range grants {
		resp = append(resp, s.toResponse(&grant))
	}
	return resp, nil
}

func (s *Service) toResponse(grant *domain.EntitlementGrant) domain.GrantResponse {
	return domain.GrantResponse{
		ID:            grant.ID.String(),
		CompanyID:     grant.CompanyID.String(),
		PackageID:     grant.PackageID.String(),
		PackageName:   grant.PackageName,
		Tier:          grant.Tier,
		PriceUSD:      grant.PriceUSD,
		PriceETB:      grant.PriceETB,
		DurationDays:  grant.DurationDays,
		CapacityTotal: grant.CapacityTotal,
		CapacityUsed:  grant.CapacityUsed,
		PaymentMethod: grant.PaymentMethod,
		TransactionID: grant.TransactionID,
		PurchasedAt:   grant.PurchasedAt,
		ExpiresAt:     grant.ExpiresAt,
		Active:        grant.Active(s.clock.Now()),
	}
}
