package service

import (
	"context"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/shegerhomes/gebeya/internal/catalog/domain"
	"github.com/shegerhomes/gebeya/internal/config"
	entitlementdomain "github.com/shegerhomes/gebeya/internal/entitlement/domain"
	obsmetrics "github.com/shegerhomes/gebeya/internal/observability/metrics"
	"github.com/shegerhomes/gebeya/internal/reconciliation/adapters"
	"github.com/shegerhomes/gebeya/internal/reconciliation/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Config       config.Config
	Registry     *adapters.Registry
	Packages     catalogdomain.Repository
	Entitlements entitlementdomain.Service
	ObsMetrics   *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	payment      config.PaymentConfig
	registry     *adapters.Registry
	packages     catalogdomain.Repository
	entitlements entitlementdomain.Service
	obsMetrics   *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("reconciliation.service"),
		payment:      p.Config.Payment,
		registry:     p.Registry,
		packages:     p.Packages,
		entitlements: p.Entitlements,
		obsMetrics:   p.ObsMetrics,
	}
}

func (s *Service) Reconcile(ctx context.Context, req domain.ReconcileRequest) (*entitlementdomain.GrantResponse, error) {
	provider := strings.ToLower(strings.TrimSpace(req.Provider))
	if provider == "" {
		return nil, domain.ErrInvalidProvider
	}
	transactionID := strings.TrimSpace(req.ProviderTransactionID)
	if transactionID == "" {
		return nil, domain.ErrInvalidTransaction
	}

	companyID, err := snowflake.ParseString(strings.TrimSpace(req.CompanyID))
	if err != nil || companyID == 0 {
		return nil, domain.ErrInvalidCompany
	}
	packageID, err := snowflake.ParseString(strings.TrimSpace(req.PackageID))
	if err != nil || packageID == 0 {
		return nil, domain.ErrInvalidPackage
	}

	pkg, err := s.packages.FindByID(ctx, s.db, packageID)
	if err != nil {
		return nil, err
	}
	if pkg == nil {
		return nil, catalogdomain.ErrNotFound
	}

	// The paid amount must match the definition price for the currency
	// exactly. Anything else is held for manual review, never credited.
	var expected int64
	switch strings.ToUpper(strings.TrimSpace(req.Currency)) {
	case "USD":
		expected = pkg.PriceUSD
	case "ETB":
		expected = pkg.PriceETB
	default:
		s.recordReconciliation(ctx, provider, "invalid_currency")
		return nil, domain.ErrInvalidCurrency
	}
	if req.Amount != expected {
		s.log.Warn("payment amount mismatch",
			zap.String("provider", provider),
			zap.String("transaction_id", transactionID),
			zap.String("package_id", packageID.String()),
			zap.Int64("expected", expected),
			zap.Int64("received", req.Amount),
		)
		s.recordReconciliation(ctx, provider, "amount_mismatch")
		return nil, domain.ErrAmountMismatch
	}

	grant, err := s.entitlements.Credit(ctx, companyID, entitlementdomain.PackageSnapshot{
		PackageID:    pkg.ID,
		Name:         pkg.Name,
		Tier:         string(pkg.Tier),
		PriceUSD:     pkg.PriceUSD,
		PriceETB:     pkg.PriceETB,
		DurationDays: pkg.DurationDays,
		Capacity:     pkg.PropertyCapacity,
	}, provider, transactionID)
	if err != nil {
		s.recordReconciliation(ctx, provider, "credit_failed")
		return nil, err
	}

	s.recordReconciliation(ctx, provider, "credited")
	return grant, nil
}

func (s *Service) IngestCallback(ctx context.Context, provider string, payload []byte, headers http.Header) (*entitlementdomain.GrantResponse, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if provider == "" {
		return nil, domain.ErrInvalidProvider
	}

	secret := s.webhookSecret(provider)
	if secret == "" {
		return nil, domain.ErrProviderNotFound
	}

	adapter, err := s.registry.NewAdapter(provider, domain.AdapterConfig{Secret: secret})
	if err != nil {
		return nil, err
	}

	if err := adapter.Verify(ctx, payload, headers); err != nil {
		s.recordReconciliation(ctx, provider, "invalid_signature")
		return nil, err
	}

	confirmation, err := adapter.Parse(ctx, payload)
	if err != nil {
		return nil, err
	}

	return s.Reconcile(ctx, domain.ReconcileRequest{
		Provider:              confirmation.Provider,
		ProviderTransactionID: confirmation.TransactionID,
		CompanyID:             confirmation.CompanyID,
		PackageID:             confirmation.PackageID,
		Amount:                confirmation.Amount,
		Currency:              confirmation.Currency,
	})
}

func (s *Service) webhookSecret(provider string) string {
	switch provider {
	case "chapa":
		return s.payment.ChapaWebhookSecret
	case "stripe":
		return s.payment.StripeWebhookSecret
	case "paypal":
		return s.payment.PaypalWebhookSecret
	default:
		return ""
	}
}

func (s *Service) recordReconciliation(ctx context.Context, provider, outcome string) {
	s.obsMetrics.RecordReconciliation(ctx, provider, outcome)
}
