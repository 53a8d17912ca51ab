package reconciliation

import (
	"github.com/shegerhomes/gebeya/internal/reconciliation/adapters"
	"github.com/shegerhomes/gebeya/internal/reconciliation/adapters/chapa"
	"github.com/shegerhomes/gebeya/internal/reconciliation/adapters/paypal"
	"github.com/shegerhomes/gebeya/internal/reconciliation/adapters/stripe"
	"github.com/shegerhomes/gebeya/internal/reconciliation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reconciliation.service",
	fx.Provide(newRegistry),
	fx.Provide(service.New),
)

func newRegistry() *adapters.Registry {
	return adapters.NewRegistry(
		chapa.NewFactory(),
		stripe.NewFactory(),
		paypal.NewFactory(),
	)
}
