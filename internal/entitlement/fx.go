package entitlement

import (
	"github.com/shegerhomes/gebeya/internal/entitlement/repository"
	"github.com/shegerhomes/gebeya/internal/entitlement/service"
	"go.uber.org/fx"
)

var Module = fx.Module("entitlement.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
