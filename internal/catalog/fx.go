package catalog

import (
	"github.com/shegerhomes/gebeya/internal/catalog/repository"
	"github.com/shegerhomes/gebeya/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
