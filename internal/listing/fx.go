package listing

import (
	"github.com/shegerhomes/gebeya/internal/listing/repository"
	"github.com/shegerhomes/gebeya/internal/listing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("listing.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
