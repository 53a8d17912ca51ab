package appointment

import (
	"github.com/shegerhomes/gebeya/internal/appointment/repository"
	"github.com/shegerhomes/gebeya/internal/appointment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("appointment.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
