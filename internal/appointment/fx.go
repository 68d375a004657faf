package appointment

import (
	"github.com/carebook/carebook/internal/appointment/repository"
	"github.com/carebook/carebook/internal/appointment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("appointment.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(repository.NewResourceDirectory),
	fx.Provide(service.New),
)
