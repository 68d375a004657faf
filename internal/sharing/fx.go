package sharing

import (
	"github.com/carebook/carebook/internal/sharing/repository"
	"github.com/carebook/carebook/internal/sharing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("sharing.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(repository.NewUserDirectory),
	fx.Provide(service.New),
)
