package attachment

import (
	"github.com/carebook/carebook/internal/attachment/repository"
	"github.com/carebook/carebook/internal/attachment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("attachment.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.New),
)
