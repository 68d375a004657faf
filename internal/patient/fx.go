package patient

import (
	"github.com/carebook/carebook/internal/patient/repository"
	"github.com/carebook/carebook/internal/patient/service"
	"go.uber.org/fx"
)

var Module = fx.Module("patient.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.New),
)
