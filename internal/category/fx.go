package category

import (
	"github.com/carebook/carebook/internal/category/repository"
	"github.com/carebook/carebook/internal/category/service"
	"go.uber.org/fx"
)

var Module = fx.Module("category.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.New),
)
