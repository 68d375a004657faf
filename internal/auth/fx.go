package auth

import (
	"github.com/carebook/carebook/internal/auth/repository"
	"github.com/carebook/carebook/internal/auth/service"
	"github.com/carebook/carebook/internal/auth/session"
	"go.uber.org/fx"
)

var Module = fx.Module("auth",
	fx.Provide(repository.NewRepository),
	fx.Provide(repository.NewSessionRepository),
	fx.Provide(session.NewManager),
	fx.Provide(service.New),
)
