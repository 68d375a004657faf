package ratelimit

import (
	"github.com/carebook/carebook/internal/config"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("ratelimit",
	fx.Provide(NewFromConfig),
)

// NewFromConfig selects the redis-backed limiter when redis is configured,
// otherwise the process-local one.
func NewFromConfig(cfg config.Config, log *zap.Logger) Limiter {
	if cfg.Redis.Addr == "" {
		return NewMemoryLimiter()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	log.Info("using redis rate limiter", zap.String("addr", cfg.Redis.Addr))
	return NewRedisLimiter(client)
}
