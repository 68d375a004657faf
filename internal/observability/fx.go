package observability

import (
	"github.com/carebook/carebook/internal/observability/logger"
	"github.com/carebook/carebook/internal/observability/metrics"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		provideLoggerConfig,
		logger.New,
		metrics.NewHTTPMetrics,
	),
)

func provideLoggerConfig(cfg Config) logger.Config {
	return logger.Config{
		ServiceName:   cfg.ServiceName,
		Environment:   cfg.Environment,
		Version:       cfg.Version,
		Level:         cfg.LogLevel,
		Format:        cfg.LogFormat,
		Debug:         cfg.Debug(),
		IncludeCaller: true,
	}
}
