package logger

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config configures the zap logger.
type Config struct {
	ServiceName   string
	Environment   string
	Version       string
	Level         string
	Format        string
	Debug         bool
	IncludeCaller bool
}

type contextKey struct{}

// New builds a structured zap.Logger, installs it as the global logger and
// registers a flush hook on shutdown.
func New(lc fx.Lifecycle, cfg Config) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	zapCfg.Encoding = normalizeFormat(cfg.Format)
	zapCfg.EncoderConfig.TimeKey = "ts"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.OutputPaths = []string{"stdout"}
	zapCfg.ErrorOutputPaths = []string{"stderr"}

	level := strings.TrimSpace(cfg.Level)
	if level == "" {
		level = "info"
	}
	if cfg.Debug {
		level = "debug"
	}
	if err := zapCfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	options := []zap.Option{}
	if cfg.IncludeCaller {
		options = append(options, zap.AddCaller())
	}

	log, err := zapCfg.Build(options...)
	if err != nil {
		return nil, err
	}

	log = log.With(
		zap.String("service", cfg.ServiceName),
		zap.String("env", cfg.Environment),
		zap.String("version", cfg.Version),
	)

	zap.ReplaceGlobals(log)

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			_ = log.Sync()
			return nil
		},
	})

	return log, nil
}

// WithLogger stores a request-scoped logger in the context.
func WithLogger(ctx context.Context, log *zap.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, log)
}

// FromContext returns the request-scoped logger, falling back to the global.
func FromContext(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if log, ok := ctx.Value(contextKey{}).(*zap.Logger); ok && log != nil {
			return log
		}
	}
	return zap.L()
}

func normalizeFormat(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "console":
		return "console"
	default:
		return "json"
	}
}
