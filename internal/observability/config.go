package observability

import (
	"strings"

	"github.com/carebook/carebook/internal/config"
)

// Config holds observability settings derived from the app config and
// environment.
type Config struct {
	ServiceName string
	Environment string
	Version     string

	LogLevel  string
	LogFormat string
}

func LoadConfig(cfg config.Config) Config {
	serviceName := strings.TrimSpace(cfg.AppName)
	if serviceName == "" {
		serviceName = "carebook"
	}

	return Config{
		ServiceName: serviceName,
		Environment: strings.TrimSpace(cfg.Environment),
		Version:     strings.TrimSpace(cfg.AppVersion),
		LogLevel:    "info",
		LogFormat:   "json",
	}
}

func (c Config) Debug() bool {
	return c.Environment == "development"
}
