package blob

import (
	"context"

	"github.com/carebook/carebook/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers.blob",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config, log *zap.Logger) (Store, error) {
	if cfg.Blob.Endpoint == "" {
		log.Warn("no blob endpoint configured, attachments are stored in memory")
		return NewMemory(), nil
	}

	store, err := NewMinio(Config{
		Endpoint:  cfg.Blob.Endpoint,
		AccessKey: cfg.Blob.AccessKey,
		SecretKey: cfg.Blob.SecretKey,
		Bucket:    cfg.Blob.Bucket,
		UseSSL:    cfg.Blob.UseSSL,
	})
	if err != nil {
		return nil, err
	}
	if err := store.EnsureBucket(context.Background()); err != nil {
		return nil, err
	}
	return store, nil
}
