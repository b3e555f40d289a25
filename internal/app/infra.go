package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/AbilashEG/smart-hr-intake/internal/adapter/blob/minio"
	"github.com/AbilashEG/smart-hr-intake/internal/config"
)

// NewRedis connects to REDIS_URL with tracing enabled and verifies the connection.
func NewRedis(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("op=app.redis_parse: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(rdb); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("op=app.redis_otel: %w", err)
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("op=app.redis_ping: %w", err)
	}
	return rdb, nil
}

// NewBlobStore builds the MinIO store and creates the bucket when missing.
func NewBlobStore(ctx context.Context, cfg config.Config) (*minio.Store, error) {
	store, err := minio.New(minio.Options{
		Endpoint:      cfg.MinioEndpoint,
		AccessKey:     cfg.MinioAccessKey,
		SecretKey:     cfg.MinioSecretKey,
		Bucket:        cfg.MinioBucket,
		UseSSL:        cfg.MinioUseSSL,
		Region:        cfg.MinioRegion,
		PublicBaseURL: cfg.BlobPublicBaseURL,
	})
	if err != nil {
		return nil, err
	}
	if err := store.EnsureBucket(ctx, cfg.MinioRegion); err != nil {
		return nil, err
	}
	return store, nil
}
