package app

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/AbilashEG/smart-hr-intake/internal/adapter/httpserver"
)

// Pinger is any dependency that can report its own reachability.
type Pinger interface{ Ping(ctx context.Context) error }

// Dependencies are the probes behind /readyz. Blobs and Tika are optional.
type Dependencies struct {
	DB    Pinger
	Redis redis.UniversalClient
	Blobs Pinger
	Tika  Pinger
}

// BuildReadinessChecks returns one check per dependency. The database and
// Redis are required and report "not configured" when missing.
func BuildReadinessChecks(deps Dependencies) []httpserver.ReadinessCheck {
	checks := []httpserver.ReadinessCheck{
		{Name: "db", Check: func(ctx context.Context) error {
			if deps.DB == nil {
				return errors.New("db not configured")
			}
			return deps.DB.Ping(ctx)
		}},
		{Name: "redis", Check: func(ctx context.Context) error {
			if deps.Redis == nil {
				return errors.New("redis not configured")
			}
			return deps.Redis.Ping(ctx).Err()
		}},
	}
	if deps.Blobs != nil {
		checks = append(checks, httpserver.ReadinessCheck{Name: "blob", Check: deps.Blobs.Ping})
	}
	if deps.Tika != nil {
		checks = append(checks, httpserver.ReadinessCheck{Name: "tika", Check: deps.Tika.Ping})
	}
	return checks
}
