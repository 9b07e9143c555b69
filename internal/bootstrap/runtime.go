// Package bootstrap connects the process-wide dependencies shared by the
// server and the command line tools.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"murmur/internal/cache"
	"murmur/internal/config"
	"murmur/internal/database"
	"murmur/internal/observability"
	"murmur/internal/storage"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// RequireRedis fails initialization when redis is unreachable instead of
	// running without it.
	RequireRedis bool
	// SkipStorage leaves Objects nil without trying to reach the bucket.
	SkipStorage bool
}

// Runtime holds the connected dependencies. Redis and Objects may be nil.
type Runtime struct {
	DB      *gorm.DB
	Redis   *redis.Client
	Objects *storage.S3Presigner
}

// InitRuntime connects to the database, redis and object storage.
func InitRuntime(cfg *config.Config, opts Options) (*Runtime, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}
	rt := &Runtime{DB: db}

	// InitRedis leaves a nil client when redis is unreachable.
	cache.InitRedis(cfg.RedisURL)
	rt.Redis = cache.GetClient()
	if rt.Redis == nil && opts.RequireRedis {
		_ = rt.Close()
		return nil, fmt.Errorf("redis unavailable at %s", cfg.RedisURL)
	}

	if !opts.SkipStorage {
		objects, err := storage.New(cfg)
		if err != nil {
			observability.Logger.Warn("object storage disabled", slog.String("error", err.Error()))
		} else {
			rt.Objects = objects
		}
	}

	return rt, nil
}

// Close releases the database and redis connections.
func (rt *Runtime) Close() error {
	var errs []error
	if rt.DB != nil {
		if sqlDB, err := rt.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	if rt.Redis != nil {
		errs = append(errs, rt.Redis.Close())
	}
	return errors.Join(errs...)
}

// Ping checks the database and, when present, redis.
func (rt *Runtime) Ping(ctx context.Context) error {
	sqlDB, err := rt.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if rt.Redis != nil {
		if err := rt.Redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	return nil
}
