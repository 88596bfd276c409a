package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/nollidnosnhoj/ggpx/internal/config"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Store is a byte-oriented key/value cache with optional per-key expiry.
// A ttl of zero stores the value without expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// GetJSON reads key and decodes it into T. Absence is reported as ErrMiss so
// stored falsy values stay distinguishable from missing ones.
func GetJSON[T any](ctx context.Context, store Store, key string) (T, error) {
	var out T
	raw, err := store.Get(ctx, key)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("failed to unmarshal JSON from cache: %w", err)
	}
	return out, nil
}

// SetJSON encodes value as JSON and stores it under key.
func SetJSON[T any](ctx context.Context, store Store, key string, value T, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON for cache: %w", err)
	}
	return store.Set(ctx, key, raw, ttl)
}

// New builds the cache backend selected by CACHE_BACKEND.
func New(cfg *config.Config, log zerolog.Logger) (Store, error) {
	switch cfg.CacheBackend {
	case "memory":
		log.Info().Int("size", cfg.MemoryCacheSize).Msg("using in-memory cache")
		return NewMemoryCache(cfg.MemoryCacheSize)
	default:
		return NewRedisCache(RedisOptions{
			Addr:     cfg.RedisAddr(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, log)
	}
}
