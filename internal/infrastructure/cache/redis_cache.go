package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisOptions selects the redis deployment. Addr may hold a comma separated
// list of host:port pairs or redis:// URLs for cluster deployments.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

type RedisCache struct {
	client redis.UniversalClient
	rs     *redsync.Redsync
	log    zerolog.Logger
}

func NewRedisCache(opts RedisOptions, log zerolog.Logger) (*RedisCache, error) {
	logger := log.With().Str("component", "redis-cache").Logger()

	universal, err := buildUniversalOptions(opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis address: %w", err)
	}
	if universal.Password == "" {
		universal.Password = opts.Password
	}
	if universal.DB == 0 {
		universal.DB = opts.DB
	}
	if len(universal.Addrs) > 1 && universal.DB != 0 {
		logger.Warn().Msg("ignoring non-zero DB when using redis cluster configuration")
		universal.DB = 0
	}

	client := redis.NewUniversalClient(universal)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info().Strs("addrs", universal.Addrs).Msg("connected to redis cache")
	return &RedisCache{
		client: client,
		rs:     redsync.New(goredis.NewPool(client)),
		log:    logger,
	}, nil
}

func buildUniversalOptions(raw string) (*redis.UniversalOptions, error) {
	opts := &redis.UniversalOptions{}

	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if !strings.Contains(part, "://") {
			opts.Addrs = append(opts.Addrs, part)
			continue
		}

		parsed, err := redis.ParseURL(part)
		if err != nil {
			return nil, err
		}
		opts.Addrs = append(opts.Addrs, parsed.Addr)
		if opts.Username == "" {
			opts.Username = parsed.Username
		}
		if opts.Password == "" {
			opts.Password = parsed.Password
		}
		if opts.DB == 0 {
			opts.DB = parsed.DB
		}
		if opts.TLSConfig == nil {
			opts.TLSConfig = parsed.TLSConfig
		}
	}

	if len(opts.Addrs) == 0 {
		return nil, fmt.Errorf("no redis addresses provided")
	}
	return opts, nil
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("failed to get value from cache: %w", err)
	}
	return val, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set value in cache: %w", err)
	}
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

func (r *RedisCache) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// WithLock runs fn while holding a cluster-wide redsync mutex. It returns
// redsync.ErrFailed when another holder owns the lock.
func (r *RedisCache) WithLock(ctx context.Context, name string, ttl time.Duration, fn func(ctx context.Context) error) error {
	mutex := r.rs.NewMutex(name, redsync.WithExpiry(ttl), redsync.WithTries(1))
	if err := mutex.LockContext(ctx); err != nil {
		return err
	}
	defer func() {
		if _, err := mutex.UnlockContext(context.WithoutCancel(ctx)); err != nil {
			r.log.Error().Err(err).Str("lock", name).Msg("failed to unlock mutex")
		}
	}()
	return fn(ctx)
}
