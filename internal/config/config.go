package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the environment driven configuration for the posts service.
type Config struct {
	// Service Configuration
	ServiceName     string        `env:"SERVICE_NAME" envDefault:"ggpx-api"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat       string        `env:"LOG_FORMAT" envDefault:"console"`
	EnableTracing   bool          `env:"ENABLE_TRACING" envDefault:"false"`
	OTLPEndpoint    string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	// Database
	DatabaseURL    string        `env:"DATABASE_URL,notEmpty"`
	DBMaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBMaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	DBConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`

	// Object storage
	S3Region       string `env:"AWS_REGION" envDefault:"us-east-1"`
	S3AccessKeyID  string `env:"AWS_ACCESS_KEY"`
	S3SecretKey    string `env:"AWS_SECRET_KEY"`
	S3Bucket       string `env:"UPLOAD_BUCKET"`
	S3Endpoint     string `env:"S3_ENDPOINT"`
	S3UsePathStyle bool   `env:"S3_USE_PATH_STYLE" envDefault:"false"`

	// Uploads
	UploadExpiration        time.Duration `env:"UPLOAD_EXPIRATION" envDefault:"300s"`
	VerifyUploadedImages    bool          `env:"VERIFY_UPLOADED_IMAGES" envDefault:"true"`
	UploadSweepEnabled      bool          `env:"UPLOAD_SWEEP_ENABLED" envDefault:"true"`
	UploadSweepIntervalMins int           `env:"UPLOAD_SWEEP_INTERVAL_MINUTES" envDefault:"15"`
	UploadOrphanTTL         time.Duration `env:"UPLOAD_ORPHAN_TTL" envDefault:"24h"`
	UploadSweepLockExpiry   time.Duration `env:"UPLOAD_SWEEP_LOCK_EXPIRY" envDefault:"5m"`

	// Cache
	CacheBackend    string `env:"CACHE_BACKEND" envDefault:"redis"` // Options: "redis" or "memory"
	RedisHost       string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort       int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword   string `env:"REDIS_PASSWORD"`
	RedisDB         int    `env:"REDIS_DB" envDefault:"0"`
	MemoryCacheSize int    `env:"MEMORY_CACHE_SIZE" envDefault:"1024"`

	// Game catalog
	TwitchClientID     string        `env:"TWITCH_CLIENT_ID"`
	TwitchClientSecret string        `env:"TWITCH_CLIENT_SECRET"`
	TwitchTokenURL     string        `env:"TWITCH_TOKEN_URL" envDefault:"https://id.twitch.tv/oauth2/token"`
	IGDBBaseURL        string        `env:"IGDB_BASE_URL" envDefault:"https://api.igdb.com/v4"`
	IGDBHTTPTimeout    time.Duration `env:"IGDB_HTTP_TIMEOUT" envDefault:"15s"`

	// Authentication
	AuthEnabled bool   `env:"AUTH_ENABLED" envDefault:"false"`
	AuthIssuer  string `env:"AUTH_ISSUER"`
	AuthJWKSURL string `env:"AUTH_JWKS_URL"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalize() error {
	c.S3Bucket = strings.TrimSpace(c.S3Bucket)
	c.S3AccessKeyID = strings.TrimSpace(c.S3AccessKeyID)
	c.S3SecretKey = strings.TrimSpace(c.S3SecretKey)
	c.S3Endpoint = strings.TrimSpace(c.S3Endpoint)
	c.TwitchClientID = strings.TrimSpace(c.TwitchClientID)
	c.TwitchClientSecret = strings.TrimSpace(c.TwitchClientSecret)
	c.CacheBackend = strings.ToLower(strings.TrimSpace(c.CacheBackend))

	if c.UploadExpiration <= 0 {
		c.UploadExpiration = 300 * time.Second
	}
	if c.UploadOrphanTTL < c.UploadExpiration {
		c.UploadOrphanTTL = c.UploadExpiration
	}
	if c.UploadSweepIntervalMins <= 0 {
		c.UploadSweepIntervalMins = 15
	}
	if c.MemoryCacheSize <= 0 {
		c.MemoryCacheSize = 1024
	}

	switch c.CacheBackend {
	case "", "redis":
		c.CacheBackend = "redis"
	case "memory":
	default:
		return fmt.Errorf("unsupported CACHE_BACKEND %q", c.CacheBackend)
	}

	if c.TwitchClientID == "" || c.TwitchClientSecret == "" {
		return fmt.Errorf("TWITCH_CLIENT_ID and TWITCH_CLIENT_SECRET are required")
	}
	if c.AuthEnabled {
		if strings.TrimSpace(c.AuthIssuer) == "" {
			return fmt.Errorf("AUTH_ISSUER is required when AUTH_ENABLED is true")
		}
		if strings.TrimSpace(c.AuthJWKSURL) == "" {
			return fmt.Errorf("AUTH_JWKS_URL is required when AUTH_ENABLED is true")
		}
	}
	return nil
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

// RedisAddr returns host:port for the redis cache.
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsRedisCache reports whether the shared redis cache backend is selected.
func (c *Config) IsRedisCache() bool {
	return c.CacheBackend == "redis"
}

// UploadSweepSchedule returns the crontab expression for the orphan sweep.
func (c *Config) UploadSweepSchedule() string {
	return fmt.Sprintf("*/%d * * * *", c.UploadSweepIntervalMins)
}
