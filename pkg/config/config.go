package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App     AppConfig
	Backend BackendConfig
	Redis   RedisConfig
	Session SessionConfig
	Images  ImagesConfig
	Metrics MetricsConfig
	HTTP    HTTPConfig

	AuthRateLimit AuthRateLimitConfig
	Shoppers      ShoppersConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Backend.validate(); err != nil {
		return nil, err
	}
	if cfg.Shoppers.SweepInterval <= 0 || cfg.Shoppers.MaxIdle <= 0 {
		return nil, fmt.Errorf("%s and %s must be positive", EnvShoppersSweepInterval, EnvShoppersMaxIdle)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" default:"8090"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// BackendConfig points at the storefront REST API that owns pricing, stock and orders.
type BackendConfig struct {
	BaseURL      string        `envconfig:"STOREFRONT_BACKEND_BASE_URL" default:"http://localhost:8080/api"`
	ImageBaseURL string        `envconfig:"STOREFRONT_BACKEND_IMAGE_BASE_URL" default:"http://localhost:8080"`
	Timeout      time.Duration `envconfig:"STOREFRONT_BACKEND_TIMEOUT" default:"10s"`
}

func (b BackendConfig) validate() error {
	for name, raw := range map[string]string{
		EnvBackendBaseURL:  b.BaseURL,
		EnvBackendImageURL: b.ImageBaseURL,
	} {
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute url, got %q", name, raw)
		}
	}
	if b.Timeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvBackendTimeout)
	}
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR" default:"localhost:6379"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"3s"`
}

// SessionConfig controls how long persisted credentials survive.
type SessionConfig struct {
	TTL time.Duration `envconfig:"STOREFRONT_SESSION_TTL" default:"24h"`
}

type ImagesConfig struct {
	CacheTTL        time.Duration `envconfig:"STOREFRONT_IMAGES_CACHE_TTL" default:"1h"`
	PlaceholderHost string        `envconfig:"STOREFRONT_IMAGES_PLACEHOLDER_HOST" default:"https://placehold.co"`
}

type MetricsConfig struct {
	Enabled bool `envconfig:"STOREFRONT_METRICS_ENABLED" default:"true"`
}

// HTTPConfig tunes the gateway listener.
type HTTPConfig struct {
	AllowedOrigins  []string      `envconfig:"STOREFRONT_HTTP_ALLOWED_ORIGINS"`
	ReadTimeout     time.Duration `envconfig:"STOREFRONT_HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"STOREFRONT_HTTP_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"STOREFRONT_HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"STOREFRONT_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

// ShoppersConfig controls eviction of idle in-memory cart and wishlist state.
type ShoppersConfig struct {
	SweepInterval time.Duration `envconfig:"STOREFRONT_SHOPPERS_SWEEP_INTERVAL" default:"5m"`
	MaxIdle       time.Duration `envconfig:"STOREFRONT_SHOPPERS_MAX_IDLE" default:"1h"`
}
