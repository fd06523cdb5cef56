package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config contains application configuration loaded from the environment.
type Config struct {
	Environment     string        `env:"APP_ENV" envDefault:"development"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	HTTP            HTTP          `envPrefix:"HTTP_"`
	Database        Database      `envPrefix:"DATABASE_"`
	JWT             JWT           `envPrefix:"JWT_"`
	Auth            Auth          `envPrefix:"AUTH_"`
	Redis           Redis         `envPrefix:"REDIS_"`
	Cache           Cache         `envPrefix:"CACHE_"`
	RateLimit       RateLimit     `envPrefix:"RATE_LIMIT_"`
}

// HTTP contains HTTP server parameters.
type HTTP struct {
	Addr         string `env:"ADDR" envDefault:":3000"`
	AllowOrigins string `env:"ALLOW_ORIGINS" envDefault:"http://localhost:5173"`
}

// Database contains the SQLite database location.
type Database struct {
	Path string `env:"PATH" envDefault:"jobboard.db"`
}

// JWT contains token signing parameters. Both secrets are required.
type JWT struct {
	AccessSecret  string        `env:"ACCESS_SECRET,required,notEmpty"`
	RefreshSecret string        `env:"REFRESH_SECRET,required,notEmpty"`
	AccessTTL     time.Duration `env:"ACCESS_TTL" envDefault:"30m"`
	RefreshTTL    time.Duration `env:"REFRESH_TTL" envDefault:"336h"`
	Issuer        string        `env:"ISSUER" envDefault:"jobboard-auth"`
}

// Auth contains account policy parameters.
type Auth struct {
	BcryptCost           int           `env:"BCRYPT_COST" envDefault:"10"`
	RequireVerifiedEmail bool          `env:"REQUIRE_VERIFIED_EMAIL" envDefault:"false"`
	ResetTokenTTL        time.Duration `env:"RESET_TOKEN_TTL" envDefault:"10m"`
	InviteTTL            time.Duration `env:"INVITE_TTL" envDefault:"168h"`
	FrontendURL          string        `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`
}

// Redis contains Redis connection parameters. An empty Addr disables the
// identity cache and rate limiting.
type Redis struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// Cache contains identity cache parameters.
type Cache struct {
	TTL    time.Duration `env:"TTL" envDefault:"5m"`
	Prefix string        `env:"PREFIX" envDefault:"identity:"`
}

// RateLimit contains per-IP limits for credential endpoints.
type RateLimit struct {
	LoginRequests int           `env:"LOGIN_REQUESTS" envDefault:"10"`
	LoginWindow   time.Duration `env:"LOGIN_WINDOW" envDefault:"1m"`
	ResetRequests int           `env:"RESET_REQUESTS" envDefault:"5"`
	ResetWindow   time.Duration `env:"RESET_WINDOW" envDefault:"15m"`
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks constraints the struct tags cannot express.
func (c *Config) Validate() error {
	if c.JWT.AccessSecret == c.JWT.RefreshSecret {
		return errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}
	if c.JWT.RefreshTTL < c.JWT.AccessTTL {
		return errors.New("JWT_REFRESH_TTL must not be shorter than JWT_ACCESS_TTL")
	}
	return nil
}

// IsProduction reports whether cookies must be cross-site and secure.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// RedisEnabled reports whether a Redis address was configured.
func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}
