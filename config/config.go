package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Env      string `env:"ENV"       envDefault:"local" validate:"required,oneof=local staging production"`
	Port     string `env:"PORT"      envDefault:"8080"  validate:"required"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"  validate:"oneof=debug info warn error"`

	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`
	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	JWTSecret       string        `env:"JWT_SECRET,required" validate:"required,min=32"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL"  envDefault:"15m"  validate:"min=1m,max=24h"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h" validate:"min=1h"`
	ConfirmTokenTTL time.Duration `env:"CONFIRM_TOKEN_TTL" envDefault:"24h"  validate:"min=1m"`
	ResetTokenTTL   time.Duration `env:"RESET_TOKEN_TTL"   envDefault:"1h"   validate:"min=1m"`
	BcryptCost      int           `env:"BCRYPT_COST"       envDefault:"12"   validate:"min=4,max=31"`

	UnconfirmedGrace time.Duration `env:"UNCONFIRMED_GRACE" envDefault:"72h"        validate:"min=1h"`
	SweepSchedule    string        `env:"SWEEP_SCHEDULE"    envDefault:"@every 1h" validate:"required"`

	ResendAPIKey string `env:"RESEND_API_KEY" validate:"required_if=Env production,required_if=Env staging"`
	ResendFrom   string `env:"RESEND_FROM"    validate:"required_if=Env production,required_if=Env staging"`
	AppBaseURL   string `env:"APP_BASE_URL"   envDefault:"http://localhost:5173" validate:"required,url"`

	CORSOrigins  []string `env:"CORS_ORIGINS"   envDefault:"http://localhost:5173" envSeparator:","`
	CookieDomain string   `env:"COOKIE_DOMAIN"`
	RateLimitRPS float64  `env:"RATE_LIMIT_RPS" envDefault:"5" validate:"gt=0"`
	LocalesDir   string   `env:"LOCALES_DIR"`

	S3Bucket        string `env:"S3_BUCKET"`
	S3Region        string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint      string `env:"S3_ENDPOINT"`
	S3AccessKey     string `env:"S3_ACCESS_KEY"     validate:"required_with=S3Bucket"`
	S3SecretKey     string `env:"S3_SECRET_KEY"     validate:"required_with=S3Bucket"`
	S3PublicBaseURL string `env:"S3_PUBLIC_BASE_URL" validate:"required_with=S3Bucket,omitempty,url"`

	GitHubClientID     string `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"GITHUB_CLIENT_SECRET" validate:"required_with=GitHubClientID"`
	GitHubCallbackURL  string `env:"GITHUB_CALLBACK_URL"  validate:"required_with=GitHubClientID,omitempty,url"`
}

// Load reads an optional .env file, then the process environment.
// Variables already set in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) AvatarUploadsEnabled() bool {
	return c.S3Bucket != ""
}

func (c *Config) GitHubEnabled() bool {
	return c.GitHubClientID != ""
}
