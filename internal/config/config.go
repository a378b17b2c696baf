package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type BillingProvider string

const (
	BillingProviderMock   BillingProvider = "mock"
	BillingProviderStripe BillingProvider = "stripe"
)

type RateLimitBackend string

const (
	RateLimitMemory RateLimitBackend = "memory"
	RateLimitRedis  RateLimitBackend = "redis"
)

// Config holds every runtime setting of the server and CLI.
type Config struct {
	Env      string
	Port     string
	LogLevel string

	DatabaseURL      string
	DatabaseAdminURL string
	DBMaxConns       int32

	JWTSecret  string
	JWTJWKSURL string
	JWTTTL     time.Duration

	Redis RedisConfig
	Minio MinioConfig
	SMTP  SMTPConfig

	Billing BillingConfig

	FrontendBaseURL  string
	RateLimitBackend RateLimitBackend
	PlanCatalogFile  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Enabled reports whether tenant buckets should be created.
func (m MinioConfig) Enabled() bool {
	return m.Endpoint != ""
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (s SMTPConfig) Enabled() bool {
	return s.Host != ""
}

type BillingConfig struct {
	Provider         BillingProvider
	TrialDays        int
	StripeAPIKey     string
	WebhookSecret    string
	WebhookTolerance time.Duration
	ProviderTimeout  time.Duration
}

func (b BillingConfig) IsMock() bool {
	return b.Provider == BillingProviderMock
}

// IsProduction reports whether development escape hatches must stay closed.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// IsDevelopment is true only when APP_ENV names development explicitly.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "dev"
}

// Load reads .env when present and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an environment lookup function.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	e := envReader{lookup: lookup}

	cfg := &Config{
		Env:              strings.ToLower(e.str("APP_ENV", "")),
		Port:             e.str("PORT", "8080"),
		LogLevel:         e.str("LOG_LEVEL", "info"),
		DatabaseURL:      e.str("DATABASE_URL", ""),
		DatabaseAdminURL: e.str("DATABASE_ADMIN_URL", ""),
		DBMaxConns:       int32(e.integer("DB_MAX_CONNS", 10)),
		JWTSecret:        e.str("JWT_SECRET", ""),
		JWTJWKSURL:       e.str("JWT_JWKS_URL", ""),
		JWTTTL:           e.duration("JWT_TTL", 12*time.Hour),
		Redis: RedisConfig{
			Addr:     e.str("REDIS_ADDR", "localhost:6379"),
			Password: e.str("REDIS_PASSWORD", ""),
			DB:       e.integer("REDIS_DB", 0),
		},
		Minio: MinioConfig{
			Endpoint:  e.str("MINIO_ENDPOINT", ""),
			AccessKey: e.str("MINIO_ACCESS_KEY", ""),
			SecretKey: e.str("MINIO_SECRET_KEY", ""),
			UseSSL:    e.boolean("MINIO_USE_SSL", false),
		},
		SMTP: SMTPConfig{
			Host:     e.str("SMTP_HOST", ""),
			Port:     e.integer("SMTP_PORT", 587),
			Username: e.str("SMTP_USERNAME", ""),
			Password: e.str("SMTP_PASSWORD", ""),
			From:     e.str("SMTP_FROM", "no-reply@reviso.app"),
		},
		Billing: BillingConfig{
			Provider:         BillingProvider(strings.ToLower(e.str("BILLING_PROVIDER", string(BillingProviderMock)))),
			TrialDays:        e.integer("TRIAL_DAYS", 14),
			StripeAPIKey:     e.str("STRIPE_API_KEY", ""),
			WebhookSecret:    e.str("STRIPE_WEBHOOK_SECRET", ""),
			WebhookTolerance: e.duration("STRIPE_WEBHOOK_TOLERANCE", 5*time.Minute),
			ProviderTimeout:  e.duration("STRIPE_TIMEOUT", 10*time.Second),
		},
		FrontendBaseURL:  strings.TrimRight(e.str("FRONTEND_BASE_URL", "http://localhost:5173"), "/"),
		RateLimitBackend: RateLimitBackend(strings.ToLower(e.str("RATE_LIMIT_BACKEND", string(RateLimitMemory)))),
		PlanCatalogFile:  e.str("PLAN_CATALOG_FILE", "plans.toml"),
	}
	if e.err != nil {
		return nil, e.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	switch c.Billing.Provider {
	case BillingProviderMock, BillingProviderStripe:
	default:
		return fmt.Errorf("BILLING_PROVIDER must be %q or %q, got %q", BillingProviderMock, BillingProviderStripe, c.Billing.Provider)
	}
	switch c.RateLimitBackend {
	case RateLimitMemory, RateLimitRedis:
	default:
		return fmt.Errorf("RATE_LIMIT_BACKEND must be %q or %q, got %q", RateLimitMemory, RateLimitRedis, c.RateLimitBackend)
	}
	if c.Billing.TrialDays < 0 {
		return errors.New("TRIAL_DAYS must not be negative")
	}
	if c.IsProduction() {
		if c.JWTSecret == "" && c.JWTJWKSURL == "" {
			return errors.New("JWT_SECRET or JWT_JWKS_URL is required in production")
		}
	}
	if c.Billing.WebhookSecret == "" && !c.IsDevelopment() {
		return errors.New("STRIPE_WEBHOOK_SECRET is required unless APP_ENV=development")
	}
	if c.Billing.Provider == BillingProviderStripe && c.Billing.StripeAPIKey == "" {
		return errors.New("STRIPE_API_KEY is required when BILLING_PROVIDER=stripe")
	}
	return nil
}

type envReader struct {
	lookup func(string) (string, bool)
	err    error
}

func (e *envReader) str(key, def string) string {
	if v, ok := e.lookup(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func (e *envReader) integer(key string, def int) int {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		e.fail(fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func (e *envReader) boolean(key string, def bool) bool {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		e.fail(fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	raw := e.str(key, "")
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		e.fail(fmt.Errorf("%s: %w", key, err))
		return def
	}
	return v
}

func (e *envReader) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}
