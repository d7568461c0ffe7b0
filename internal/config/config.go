package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Env         string
	HTTPPort    string
	DatabaseURL string
	LogLevel    string
	Migrate     bool

	JWTAccessSecret  string
	JWTRefreshSecret string
	JWTIssuer        string
	JWTAccessTTL     time.Duration
	JWTRefreshTTL    time.Duration

	RateRPS int

	RiskHighValueThreshold decimal.Decimal
	RiskMaxAttempts        int
	RiskTimezone           string

	SchedulerInterval time.Duration
	AuditWorkers      int

	OTLPEndpoint string
}

// Load reads the process environment, after applying a local .env if present.
func Load() (Config, error) {
	_ = godotenv.Load()

	var errs []error
	cfg := Config{
		Env:              get("APP_ENV", "dev"),
		HTTPPort:         get("HTTP_PORT", "8080"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		LogLevel:         os.Getenv("LOG_LEVEL"),
		Migrate:          get("APP_MIGRATE", "false") == "true",
		JWTAccessSecret:  get("JWT_ACCESS_SECRET", "changeme-access"),
		JWTRefreshSecret: get("JWT_REFRESH_SECRET", "changeme-refresh"),
		JWTIssuer:        get("JWT_ISSUER", "payments-core"),
		RiskTimezone:     get("RISK_TIMEZONE", "UTC"),
		OTLPEndpoint:     os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}

	cfg.JWTAccessTTL = duration("JWT_ACCESS_TTL", 15*time.Minute, &errs)
	cfg.JWTRefreshTTL = duration("JWT_REFRESH_TTL", 7*24*time.Hour, &errs)
	cfg.SchedulerInterval = duration("SCHEDULER_INTERVAL", 30*time.Second, &errs)
	cfg.RateRPS = integer("RATE_LIMIT_RPS", 20, &errs)
	cfg.RiskMaxAttempts = integer("RISK_MAX_ATTEMPTS", 3, &errs)
	cfg.AuditWorkers = integer("AUDIT_WORKERS", 4, &errs)

	threshold, err := decimal.NewFromString(get("RISK_HIGH_VALUE_THRESHOLD", "300"))
	if err != nil {
		errs = append(errs, fmt.Errorf("RISK_HIGH_VALUE_THRESHOLD: %w", err))
	}
	cfg.RiskHighValueThreshold = threshold

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if !c.RiskHighValueThreshold.IsPositive() {
		errs = append(errs, errors.New("RISK_HIGH_VALUE_THRESHOLD must be > 0"))
	}
	if c.RiskMaxAttempts <= 0 {
		errs = append(errs, errors.New("RISK_MAX_ATTEMPTS must be > 0"))
	}
	if c.AuditWorkers <= 0 {
		errs = append(errs, errors.New("AUDIT_WORKERS must be > 0"))
	}
	if c.RateRPS <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS must be > 0"))
	}
	if c.SchedulerInterval <= 0 {
		errs = append(errs, errors.New("SCHEDULER_INTERVAL must be > 0"))
	}
	if c.JWTAccessTTL <= 0 || c.JWTRefreshTTL <= 0 {
		errs = append(errs, errors.New("JWT TTLs must be > 0"))
	}
	if _, err := time.LoadLocation(c.RiskTimezone); err != nil {
		errs = append(errs, fmt.Errorf("RISK_TIMEZONE: %w", err))
	}
	if c.Env == "prod" && c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required in prod"))
	}
	return errors.Join(errs...)
}

// Location resolves RiskTimezone; Validate has already rejected bad names.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.RiskTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c Config) IsProd() bool { return c.Env == "prod" }

func get(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func duration(key string, def time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}

func integer(key string, def int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}
