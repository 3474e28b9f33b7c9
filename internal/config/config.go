package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPAddr          = ":8080"
	defaultDatabaseURL       = "leadcompass.db"
	defaultJWTSecret         = "change-me-jwt-secret"
	defaultJWTAccessTTL      = "12h"
	defaultLogLevel          = "info"
	defaultActivityWindow    = "3h"
	defaultActivitySweepSpec = "@every 10m"
	defaultImportBatchSize   = "50"
	defaultLeadFetchTimeout  = "15s"
	defaultLoginRatePerMin   = "10"
	defaultLoginBurst        = "5"
)

type Config struct {
	AppEnv             string
	HTTPAddr           string
	DatabaseURL        string
	JWTSecret          string
	JWTAccessTTL       time.Duration
	LogLevel           string
	ActivityWindow     time.Duration
	ActivitySweepSpec  string
	ImportBatchSize    int
	LeadFetchTimeout   time.Duration
	CORSAllowedOrigins []string
	DBLogSQL           bool
	LoginRatePerMinute int
	LoginBurst         int
}

// Load reads the process environment. Call godotenv.Load before it to pick up a .env file.
func Load() (*Config, error) {
	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", defaultLogLevel)))
	cfg.ActivitySweepSpec = strings.TrimSpace(getEnv("ACTIVITY_SWEEP_SPEC", defaultActivitySweepSpec))
	cfg.DBLogSQL = parseBoolEnv("DB_LOG_SQL", "false")

	var err error
	cfg.JWTAccessTTL, err = parseDurationEnv("JWT_ACCESS_TTL", defaultJWTAccessTTL)
	if err != nil {
		return nil, err
	}

	cfg.ActivityWindow, err = parseDurationEnv("ACTIVITY_WINDOW", defaultActivityWindow)
	if err != nil {
		return nil, err
	}

	cfg.LeadFetchTimeout, err = parseDurationEnv("LEAD_FETCH_TIMEOUT", defaultLeadFetchTimeout)
	if err != nil {
		return nil, err
	}

	cfg.ImportBatchSize, err = parseIntEnv("IMPORT_BATCH_SIZE", defaultImportBatchSize)
	if err != nil {
		return nil, err
	}

	cfg.LoginRatePerMinute, err = parseIntEnv("LOGIN_RATE_PER_MINUTE", defaultLoginRatePerMin)
	if err != nil {
		return nil, err
	}

	cfg.LoginBurst, err = parseIntEnv("LOGIN_BURST", defaultLoginBurst)
	if err != nil {
		return nil, err
	}

	if extra := os.Getenv("CORS_ALLOWED_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validateConfig(cfg *Config) error {
	if cfg.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}
	if cfg.JWTAccessTTL <= 0 {
		return fmt.Errorf("JWT_ACCESS_TTL must be > 0")
	}
	if cfg.ActivityWindow <= 0 {
		return fmt.Errorf("ACTIVITY_WINDOW must be > 0")
	}
	if cfg.LeadFetchTimeout <= 0 {
		return fmt.Errorf("LEAD_FETCH_TIMEOUT must be > 0")
	}
	if cfg.ImportBatchSize <= 0 {
		return fmt.Errorf("IMPORT_BATCH_SIZE must be > 0")
	}
	if cfg.LoginRatePerMinute <= 0 || cfg.LoginBurst <= 0 {
		return fmt.Errorf("LOGIN_RATE_PER_MINUTE and LOGIN_BURST must be > 0")
	}
	if cfg.ActivitySweepSpec == "" {
		return fmt.Errorf("ACTIVITY_SWEEP_SPEC must not be empty")
	}

	if IsProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
	}

	return nil
}

func IsProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
