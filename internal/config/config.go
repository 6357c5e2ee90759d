package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName        = "DompetPay"
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultShutdownDelay  = 10 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour

	defaultFraudCheckTimeout = 3 * time.Second
	defaultSettlementTimeout = 5 * time.Second
	defaultLedgerTimeout     = 5 * time.Second

	defaultAuditStream      = "stream:audit"
	defaultAuditQueueSize   = 256
	defaultAuditMaxAttempts = 3

	defaultTxRatePerMin = 30
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	// Fraud screening thresholds, in minor currency units.
	FraudSuspiciousThreshold int64
	FraudBlockThreshold      int64

	// Per-step deadlines for the transaction pipeline.
	FraudCheckTimeout time.Duration
	SettlementTimeout time.Duration
	LedgerTimeout     time.Duration

	AuditStream      string
	AuditQueueSize   int
	AuditMaxAttempts int

	TransactionRatePerMin int
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		ShutdownPeriod: defaultShutdownDelay,
		IdempotencyTTL: defaultIdempotencyTTL,

		FraudSuspiciousThreshold: 10_000_000,
		FraudBlockThreshold:      50_000_000,

		FraudCheckTimeout: defaultFraudCheckTimeout,
		SettlementTimeout: defaultSettlementTimeout,
		LedgerTimeout:     defaultLedgerTimeout,

		AuditStream:      getEnv("AUDIT_STREAM", defaultAuditStream),
		AuditQueueSize:   defaultAuditQueueSize,
		AuditMaxAttempts: defaultAuditMaxAttempts,

		TransactionRatePerMin: defaultTxRatePerMin,
	}

	var err error
	if cfg.ShutdownPeriod, err = durationEnv("SHUTDOWN_TIMEOUT", cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv("IDEMPOTENCY_TTL", cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.FraudCheckTimeout, err = durationEnv("FRAUD_CHECK_TIMEOUT", cfg.FraudCheckTimeout); err != nil {
		return Config{}, err
	}
	if cfg.SettlementTimeout, err = durationEnv("SETTLEMENT_TIMEOUT", cfg.SettlementTimeout); err != nil {
		return Config{}, err
	}
	if cfg.LedgerTimeout, err = durationEnv("LEDGER_TIMEOUT", cfg.LedgerTimeout); err != nil {
		return Config{}, err
	}

	if cfg.FraudSuspiciousThreshold, err = int64Env("FRAUD_SUSPICIOUS_THRESHOLD", cfg.FraudSuspiciousThreshold); err != nil {
		return Config{}, err
	}
	if cfg.FraudBlockThreshold, err = int64Env("FRAUD_BLOCK_THRESHOLD", cfg.FraudBlockThreshold); err != nil {
		return Config{}, err
	}
	if cfg.FraudSuspiciousThreshold <= 0 || cfg.FraudBlockThreshold <= cfg.FraudSuspiciousThreshold {
		return Config{}, fmt.Errorf("fraud thresholds must satisfy 0 < suspicious < block")
	}

	if cfg.AuditQueueSize, err = intEnv("AUDIT_QUEUE_SIZE", cfg.AuditQueueSize); err != nil {
		return Config{}, err
	}
	if cfg.AuditMaxAttempts, err = intEnv("AUDIT_MAX_ATTEMPTS", cfg.AuditMaxAttempts); err != nil {
		return Config{}, err
	}
	if cfg.TransactionRatePerMin, err = intEnv("TX_RATE_LIMIT_PER_MIN", cfg.TransactionRatePerMin); err != nil {
		return Config{}, err
	}

	// Memory backends are a dev convenience only.
	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}

	return cfg, nil
}

// IsDev reports whether the environment permits in-memory fallbacks.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// durationEnv reads KEY_SECONDS as an integer or KEY as a Go duration.
func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(key + "_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s_SECONDS: %w", key, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return d, nil
	}
	return fallback, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func int64Env(key string, fallback int64) (int64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
