package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/flash-wallet/flash_ledger/internal/fees"
	"github.com/flash-wallet/flash_ledger/internal/money"
)

const (
	defaultAppName         = "flash_ledger"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultLockTTL         = 30 * time.Second
	defaultKafkaTopic      = "ledger.entry_posted"
	defaultWebhookRate     = 120
	defaultFeeMethod       = "flat"
	defaultDaysLookback    = 30
	idemTTLSecondsEnvVar   = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar       = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
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
	LockTTL        time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	// WebhookSecretHash is the bcrypt hash of the shared webhook secret.
	WebhookSecretHash    string
	WebhookRatePerMinute int

	FlashWalletID     string
	BankOwnerWalletID string
	JMDSellRate       money.Amount[money.JMD]

	WithdrawFee fees.Config
}

// Load reads an optional .env file, then configuration values from the
// environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppName:           getEnv("APP_NAME", defaultAppName),
		AppEnv:            getEnv("APP_ENV", defaultAppEnv),
		Port:              getEnv("PORT", defaultPort),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		ShutdownPeriod:    defaultShutdownDelay,
		IdempotencyTTL:    defaultIdempotencyTTL,
		LockTTL:           defaultLockTTL,
		KafkaTopic:        getEnv("KAFKA_TOPIC", defaultKafkaTopic),
		WebhookSecretHash: os.Getenv("WEBHOOK_SECRET_HASH"),
		FlashWalletID:     os.Getenv("FLASH_WALLET_ID"),
		BankOwnerWalletID: os.Getenv("BANK_OWNER_WALLET_ID"),
	}

	var err error
	if cfg.ShutdownPeriod, err = duration(shutdownSecondsEnvVar, shutdownDurationEnvVar, cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = duration(idemTTLSecondsEnvVar, idemTTLDurEnvVar, cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("LOCK_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOCK_TTL: %w", err)
		}
		cfg.LockTTL = d
	}

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	if cfg.WebhookRatePerMinute, err = intEnv("WEBHOOK_RATE_PER_MINUTE", defaultWebhookRate); err != nil {
		return Config{}, err
	}

	rate, err := money.JMDDollars(getEnv("JMD_SELL_RATE", "160"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid JMD_SELL_RATE: %w", err)
	}
	if !rate.IsPositive() {
		return Config{}, fmt.Errorf("JMD_SELL_RATE must be positive")
	}
	cfg.JMDSellRate = rate

	method, err := fees.ParseMethod(getEnv("WITHDRAW_FEE_METHOD", defaultFeeMethod))
	if err != nil {
		return Config{}, err
	}
	days, err := intEnv("WITHDRAW_DAYS_LOOKBACK", defaultDaysLookback)
	if err != nil {
		return Config{}, err
	}
	if days <= 0 {
		return Config{}, fmt.Errorf("WITHDRAW_DAYS_LOOKBACK must be positive")
	}
	cfg.WithdrawFee = fees.Config{Method: method, DaysLookback: days}

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set")
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set")
		}
		if cfg.FlashWalletID == "" || cfg.BankOwnerWalletID == "" {
			return Config{}, fmt.Errorf("FLASH_WALLET_ID and BANK_OWNER_WALLET_ID must be set")
		}
		if cfg.WebhookSecretHash == "" {
			return Config{}, fmt.Errorf("WEBHOOK_SECRET_HASH must be set")
		}
	}
	if cfg.FlashWalletID == "" {
		cfg.FlashWalletID = "flash"
	}
	if cfg.BankOwnerWalletID == "" {
		cfg.BankOwnerWalletID = "bank-owner"
	}

	return cfg, nil
}

// IsDev reports whether the app runs in a local environment, where missing
// backing services fall back to in-memory implementations.
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

// duration prefers the integer-seconds variable over the Go duration one.
func duration(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(secondsKey); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(durationKey); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationKey, err)
		}
		return d, nil
	}
	return fallback, nil
}
