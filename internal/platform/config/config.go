package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"

	IdempotencyMemory   = "memory"
	IdempotencyRedis    = "redis"
	IdempotencyPostgres = "postgres"

	BusNone   = "none"
	BusMemory = "memory"
	BusAMQP   = "amqp"
)

// Config is the process configuration, read from the environment.
type Config struct {
	Port     string
	LogLevel string
	// LogFormat is "text" or "json".
	LogFormat string

	StorageBackend string
	DatabaseURL    string
	// AutoMigrate applies embedded migrations at startup (postgres only).
	AutoMigrate bool

	IdempotencyBackend string
	RedisURL           string
	IdempotencyTTL     time.Duration

	EventBus     string
	AMQPURL      string
	AMQPExchange string

	DuesRatePerMember decimal.Decimal
	// DuesRateCouple is nil when couples pay PerMember×2.
	DuesRateCouple *decimal.Decimal

	// ReminderSchedule is a cron spec; empty disables the arrears reminder.
	ReminderSchedule string

	// TimeZone names the IANA zone whose calendar decides reference months.
	TimeZone string

	// DefaultOperator is used when a request carries no X-Operator-ID. Empty rejects such requests.
	DefaultOperator string

	ShutdownTimeout time.Duration
}

func Default() Config {
	return Config{
		Port:               "8080",
		LogLevel:           "info",
		LogFormat:          "text",
		StorageBackend:     StorageMemory,
		AutoMigrate:        true,
		IdempotencyBackend: IdempotencyMemory,
		IdempotencyTTL:     24 * time.Hour,
		EventBus:           BusNone,
		AMQPExchange:       "treasury.events",
		DuesRatePerMember:  decimal.RequireFromString("15.00"),
		ShutdownTimeout:    10 * time.Second,
		TimeZone:           "UTC",
	}
}

// Load reads the process environment. Call godotenv first if a .env file should apply.
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads configuration through getenv and validates it. Every parse and
// validation problem is reported together.
func LoadFrom(getenv func(string) string) (Config, error) {
	cfg := Default()
	var errs []error

	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	str("PORT", &cfg.Port)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("LOG_FORMAT", &cfg.LogFormat)
	str("STORAGE_BACKEND", &cfg.StorageBackend)
	str("DATABASE_URL", &cfg.DatabaseURL)
	str("IDEMPOTENCY_BACKEND", &cfg.IdempotencyBackend)
	str("REDIS_URL", &cfg.RedisURL)
	str("EVENT_BUS", &cfg.EventBus)
	str("AMQP_URL", &cfg.AMQPURL)
	str("AMQP_EXCHANGE", &cfg.AMQPExchange)
	str("REMINDER_SCHEDULE", &cfg.ReminderSchedule)
	str("DEFAULT_OPERATOR", &cfg.DefaultOperator)
	str("TIMEZONE", &cfg.TimeZone)

	if v := getenv("AUTO_MIGRATE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("AUTO_MIGRATE must be a boolean: %w", err))
		}
		cfg.AutoMigrate = b
	}
	if v := getenv("IDEMPOTENCY_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("IDEMPOTENCY_TTL must be a duration (e.g. 24h): %w", err))
		}
		cfg.IdempotencyTTL = d
	}
	if v := getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("SHUTDOWN_TIMEOUT must be a duration (e.g. 10s): %w", err))
		}
		cfg.ShutdownTimeout = d
	}
	if v := getenv("DUES_RATE_PER_MEMBER"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("DUES_RATE_PER_MEMBER must be a decimal amount: %w", err))
		}
		cfg.DuesRatePerMember = d
	}
	if v := getenv("DUES_RATE_COUPLE"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("DUES_RATE_COUPLE must be a decimal amount: %w", err))
		} else {
			cfg.DuesRateCouple = &d
		}
	}

	if err := cfg.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	switch c.StorageBackend {
	case StorageMemory:
	case StoragePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when STORAGE_BACKEND=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_BACKEND must be memory or postgres, got %q", c.StorageBackend))
	}

	switch c.IdempotencyBackend {
	case IdempotencyMemory:
	case IdempotencyRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when IDEMPOTENCY_BACKEND=redis"))
		}
	case IdempotencyPostgres:
		if c.StorageBackend != StoragePostgres {
			errs = append(errs, errors.New("IDEMPOTENCY_BACKEND=postgres requires STORAGE_BACKEND=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("IDEMPOTENCY_BACKEND must be memory, redis or postgres, got %q", c.IdempotencyBackend))
	}
	if c.IdempotencyTTL <= 0 {
		errs = append(errs, errors.New("IDEMPOTENCY_TTL must be positive"))
	}

	switch c.EventBus {
	case BusNone, BusMemory:
	case BusAMQP:
		if c.AMQPURL == "" {
			errs = append(errs, errors.New("AMQP_URL is required when EVENT_BUS=amqp"))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, errors.New("AMQP_EXCHANGE must be non-empty"))
		}
	default:
		errs = append(errs, fmt.Errorf("EVENT_BUS must be none, memory or amqp, got %q", c.EventBus))
	}

	if !c.DuesRatePerMember.IsPositive() {
		errs = append(errs, errors.New("DUES_RATE_PER_MEMBER must be greater than zero"))
	}
	if c.DuesRateCouple != nil && !c.DuesRateCouple.IsPositive() {
		errs = append(errs, errors.New("DUES_RATE_COUPLE must be greater than zero"))
	}
	if _, err := time.LoadLocation(c.TimeZone); err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE: %w", err))
	}
	if c.ReminderSchedule != "" {
		if _, err := cron.ParseStandard(c.ReminderSchedule); err != nil {
			errs = append(errs, fmt.Errorf("REMINDER_SCHEDULE: %w", err))
		}
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}
