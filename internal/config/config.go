// Package config loads runtime settings from the environment, with an
// optional .env file read first.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	DatabaseURL    string
	StoreDriver    string
	ServerPort     string
	AllowedOrigins string
	JWTSecret      string
	TokenTTL       time.Duration
	AMQPURL        string
	AMQPExchange   string
	LogMode        string
	LogLevel       string
	LogFile        string
	Timezone       string
	JobsEnabled    bool
	DefaultCompany string // COMPANY_CODE; used by the CLI when no --company flag is given
}

// Load reads .env files (missing files are ignored) and then the environment.
func Load(files ...string) (*Config, error) {
	_ = godotenv.Load(files...)

	cfg := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		StoreDriver:    getenv("STORE_DRIVER", DriverPostgres),
		ServerPort:     getenv("SERVER_PORT", "8080"),
		AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AMQPURL:        os.Getenv("AMQP_URL"),
		AMQPExchange:   getenv("AMQP_EXCHANGE", "retail.events"),
		LogMode:        getenv("LOG_MODE", "development"),
		LogLevel:       os.Getenv("LOG_LEVEL"),
		LogFile:        os.Getenv("LOG_FILE"),
		Timezone:       getenv("TIMEZONE", "UTC"),
		DefaultCompany: os.Getenv("COMPANY_CODE"),
		TokenTTL:       24 * time.Hour,
	}

	if v := os.Getenv("TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid TOKEN_TTL %q: %w", v, err)
		}
		cfg.TokenTTL = d
	}

	cfg.JobsEnabled = true
	if v := os.Getenv("JOBS_ENABLED"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid JOBS_ENABLED %q: %w", v, err)
		}
		cfg.JobsEnabled = b
	}

	cfg.StoreDriver = strings.ToLower(cfg.StoreDriver)
	switch cfg.StoreDriver {
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable not set")
		}
	case DriverMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q (want postgres or memory)", cfg.StoreDriver)
	}

	return cfg, nil
}

// Location resolves Timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
