// Package config reads service configuration from the environment. A .env
// file, when present, is loaded by the binary before Load is called.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/govalues/money"

	"github.com/tinoosan/budget/internal/ledger"
	"github.com/tinoosan/budget/internal/migration"
)

// Backends accepted by DATA_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

type Config struct {
	// HTTP Server
	Port string
	// APIToken, when set, is required as a bearer token on /v1 routes
	APIToken string

	// Logging
	LogLevel  string
	LogFormat string

	// Book
	Currency    string
	Timezone    string
	CarryPolicy string
	SeedFile    string

	ReassignDuplicateExpenses bool

	// Storage
	DataBackend string
	DatabaseURL string
	SQLitePath  string

	// AMQP audit publishing; disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

func Load() *Config {
	cfg := &Config{
		Port:      getEnv("PORT", "8080"),
		APIToken:  getEnv("API_TOKEN", ""),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		Currency:    strings.ToUpper(getEnv("CURRENCY", "USD")),
		Timezone:    getEnv("TIMEZONE", "UTC"),
		CarryPolicy: getEnv("CARRY_POLICY", string(ledger.CarryAfterPercent)),
		SeedFile:    getEnv("SEED_FILE", ""),

		ReassignDuplicateExpenses: getEnvBool("REASSIGN_DUPLICATE_EXPENSES", false),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("SQLITE_PATH", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "budget"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "budget.carry_events"),
	}
	cfg.DataBackend = getEnv("DATA_BACKEND", cfg.inferBackend())
	return cfg
}

// inferBackend picks postgres or sqlite when their location is configured.
func (c *Config) inferBackend() string {
	switch {
	case c.DatabaseURL != "":
		return BackendPostgres
	case c.SQLitePath != "":
		return BackendSQLite
	}
	return BackendMemory
}

// Validate validates the configuration and returns an error listing every problem.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be debug, info, warn or error", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be json or text", c.LogFormat))
	}

	if _, err := money.ParseCurr(c.Currency); err != nil {
		errors = append(errors, fmt.Sprintf("invalid currency '%s': %v", c.Currency, err))
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}
	if !ledger.CarryPolicy(c.CarryPolicy).Valid() {
		errors = append(errors, fmt.Sprintf("invalid carry policy '%s': must be carry_after, carry_before or carry_none", c.CarryPolicy))
	}
	if c.SeedFile != "" {
		if _, err := os.Stat(c.SeedFile); err != nil {
			errors = append(errors, fmt.Sprintf("seed file not readable: %v", err))
		}
	}

	switch c.DataBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			errors = append(errors, "SQLITE_PATH is required when using sqlite backend")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of [memory postgres sqlite]", c.DataBackend))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// Curr returns the parsed book currency. Call Validate first.
func (c *Config) Curr() money.Currency {
	curr, err := money.ParseCurr(c.Currency)
	if err != nil {
		return money.USD
	}
	return curr
}

// Location returns the configured time zone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Policy returns the configured carry policy.
func (c *Config) Policy() ledger.CarryPolicy { return ledger.CarryPolicy(c.CarryPolicy) }

// Seed returns the categories used on a fresh book: the SEED_FILE contents
// when set, otherwise nil (the built-in default list).
func (c *Config) Seed() ([]migration.SeedCategory, error) {
	if c.SeedFile == "" {
		return nil, nil
	}
	return migration.LoadSeedFile(c.SeedFile)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
