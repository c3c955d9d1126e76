package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/govalues/money"
)

func validConfig() Config {
	return Config{
		Port:        "8080",
		LogLevel:    "info",
		LogFormat:   "json",
		Currency:    "USD",
		Timezone:    "UTC",
		CarryPolicy: "carry_after",
		DataBackend: BackendMemory,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		wantErr     bool
		errorString string
	}{
		{name: "valid memory config", mutate: func(c *Config) {}},
		{name: "invalid port", mutate: func(c *Config) { c.Port = "abc" }, wantErr: true, errorString: "invalid port"},
		{name: "port out of range", mutate: func(c *Config) { c.Port = "70000" }, wantErr: true, errorString: "between 1 and 65535"},
		{name: "unknown currency", mutate: func(c *Config) { c.Currency = "ZZZ" }, wantErr: true, errorString: "invalid currency"},
		{name: "bad timezone", mutate: func(c *Config) { c.Timezone = "Mars/Olympus" }, wantErr: true, errorString: "invalid timezone"},
		{name: "bad carry policy", mutate: func(c *Config) { c.CarryPolicy = "sometimes" }, wantErr: true, errorString: "invalid carry policy"},
		{name: "postgres without url", mutate: func(c *Config) { c.DataBackend = BackendPostgres }, wantErr: true, errorString: "DATABASE_URL"},
		{name: "sqlite without path", mutate: func(c *Config) { c.DataBackend = BackendSQLite }, wantErr: true, errorString: "SQLITE_PATH"},
		{name: "unknown backend", mutate: func(c *Config) { c.DataBackend = "sheets" }, wantErr: true, errorString: "invalid data backend"},
		{name: "bad amqp scheme", mutate: func(c *Config) { c.AMQPURL = "http://localhost"; c.AMQPExchange = "x"; c.AMQPQueue = "q" }, wantErr: true, errorString: "AMQP URL scheme"},
		{name: "bad log format", mutate: func(c *Config) { c.LogFormat = "xml" }, wantErr: true, errorString: "invalid log format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				if err == nil || !strings.Contains(err.Error(), tt.errorString) {
					t.Fatalf("expected error containing %q, got %v", tt.errorString, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoad_DefaultsAndInference(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("CARRY_POLICY", "")
	t.Setenv("SEED_FILE", "")
	t.Setenv("AMQP_URL", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "b.db"))
	t.Setenv("DATA_BACKEND", "")
	t.Setenv("CURRENCY", "eur")
	t.Setenv("TIMEZONE", "Europe/Rome")
	t.Setenv("REASSIGN_DUPLICATE_EXPENSES", "true")
	c := Load()
	if c.DataBackend != BackendSQLite {
		t.Fatalf("backend = %s, want sqlite", c.DataBackend)
	}
	if c.Port != "8080" || c.CarryPolicy != "carry_after" || !c.ReassignDuplicateExpenses {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.Curr() != money.EUR {
		t.Fatalf("currency = %s", c.Curr())
	}
	now := time.Date(2025, 1, 31, 23, 30, 0, 0, time.UTC).In(c.Location())
	if now.Month() != time.February {
		t.Fatalf("timezone not applied: %s", now)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestSeed(t *testing.T) {
	c := validConfig()
	if seed, err := c.Seed(); err != nil || seed != nil {
		t.Fatalf("no seed file must select defaults: %v %v", seed, err)
	}
	path := filepath.Join(t.TempDir(), "seed.toml")
	if err := os.WriteFile(path, []byte("[[categories]]\nname = \"Books\"\ntype = \"fixed\"\nvalue = \"25\"\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	c.SeedFile = path
	seed, err := c.Seed()
	if err != nil || len(seed) != 1 || seed[0].Name != "Books" {
		t.Fatalf("seed: %+v err=%v", seed, err)
	}
}
