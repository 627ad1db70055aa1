package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/wichananm65/signup-wizard/internal/user"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Addr             string
	Driver           string
	DatabaseURL      string
	SQLitePath       string
	ClientStepPolicy user.ClientStepPolicy
	AllowedOrigins   string
	LogLevel         string
}

// Load reads configuration from environment variables.
func Load() (Config, error) {
	addr := os.Getenv("SIGNUP_ADDR")
	if addr == "" {
		if port := os.Getenv("PORT"); port != "" {
			addr = ":" + port
		} else {
			addr = ":8080"
		}
	}

	cfg := Config{
		Addr:           addr,
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		SQLitePath:     fallback(os.Getenv("SQLITE_PATH"), "signup.db"),
		AllowedOrigins: fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*"),
		LogLevel:       fallback(os.Getenv("LOG_LEVEL"), "info"),
	}

	cfg.Driver = strings.ToLower(strings.TrimSpace(os.Getenv("STORE_DRIVER")))
	if cfg.Driver == "" {
		cfg.Driver = DriverMemory
		if cfg.DatabaseURL != "" {
			cfg.Driver = DriverPostgres
		}
	}
	switch cfg.Driver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, errors.New("DATABASE_URL is not set")
		}
	default:
		return Config{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Driver)
	}

	policy, err := user.ParseClientStepPolicy(os.Getenv("CLIENT_STEP_POLICY"))
	if err != nil {
		return Config{}, err
	}
	cfg.ClientStepPolicy = policy

	return cfg, nil
}

func fallback(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
