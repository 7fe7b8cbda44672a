package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Config carries all runtime settings, loaded from the environment.
type Config struct {
	// HTTP server
	Port            string
	ShutdownTimeout time.Duration

	// Storage. Empty DatabaseURL selects the in-memory backend.
	DatabaseURL string

	// Ledger
	Currency            string
	HistoryDefaultLimit int
	HistoryMaxLimit     int

	// Auth
	BcryptCost int

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment with defaults.
func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),

		Currency:            strings.ToUpper(getEnv("CURRENCY", "BRL")),
		HistoryDefaultLimit: getEnvInt("HISTORY_DEFAULT_LIMIT", 100),
		HistoryMaxLimit:     getEnvInt("HISTORY_MAX_LIMIT", 500),

		BcryptCost: getEnvInt("BCRYPT_COST", bcrypt.DefaultCost),

		LogLevel:  getEnv("LOG_LEVEL", "INFO"),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "json")),
	}
}

// Validate checks the configuration and returns an error describing every
// invalid field.
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		problems = append(problems, fmt.Sprintf("invalid port %q: must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		problems = append(problems, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if len(c.Currency) != 3 {
		problems = append(problems, fmt.Sprintf("invalid currency %q: expected a 3-letter ISO code", c.Currency))
	}

	if c.HistoryDefaultLimit < 1 {
		problems = append(problems, "history default limit must be >= 1")
	}
	if c.HistoryMaxLimit < c.HistoryDefaultLimit {
		problems = append(problems, "history max limit must be >= default limit")
	}

	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		problems = append(problems, fmt.Sprintf("bcrypt cost %d out of range [%d,%d]", c.BcryptCost, bcrypt.MinCost, bcrypt.MaxCost))
	}

	if c.LogFormat != "json" && c.LogFormat != "text" {
		problems = append(problems, fmt.Sprintf("invalid log format %q: must be json or text", c.LogFormat))
	}

	if len(problems) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
