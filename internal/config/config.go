package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP servers
	Port            string
	RecordStorePort string

	// Backend selection: where the dashboard reads and writes records
	DataBackend        string
	RecordStoreURL     string
	RecordStoreTimeout time.Duration

	// Database (sqlite backend and the reference record store)
	SQLiteDBPath string
	SeedFile     string

	// AMQP change feed, disabled when the URL is empty
	AMQPURL      string
	AMQPExchange string

	// Presentation
	Locale    string
	Timezone  string
	CreatedBy string

	// Logging
	LogLevel  string
	LogFormat string
}

var (
	validBackends   = []string{"http", "memory", "sqlite"}
	validLocales    = []string{"id", "en"}
	validLogFormats = []string{"text", "json"}
)

func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		RecordStorePort: getEnv("RECORD_STORE_PORT", "3001"),

		DataBackend:        getEnv("DATA_BACKEND", "http"),
		RecordStoreURL:     getEnv("RECORD_STORE_URL", "http://localhost:3001"),
		RecordStoreTimeout: getEnvDuration("RECORD_STORE_TIMEOUT", 10*time.Second),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/txdash.db"),
		SeedFile:     getEnv("SEED_FILE", "./data/seed.yaml"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "txdash"),

		Locale:    getEnv("DASHBOARD_LOCALE", "id"),
		Timezone:  getEnv("DASHBOARD_TIMEZONE", "Local"),
		CreatedBy: getEnv("CREATED_BY", "system"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	errors = append(errors, validatePort("port", c.Port)...)
	errors = append(errors, validatePort("record store port", c.RecordStorePort)...)

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "http" {
		if c.RecordStoreURL == "" {
			errors = append(errors, "record store URL cannot be empty when using http backend")
		} else if u, err := url.Parse(c.RecordStoreURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid record store URL '%s': %v", c.RecordStoreURL, err))
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid record store URL scheme '%s': must be 'http' or 'https'", u.Scheme))
		}
	}

	if c.RecordStoreTimeout < 100*time.Millisecond {
		errors = append(errors, fmt.Sprintf("invalid record store timeout %v: must be at least 100ms", c.RecordStoreTimeout))
	} else if c.RecordStoreTimeout > 5*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid record store timeout %v: must be at most 5 minutes", c.RecordStoreTimeout))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if err := ensureDir(c.SQLiteDBPath); err != nil {
			errors = append(errors, err.Error())
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
	}

	if !slices.Contains(validLocales, c.Locale) {
		errors = append(errors, fmt.Sprintf("invalid locale '%s': must be one of %v", c.Locale, validLocales))
	}
	if _, err := c.Location(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}
	if strings.TrimSpace(c.CreatedBy) == "" {
		errors = append(errors, "created-by stamp cannot be empty")
	}
	if !slices.Contains(validLogFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validLogFormats))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// Location resolves Timezone; "Local" and "" mean the process zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Addr is the dashboard listen address.
func (c *Config) Addr() string { return ":" + c.Port }

// RecordStoreAddr is the reference record store listen address.
func (c *Config) RecordStoreAddr() string { return ":" + c.RecordStorePort }

func validatePort(name, value string) []string {
	port, err := strconv.Atoi(value)
	if err != nil {
		return []string{fmt.Sprintf("invalid %s '%s': must be a number", name, value)}
	}
	if port < 1 || port > 65535 {
		return []string{fmt.Sprintf("invalid %s %d: must be between 1 and 65535", name, port)}
	}
	return nil
}

// ensureDir creates the parent directory of path if it does not exist.
func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("cannot create SQLite database directory '%s': %v", dir, err)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
