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

	applog "ledger/internal/log"
)

type Config struct {
	// Storage backend: file, sqlite or memory
	DataBackend string

	// JSON account file
	AccountFile string

	// Database
	SQLiteDBPath string

	// AMQP (optional balance-changed events)
	AMQPURL            string
	AMQPExchange       string
	AMQPQueue          string
	AMQPPublishTimeout time.Duration

	// Logging
	LogLevel string

	// Print a warning in the menu when a save fails
	ReportSaveFailures bool
}

var validBackends = []string{"file", "sqlite", "memory"}

func Load() *Config {
	cfg := &Config{
		DataBackend: getEnv("DATA_BACKEND", "file"),
		AccountFile: getEnv("ACCOUNT_FILE", "account.json"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/ledger.db"),

		AMQPURL:            getEnv("AMQP_URL", ""),
		AMQPExchange:       getEnv("AMQP_EXCHANGE", "ledger"),
		AMQPQueue:          getEnv("AMQP_QUEUE", "balance_events"),
		AMQPPublishTimeout: getEnvDuration("AMQP_PUBLISH_TIMEOUT", 5*time.Second),

		LogLevel: getEnv("LOG_LEVEL", "warn"),

		ReportSaveFailures: getEnvBool("REPORT_SAVE_FAILURES", false),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "file" {
		if strings.TrimSpace(c.AccountFile) == "" {
			errors = append(errors, "account file path cannot be empty when using file backend")
		} else if info, err := os.Stat(c.AccountFile); err == nil && info.IsDir() {
			errors = append(errors, fmt.Sprintf("account file '%s' is a directory", c.AccountFile))
		}
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			// Check if directory exists or can be created
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// AMQP is optional; validate only when a URL is provided
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
		if c.AMQPPublishTimeout < 100*time.Millisecond {
			errors = append(errors, fmt.Sprintf("invalid AMQP publish timeout %v: must be at least 100ms", c.AMQPPublishTimeout))
		} else if c.AMQPPublishTimeout > time.Minute {
			errors = append(errors, fmt.Sprintf("invalid AMQP publish timeout %v: must be at most 1 minute", c.AMQPPublishTimeout))
		}
	}

	if _, err := applog.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
