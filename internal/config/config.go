package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Backend selection: "rest", "sqlite" or "memory"
	DataBackend string

	// Remote store + identity (rest backend). StoreURL and
	// StoreAnonKey are mandatory for the rest backend; startup aborts
	// without them.
	StoreURL        string
	StoreAnonKey    string
	ServiceRoleKey  string
	OAuthRedirectTo string

	// SQLite (self-hosted backend)
	SQLiteDBPath string

	// AMQP donation mirror channel
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets donation mirror
	MirrorSpreadsheetID string
	MirrorSheetName     string

	// Worker
	MirrorBatchSize int
	MirrorInterval  time.Duration
}

func Load() *Config {
	return &Config{
		Port:        getEnv("PORT", "8080"),
		DataBackend: getEnv("DATA_BACKEND", "rest"),

		StoreURL:        getEnv("STORE_URL", ""),
		StoreAnonKey:    getEnv("STORE_ANON_KEY", ""),
		ServiceRoleKey:  getEnv("STORE_SERVICE_ROLE_KEY", ""),
		OAuthRedirectTo: getEnv("OAUTH_REDIRECT_TO", ""),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/fintrack.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fintrack"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "donation_mirror"),

		MirrorSpreadsheetID: getEnv("MIRROR_SPREADSHEET_ID", ""),
		MirrorSheetName:     getEnv("MIRROR_SHEET_NAME", "Donations"),

		MirrorBatchSize: getEnvInt("MIRROR_BATCH_SIZE", 10),
		MirrorInterval:  getEnvDuration("MIRROR_INTERVAL", 30*time.Second),
	}
}

// Validate validates the configuration and returns an error if invalid.
// A missing store URL or key under the rest backend is a fatal startup
// condition, not something to degrade around.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case "rest":
		if c.StoreURL == "" {
			errs = append(errs, "STORE_URL is required for the rest backend")
		} else if parsed, err := url.Parse(c.StoreURL); err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			errs = append(errs, fmt.Sprintf("invalid store URL '%s': must be http(s)", c.StoreURL))
		}
		if c.StoreAnonKey == "" {
			errs = append(errs, "STORE_ANON_KEY is required for the rest backend")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	case "memory":
		// No further requirements.
	default:
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of [rest sqlite memory]", c.DataBackend))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.MirrorBatchSize < 1 {
		errs = append(errs, fmt.Sprintf("invalid mirror batch size %d: must be at least 1", c.MirrorBatchSize))
	} else if c.MirrorBatchSize > 1000 {
		errs = append(errs, fmt.Sprintf("invalid mirror batch size %d: must be at most 1000", c.MirrorBatchSize))
	}

	if c.MirrorInterval < time.Second {
		errs = append(errs, fmt.Sprintf("invalid mirror interval %v: must be at least 1 second", c.MirrorInterval))
	} else if c.MirrorInterval > 24*time.Hour {
		errs = append(errs, fmt.Sprintf("invalid mirror interval %v: must be at most 24 hours", c.MirrorInterval))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
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
