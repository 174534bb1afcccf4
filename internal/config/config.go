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

	// Backend selection
	DataBackend string

	// SQLite
	SQLiteDBPath string

	// Appwrite
	AppwriteEndpoint     string
	AppwriteProjectID    string
	AppwriteDatabaseID   string
	AppwriteCollectionID string
	AppwriteBucketID     string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// View defaults
	PageSize int

	// Login verification
	LoginMaxAttempts int
	LoginRetryDelay  time.Duration

	// Record list cache
	ListCacheSize int
	ListCacheTTL  time.Duration
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8080"),

		DataBackend: getEnv("DATA_BACKEND", "memory"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/expensetracker.db"),

		AppwriteEndpoint:     getEnv("APPWRITE_ENDPOINT", ""),
		AppwriteProjectID:    getEnv("APPWRITE_PROJECT_ID", ""),
		AppwriteDatabaseID:   getEnv("APPWRITE_DATABASE_ID", ""),
		AppwriteCollectionID: getEnv("APPWRITE_COLLECTION_ID", ""),
		AppwriteBucketID:     getEnv("APPWRITE_BUCKET_ID", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "expensetracker"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "record_events"),

		PageSize: getEnvInt("PAGE_SIZE", 10),

		LoginMaxAttempts: getEnvInt("LOGIN_MAX_ATTEMPTS", 3),
		LoginRetryDelay:  getEnvDuration("LOGIN_RETRY_DELAY", 400*time.Millisecond),

		ListCacheSize: getEnvInt("LIST_CACHE_SIZE", 100),
		ListCacheTTL:  getEnvDuration("LIST_CACHE_TTL", 30*time.Second),
	}

	return cfg
}

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"memory", "appwrite", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
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

	if c.DataBackend == "appwrite" {
		if c.AppwriteEndpoint == "" {
			errors = append(errors, "Appwrite endpoint is required when using appwrite backend")
		}
		if c.AppwriteProjectID == "" {
			errors = append(errors, "Appwrite project ID is required when using appwrite backend")
		}
		if c.AppwriteDatabaseID == "" {
			errors = append(errors, "Appwrite database ID is required when using appwrite backend")
		}
		if c.AppwriteCollectionID == "" {
			errors = append(errors, "Appwrite collection ID is required when using appwrite backend")
		}
		if c.AppwriteBucketID == "" {
			errors = append(errors, "Appwrite bucket ID is required when using appwrite backend")
		}
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

	if c.PageSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid page size %d: must be at least 1", c.PageSize))
	} else if c.PageSize > 500 {
		errors = append(errors, fmt.Sprintf("invalid page size %d: must be at most 500", c.PageSize))
	}

	if c.LoginMaxAttempts < 1 {
		errors = append(errors, fmt.Sprintf("invalid login max attempts %d: must be at least 1", c.LoginMaxAttempts))
	}
	if c.LoginRetryDelay < 0 {
		errors = append(errors, fmt.Sprintf("invalid login retry delay %v: must not be negative", c.LoginRetryDelay))
	}

	if c.ListCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid list cache size %d: must be at least 1", c.ListCacheSize))
	}
	if c.ListCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid list cache TTL %v: must be at least 1 second", c.ListCacheTTL))
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
