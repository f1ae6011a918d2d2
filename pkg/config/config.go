// Package config provides configuration management for the ledger server and CLI.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers.
const (
	DriverBolt     = "bolt"
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Auth    AuthConfig
	Events  EventsConfig
	Debug   bool
	AppEnv  string
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Port string
	// ClientURL is the base URL of the web client, used in invitation links.
	ClientURL string
}

// StorageConfig represents storage backend configuration.
type StorageConfig struct {
	Driver      string
	DataDir     string
	DBPath      string
	DatabaseURL string
	UploadDir   string
}

// AuthConfig represents token and identity provider configuration.
type AuthConfig struct {
	JWTSecret         string
	TokenTTL          time.Duration
	GoogleUserInfoURL string
}

// EventsConfig represents domain event publishing configuration.
type EventsConfig struct {
	KafkaBrokers []string
	KafkaTopic   string
}

// Load loads configuration from environment variables.
// It automatically loads .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	// Load .env file
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	ttl, err := parseDurationEnv("JWT_TTL", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	driver := strings.ToLower(getEnvOrDefault("DB_DRIVER", DriverBolt))
	switch driver {
	case DriverBolt, DriverSQLite, DriverPostgres:
	default:
		return nil, fmt.Errorf("invalid DB_DRIVER: %s (expected %s, %s or %s)", driver, DriverBolt, DriverSQLite, DriverPostgres)
	}

	config := &Config{
		Server: ServerConfig{
			Port:      getEnvOrDefault("PORT", "8080"),
			ClientURL: getEnvOrDefault("CLIENT_URL", "http://localhost:3000"),
		},
		Storage: StorageConfig{
			Driver:      driver,
			DataDir:     getEnvOrDefault("DATA_DIR", "./data"),
			DBPath:      os.Getenv("DB_PATH"),
			DatabaseURL: os.Getenv("DATABASE_URL"),
			UploadDir:   os.Getenv("UPLOAD_DIR"),
		},
		Auth: AuthConfig{
			JWTSecret:         os.Getenv("JWT_SECRET"),
			TokenTTL:          ttl,
			GoogleUserInfoURL: os.Getenv("GOOGLE_USERINFO_URL"),
		},
		Events: EventsConfig{
			KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
			KafkaTopic:   getEnvOrDefault("KAFKA_TOPIC", "ledger-events"),
		},
		Debug:  os.Getenv("DEBUG") == "true",
		AppEnv: getEnvOrDefault("APP_ENV", "development"),
	}

	return config, nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Validate validates the configuration.
// It checks that every required key, given as a dotted path such as
// "auth.jwtSecret", is set, and reports all missing keys at once.
func (c *Config) Validate(required ...string) error {
	var missing []string

	for _, path := range required {
		var value string
		switch path {
		case "server.port":
			value = c.Server.Port
		case "server.clientUrl":
			value = c.Server.ClientURL
		case "storage.dataDir":
			value = c.Storage.DataDir
		case "storage.databaseUrl":
			value = c.Storage.DatabaseURL
		case "auth.jwtSecret":
			value = c.Auth.JWTSecret
		case "events.kafkaTopic":
			value = c.Events.KafkaTopic
		default:
			return fmt.Errorf("unknown configuration key: %s", path)
		}

		if value == "" {
			missing = append(missing, path)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}

	return nil
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDurationEnv parses a duration from an environment variable.
// Returns defaultValue if the environment variable is not set.
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid duration value for %s: %s", key, value)
	}

	return parsed, nil
}

// splitList splits a comma-separated list, dropping empty items.
func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
