package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

var configKeys = []string{
	"PORT", "DATA_DIR", "DB_DRIVER", "DB_PATH", "DATABASE_URL", "UPLOAD_DIR",
	"JWT_SECRET", "JWT_TTL", "GOOGLE_USERINFO_URL", "KAFKA_BROKERS", "KAFKA_TOPIC",
	"CLIENT_URL", "DEBUG", "APP_ENV",
}

// clearEnv blanks every configuration variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	chdir(t, t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Expected port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Storage.Driver != DriverBolt {
		t.Errorf("Expected driver %s, got %s", DriverBolt, cfg.Storage.Driver)
	}
	if cfg.Storage.DataDir != "./data" {
		t.Errorf("Expected data dir ./data, got %s", cfg.Storage.DataDir)
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("Expected 24h token TTL, got %s", cfg.Auth.TokenTTL)
	}
	if cfg.Events.KafkaBrokers != nil {
		t.Errorf("Expected no Kafka brokers, got %v", cfg.Events.KafkaBrokers)
	}
	if cfg.Events.KafkaTopic != "ledger-events" {
		t.Errorf("Expected topic ledger-events, got %s", cfg.Events.KafkaTopic)
	}
	if cfg.IsProduction() {
		t.Error("Expected development environment by default")
	}
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t)
	for _, key := range configKeys {
		// godotenv does not override variables that are already set.
		_ = os.Unsetenv(key)
	}

	envPath := filepath.Join(t.TempDir(), ".env")
	content := strings.Join([]string{
		"PORT=9090",
		"DB_DRIVER=Postgres",
		"DATABASE_URL=postgres://ledger@localhost/ledger?sslmode=disable",
		"JWT_SECRET=s3cret",
		"JWT_TTL=90m",
		"KAFKA_BROKERS=kafka-1:9092, kafka-2:9092,",
		"DEBUG=true",
		"APP_ENV=production",
	}, "\n")
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("Failed to write .env: %v", err)
	}
	t.Cleanup(func() {
		for _, key := range configKeys {
			_ = os.Unsetenv(key)
		}
	})

	cfg, err := Load(envPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Storage.Driver != DriverPostgres {
		t.Errorf("Expected driver %s, got %s", DriverPostgres, cfg.Storage.Driver)
	}
	if cfg.Auth.TokenTTL != 90*time.Minute {
		t.Errorf("Expected 90m token TTL, got %s", cfg.Auth.TokenTTL)
	}
	if want := []string{"kafka-1:9092", "kafka-2:9092"}; !reflect.DeepEqual(cfg.Events.KafkaBrokers, want) {
		t.Errorf("Expected brokers %v, got %v", want, cfg.Events.KafkaBrokers)
	}
	if !cfg.Debug || !cfg.IsProduction() {
		t.Errorf("Expected debug production config, got debug=%v env=%s", cfg.Debug, cfg.AppEnv)
	}
	if err := cfg.Validate("auth.jwtSecret", "storage.databaseUrl"); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "unknown driver", key: "DB_DRIVER", value: "mongo"},
		{name: "bad ttl", key: "JWT_TTL", value: "a day"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			chdir(t, t.TempDir())
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("Expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

func TestValidateReportsAllMissing(t *testing.T) {
	cfg := &Config{}

	err := cfg.Validate("auth.jwtSecret", "storage.databaseUrl")
	if err == nil {
		t.Fatal("Expected validation error")
	}
	for _, key := range []string{"auth.jwtSecret", "storage.databaseUrl"} {
		if !strings.Contains(err.Error(), key) {
			t.Errorf("Expected %s in error, got %v", key, err)
		}
	}

	if err := cfg.Validate("no.such.key"); err == nil {
		t.Error("Expected error for unknown key")
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
