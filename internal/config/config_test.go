package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"spyglass/pkg/logging"
)

// setRequired sets the credentials without which Load refuses to run.
func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("POSTGRES_PASSWORD", "pgpass")
	t.Setenv("AUTH_USERNAME", "admin")
	t.Setenv("AUTH_PASSWORD", "dashpass")
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.json"))
}

func clearOptional(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"VALKEY_HOST", "VALKEY_PORT", "VALKEY_USER", "VALKEY_PASSWORD", "VALKEY_DB",
		"VALKEY_SSL", "VALKEY_SSL_VERIFY", "VALKEY_TIMEOUT_SECONDS",
		"POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_DATABASE", "POSTGRES_USER",
		"POSTGRES_SSLMODE", "POSTGRES_TIMEOUT_SECONDS", "APP_PORT", "WORKERS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	clearOptional(t)

	cfg, err := Load(logging.NewLogger())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Valkey.Host != "localhost" || cfg.Valkey.Port != 6379 {
		t.Fatalf("unexpected valkey defaults: %+v", cfg.Valkey)
	}
	if cfg.Valkey.DialTimeout != 5*time.Second {
		t.Fatalf("unexpected valkey timeout: %v", cfg.Valkey.DialTimeout)
	}
	if cfg.Postgres.Database != "webapp_db" || cfg.Postgres.SSLMode != "disable" {
		t.Fatalf("unexpected postgres defaults: %+v", cfg.Postgres)
	}
	if cfg.Port != "8080" {
		t.Fatalf("unexpected port: %s", cfg.Port)
	}
}

func TestLoadMissingRequiredCredential(t *testing.T) {
	setRequired(t)
	clearOptional(t)
	t.Setenv("POSTGRES_PASSWORD", "")

	if _, err := Load(logging.NewLogger()); err == nil {
		t.Fatal("expected error for missing POSTGRES_PASSWORD")
	}
}

func TestLoadMissingAuthCredentials(t *testing.T) {
	setRequired(t)
	clearOptional(t)
	t.Setenv("AUTH_USERNAME", "")
	t.Setenv("AUTH_PASSWORD", "")

	if _, err := Load(logging.NewLogger()); err == nil {
		t.Fatal("expected error for missing auth credentials")
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	setRequired(t)
	clearOptional(t)

	path := filepath.Join(t.TempDir(), "config.json")
	body := `{"VALKEY_HOST": "file-host", "VALKEY_PORT": 7000, "POSTGRES_DATABASE": "file_db", "WORKERS": 4}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("VALKEY_HOST", "env-host")

	cfg, err := Load(logging.NewLogger())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Valkey.Host != "env-host" {
		t.Fatalf("env should win over file, got %s", cfg.Valkey.Host)
	}
	if cfg.Valkey.Port != 7000 {
		t.Fatalf("file should win over default, got %d", cfg.Valkey.Port)
	}
	if cfg.Postgres.Database != "file_db" {
		t.Fatalf("file db not applied, got %s", cfg.Postgres.Database)
	}
	if cfg.Workers != 4 {
		t.Fatalf("file workers not applied, got %d", cfg.Workers)
	}
}

func TestLoadMalformedFileIsSkipped(t *testing.T) {
	setRequired(t)
	clearOptional(t)

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{nope"), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load(logging.NewLogger())
	if err != nil {
		t.Fatalf("Load should tolerate malformed file: %v", err)
	}
	if cfg.Valkey.Host != "localhost" {
		t.Fatalf("expected defaults after skipping file, got %s", cfg.Valkey.Host)
	}
}

func TestManagedHostEnablesTLS(t *testing.T) {
	setRequired(t)
	clearOptional(t)
	t.Setenv("VALKEY_HOST", "db-valkey.ondigitalocean.com")
	t.Setenv("POSTGRES_HOST", "db-pg.ondigitalocean.com")

	cfg, err := Load(logging.NewLogger())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Valkey.TLS || cfg.Valkey.VerifyTLS {
		t.Fatalf("expected TLS without verification for managed valkey: %+v", cfg.Valkey)
	}
	if cfg.Postgres.SSLMode != "require" {
		t.Fatalf("expected sslmode=require for managed postgres, got %s", cfg.Postgres.SSLMode)
	}
}
