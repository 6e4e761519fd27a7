package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	pkgconfig "spyglass/pkg/config"
	"spyglass/pkg/database"
	"spyglass/pkg/logging"
	"spyglass/pkg/valkey"
)

// managedHostSuffix marks DigitalOcean managed databases, which
// require transport encryption but present certs the client cannot
// always validate.
const managedHostSuffix = "ondigitalocean.com"

// Config is the merged service configuration, resolved once at
// startup and passed explicitly to every component that needs it.
type Config struct {
	Valkey   valkey.Config
	Postgres database.Config

	AuthUsername string
	AuthPassword string

	Port    string
	Workers int
}

// Load resolves configuration from, in ascending priority: built-in
// defaults, an optional JSON config file (CONFIG_FILE, keys identical
// to the env names), and the process environment. It returns an error
// when a required credential is missing so the process can refuse to
// serve.
func Load(logger logging.Logger) (Config, error) {
	src := source{file: loadFile(logger)}

	cfg := Config{
		Valkey: valkey.Config{
			Host:        src.str("VALKEY_HOST", "localhost"),
			Port:        src.integer("VALKEY_PORT", 6379),
			Username:    src.str("VALKEY_USER", ""),
			Password:    src.str("VALKEY_PASSWORD", ""),
			DB:          src.integer("VALKEY_DB", 0),
			TLS:         src.boolean("VALKEY_SSL", false),
			VerifyTLS:   src.boolean("VALKEY_SSL_VERIFY", true),
			DialTimeout: src.seconds("VALKEY_TIMEOUT_SECONDS", 5*time.Second),
		},
		Postgres: database.Config{
			Host:           src.str("POSTGRES_HOST", "localhost"),
			Port:           src.integer("POSTGRES_PORT", 5432),
			Database:       src.str("POSTGRES_DATABASE", "webapp_db"),
			User:           src.str("POSTGRES_USER", "postgres"),
			Password:       src.str("POSTGRES_PASSWORD", ""),
			SSLMode:        src.str("POSTGRES_SSLMODE", ""),
			ConnectTimeout: src.seconds("POSTGRES_TIMEOUT_SECONDS", 10*time.Second),
		},
		AuthUsername: src.str("AUTH_USERNAME", ""),
		AuthPassword: src.str("AUTH_PASSWORD", ""),
		Port:         src.str("APP_PORT", "8080"),
		Workers:      src.integer("WORKERS", 0),
	}

	// Managed providers terminate TLS on the database endpoint.
	if strings.Contains(cfg.Valkey.Host, managedHostSuffix) {
		cfg.Valkey.TLS = true
		cfg.Valkey.VerifyTLS = false
	}
	if cfg.Postgres.SSLMode == "" {
		if strings.Contains(cfg.Postgres.Host, managedHostSuffix) {
			cfg.Postgres.SSLMode = "require"
		} else {
			cfg.Postgres.SSLMode = "disable"
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var missing []string
	if c.Postgres.Password == "" {
		missing = append(missing, "POSTGRES_PASSWORD")
	}
	if c.AuthUsername == "" {
		missing = append(missing, "AUTH_USERNAME")
	}
	if c.AuthPassword == "" {
		missing = append(missing, "AUTH_PASSWORD")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// loadFile reads the optional JSON config file. A missing file is
// normal; a malformed one is logged and skipped rather than aborting
// startup, matching how deployments ship partial config files.
func loadFile(logger logging.Logger) map[string]any {
	path := pkgconfig.GetEnv("CONFIG_FILE", "production.config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}

	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		if logger != nil {
			logger.WithError(err).Warnf("Could not parse config file %s", path)
		}
		return nil
	}
	if logger != nil {
		logger.WithField("path", path).Debug("Loaded config file")
	}
	return values
}

// source resolves one key across env, config file, and default.
type source struct {
	file map[string]any
}

func (s source) str(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	if v, ok := s.file[key]; ok {
		switch t := v.(type) {
		case string:
			if t != "" {
				return t
			}
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64)
		}
	}
	return def
}

func (s source) integer(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	if v, ok := s.file[key]; ok {
		switch t := v.(type) {
		case float64:
			return int(t)
		case string:
			if parsed, err := strconv.Atoi(t); err == nil {
				return parsed
			}
		}
	}
	return def
}

func (s source) boolean(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	if v, ok := s.file[key]; ok {
		switch t := v.(type) {
		case bool:
			return t
		case string:
			if parsed, err := strconv.ParseBool(t); err == nil {
				return parsed
			}
		}
	}
	return def
}

func (s source) seconds(key string, def time.Duration) time.Duration {
	if v := s.integer(key, 0); v > 0 {
		return time.Duration(v) * time.Second
	}
	return def
}
