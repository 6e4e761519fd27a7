package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

const defaultConnectTimeout = 10 * time.Second

// Config holds PostgreSQL connection parameters for a single poll.
type Config struct {
	Host           string
	Port           int
	Database       string
	User           string
	Password       string
	SSLMode        string
	ConnectTimeout time.Duration
}

// DSN renders the config as a lib/pq key/value connection string.
func (c Config) DSN() string {
	timeout := c.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	parts := []string{
		"host=" + quote(c.Host),
		fmt.Sprintf("port=%d", c.Port),
		"dbname=" + quote(c.Database),
		"user=" + quote(c.User),
		"sslmode=" + quote(sslMode),
		fmt.Sprintf("connect_timeout=%d", int(timeout.Seconds())),
	}
	if c.Password != "" {
		parts = append(parts, "password="+quote(c.Password))
	}
	return strings.Join(parts, " ")
}

// quote wraps a DSN value in single quotes so spaces and special
// characters survive lib/pq's key/value parsing.
func quote(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// Open establishes a PostgreSQL connection and verifies it with a
// bounded ping. The handle is scoped to one poll cycle: the caller
// must close it before returning, success or failure.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("postgres host is required")
	}

	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	// One poll, one connection.
	db.SetMaxOpenConns(1)

	return db, nil
}
