package valkey

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const defaultDialTimeout = 5 * time.Second

// Config configures a single-node Valkey connection.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	DB       int

	// TLS negotiates transport encryption; VerifyTLS can be switched
	// off for managed providers that front the instance with certs
	// the client cannot validate.
	TLS       bool
	VerifyTLS bool

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Open creates a Valkey client and verifies it with a ping. The
// handle is scoped to one poll cycle and must be closed by the caller.
func Open(ctx context.Context, cfg Config) (*goredis.Client, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("valkey host is required")
	}

	dialTimeout := cfg.DialTimeout
	if dialTimeout == 0 {
		dialTimeout = defaultDialTimeout
	}
	readTimeout := cfg.ReadTimeout
	if readTimeout == 0 {
		readTimeout = dialTimeout
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = dialTimeout
	}

	opts := &goredis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Username:     cfg.Username,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  dialTimeout,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}
	if cfg.TLS {
		opts.TLSConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: !cfg.VerifyTLS,
		}
	}

	client := goredis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping valkey: %w", err)
	}

	return client, nil
}
