package collector

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"spyglass/internal/config"
	"spyglass/pkg/database"
	"spyglass/pkg/logging"
	"spyglass/pkg/monitoring"
	"spyglass/pkg/valkey"
)

// Collector polls both backends. It holds no connections between
// polls: every call opens fresh handles and closes them before
// returning, so a hung backend on one request cannot poison another.
type Collector struct {
	cfg        config.Config
	logger     logging.Logger
	infoFields []string

	// Poll functions are fields so tests can substitute backends.
	valkeyPoll   func(ctx context.Context) BackendStatus
	postgresPoll func(ctx context.Context) BackendStatus

	polls        *prometheus.CounterVec
	pollDuration *prometheus.HistogramVec
}

// New creates a collector. mc may be nil to skip instrumentation.
func New(cfg config.Config, logger logging.Logger, mc *monitoring.MetricsCollector) *Collector {
	c := &Collector{
		cfg:        cfg,
		logger:     logger,
		infoFields: DefaultInfoFields,
	}
	c.valkeyPoll = c.collectValkey
	c.postgresPoll = c.collectPostgres

	if mc != nil {
		c.polls = mc.NewCounter("backend_polls_total", "Backend poll attempts by outcome", []string{"backend", "status"})
		c.pollDuration = mc.NewHistogram("backend_poll_duration_seconds", "Backend poll duration", []string{"backend"}, nil)
	}
	return c
}

// CollectValkeyStats polls the cache backend once.
func (c *Collector) CollectValkeyStats(ctx context.Context) BackendStatus {
	return c.instrument(ctx, "valkey", c.valkeyPoll)
}

// CollectPostgresStats polls the relational backend once.
func (c *Collector) CollectPostgresStats(ctx context.Context) BackendStatus {
	return c.instrument(ctx, "postgres", c.postgresPoll)
}

func (c *Collector) instrument(ctx context.Context, backend string, poll func(ctx context.Context) BackendStatus) BackendStatus {
	start := time.Now()
	status := poll(ctx)
	elapsed := time.Since(start)

	if c.pollDuration != nil {
		c.pollDuration.WithLabelValues(backend).Observe(elapsed.Seconds())
	}
	outcome := "connected"
	if !status.Connected() {
		outcome = "unreachable"
		c.logger.WithFields(logging.Fields{
			"backend": backend,
			"error":   status.Err,
			"elapsed": elapsed,
		}).Warn("Backend poll failed")
	}
	if c.polls != nil {
		c.polls.WithLabelValues(backend, outcome).Inc()
	}
	return status
}

// Snapshot polls both backends and aggregates the result. The two
// polls are independent and run concurrently; Snapshot never fails —
// unreachable backends surface as data in the report.
func (c *Collector) Snapshot(ctx context.Context) Report {
	var vk, pg BackendStatus

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vk = c.CollectValkeyStats(gctx)
		return nil
	})
	g.Go(func() error {
		pg = c.CollectPostgresStats(gctx)
		return nil
	})
	_ = g.Wait()

	return Report{
		Valkey:    vk,
		Postgres:  pg,
		Healthy:   vk.Connected() && pg.Connected(),
		Timestamp: time.Now().UTC(),
	}
}

// pollBudget bounds one complete poll cycle: one timeout window to
// connect plus one to run the query battery.
func pollBudget(connectTimeout time.Duration) time.Duration {
	if connectTimeout <= 0 {
		connectTimeout = 5 * time.Second
	}
	return 2 * connectTimeout
}

// ProbeValkey opens and immediately closes a cache connection. Used
// by the unauthenticated health endpoint.
func (c *Collector) ProbeValkey(ctx context.Context) error {
	client, err := valkey.Open(ctx, c.cfg.Valkey)
	if err != nil {
		return err
	}
	return client.Close()
}

// ProbePostgres opens and immediately closes a relational connection.
func (c *Collector) ProbePostgres(ctx context.Context) error {
	db, err := database.Open(ctx, c.cfg.Postgres)
	if err != nil {
		return err
	}
	return db.Close()
}
