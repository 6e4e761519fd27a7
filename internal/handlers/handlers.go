package handlers

import (
	"context"
	"net/http"

	"spyglass/internal/collector"
	"spyglass/pkg/logging"
	"spyglass/pkg/middleware"
	"spyglass/pkg/monitoring"
)

// StatsSource produces request-scoped backend reports. Satisfied by
// *collector.Collector.
type StatsSource interface {
	Snapshot(ctx context.Context) collector.Report
	CollectValkeyStats(ctx context.Context) collector.BackendStatus
	CollectPostgresStats(ctx context.Context) collector.BackendStatus
}

var (
	stats  StatsSource
	health *monitoring.HealthChecker
	logger logging.Logger
)

// Init initializes the handlers with their dependencies
func Init(src StatsSource, hc *monitoring.HealthChecker, log logging.Logger) {
	stats = src
	health = hc
	logger = log
}

// GetStats returns statistics for both backends plus the overall
// health verdict
func GetStats(c middleware.Context) {
	report := stats.Snapshot(c.Request.Context())
	c.JSON(http.StatusOK, report)
}

// GetValkeyStats returns statistics for the cache backend alone
func GetValkeyStats(c middleware.Context) {
	c.JSON(http.StatusOK, stats.CollectValkeyStats(c.Request.Context()))
}

// GetPostgresStats returns statistics for the relational backend alone
func GetPostgresStats(c middleware.Context) {
	c.JSON(http.StatusOK, stats.CollectPostgresStats(c.Request.Context()))
}
