package main

import (
	"runtime"

	"spyglass/internal/collector"
	"spyglass/internal/config"
	"spyglass/internal/handlers"
	pkgconfig "spyglass/pkg/config"
	"spyglass/pkg/logging"
	"spyglass/pkg/middleware"
	"spyglass/pkg/monitoring"
	"spyglass/pkg/server"
	"spyglass/pkg/version"
)

func main() {
	logger := logging.NewLoggerWithService("spyglass")

	pkgconfig.LoadEnv(logger)

	logger.Info("Starting Spyglass (Database Statistics Dashboard)")

	cfg, err := config.Load(logger)
	if err != nil {
		logger.WithError(err).Fatal("Invalid configuration, refusing to serve")
	}

	if cfg.Workers > 0 {
		runtime.GOMAXPROCS(cfg.Workers)
	}

	// Setup monitoring
	metricsCollector := monitoring.NewMetricsCollector("spyglass", version.Version, version.GitCommit)
	stats := collector.New(cfg, logger, metricsCollector)

	healthChecker := monitoring.NewHealthChecker("spyglass", version.Version)
	healthChecker.AddCheck("valkey", monitoring.PingCheck("valkey", stats.ProbeValkey))
	healthChecker.AddCheck("postgres", monitoring.PingCheck("postgres", stats.ProbePostgres))

	handlers.Init(stats, healthChecker, logger)

	// === Router ===
	router := server.SetupServiceRouter(logger, "spyglass", metricsCollector)

	// Health probes run without credentials.
	router.GET("/health", handlers.HealthCheck)

	authed := router.Group("/", middleware.BasicAuthMiddleware(cfg.AuthUsername, cfg.AuthPassword))
	authed.GET("", handlers.Dashboard)
	authed.GET("api/stats", handlers.GetStats)
	authed.GET("api/valkey", handlers.GetValkeyStats)
	authed.GET("api/postgres", handlers.GetPostgresStats)

	serverConfig := server.DefaultConfig("spyglass", cfg.Port)
	if err := server.Start(serverConfig, router, logger); err != nil {
		logger.WithError(err).Fatal("Spyglass HTTP server failed")
	}
}
