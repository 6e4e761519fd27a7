package handlers

import (
	"net/http"
	"time"

	"spyglass/pkg/middleware"
	"spyglass/pkg/monitoring"
)

// HealthCheck reports backend connectivity without requiring
// credentials, so automated probes can reach it. Degraded backends
// yield 503 while the body still names which backend failed.
func HealthCheck(c middleware.Context) {
	status := health.CheckHealth()

	body := middleware.H{
		"status":    status.Status,
		"timestamp": status.Timestamp.Format(time.RFC3339),
	}
	for name, result := range status.Checks {
		if result.Status == monitoring.StatusHealthy {
			body[name] = "connected"
		} else {
			body[name] = "error"
		}
	}

	code := http.StatusOK
	if status.Status != monitoring.StatusHealthy {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, body)
}
