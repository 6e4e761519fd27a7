package monitoring

import (
	"context"
	"fmt"
	"time"
)

// Health statuses
const (
	StatusHealthy  = "healthy"
	StatusDegraded = "degraded"
)

const pingTimeout = 5 * time.Second

// CheckResult represents the result of an individual health check
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// HealthCheck is a function that performs a health check
type HealthCheck func() CheckResult

// HealthStatus represents the overall health status
type HealthStatus struct {
	Status    string
	Service   string
	Version   string
	Checks    map[string]CheckResult
	Timestamp time.Time
}

// HealthChecker manages and executes health checks
type HealthChecker struct {
	service string
	version string
	checks  map[string]HealthCheck
}

// NewHealthChecker creates a new health checker instance
func NewHealthChecker(service, version string) *HealthChecker {
	return &HealthChecker{
		service: service,
		version: version,
		checks:  make(map[string]HealthCheck),
	}
}

// AddCheck adds a health check to the checker
func (hc *HealthChecker) AddCheck(name string, check HealthCheck) {
	hc.checks[name] = check
}

// CheckHealth runs all health checks. The overall status is healthy
// only when every individual check is healthy; any failing backend
// degrades the service rather than marking it dead, since the
// remaining backend is still being reported on.
func (hc *HealthChecker) CheckHealth() HealthStatus {
	status := HealthStatus{
		Status:    StatusHealthy,
		Service:   hc.service,
		Version:   hc.version,
		Checks:    make(map[string]CheckResult, len(hc.checks)),
		Timestamp: time.Now().UTC(),
	}

	for name, check := range hc.checks {
		result := check()
		status.Checks[name] = result
		if result.Status != StatusHealthy {
			status.Status = StatusDegraded
		}
	}

	return status
}

// PingCheck creates a health check from a backend ping function. The
// ping is bounded so a hung backend cannot stall the health endpoint.
func PingCheck(name string, ping func(ctx context.Context) error) HealthCheck {
	return func() CheckResult {
		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		defer cancel()

		err := ping(ctx)
		duration := time.Since(start)

		if err != nil {
			return CheckResult{
				Status:  StatusDegraded,
				Message: fmt.Sprintf("%s ping failed: %v", name, err),
				Latency: duration.String(),
			}
		}

		return CheckResult{
			Status:  StatusHealthy,
			Message: fmt.Sprintf("%s connection successful", name),
			Latency: duration.String(),
		}
	}
}
