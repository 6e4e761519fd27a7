package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"spyglass/internal/collector"
	"spyglass/pkg/logging"
	"spyglass/pkg/middleware"
	"spyglass/pkg/monitoring"
)

// fakeSource serves canned backend statuses.
type fakeSource struct {
	valkey   collector.BackendStatus
	postgres collector.BackendStatus
}

func (f *fakeSource) Snapshot(ctx context.Context) collector.Report {
	return collector.Report{
		Valkey:    f.valkey,
		Postgres:  f.postgres,
		Healthy:   f.valkey.Connected() && f.postgres.Connected(),
		Timestamp: time.Now().UTC(),
	}
}

func (f *fakeSource) CollectValkeyStats(ctx context.Context) collector.BackendStatus {
	return f.valkey
}

func (f *fakeSource) CollectPostgresStats(ctx context.Context) collector.BackendStatus {
	return f.postgres
}

// newTestRouter wires routes the way cmd/spyglass does: /health open,
// everything else behind the credential gate.
func newTestRouter(src StatsSource, valkeyErr, postgresErr error) *gin.Engine {
	gin.SetMode(gin.TestMode)

	hc := monitoring.NewHealthChecker("spyglass", "test")
	hc.AddCheck("valkey", monitoring.PingCheck("valkey", func(context.Context) error { return valkeyErr }))
	hc.AddCheck("postgres", monitoring.PingCheck("postgres", func(context.Context) error { return postgresErr }))

	Init(src, hc, logging.NewLogger())

	r := gin.New()
	r.GET("/health", HealthCheck)

	authed := r.Group("/", middleware.BasicAuthMiddleware("admin", "s3cret"))
	authed.GET("", Dashboard)
	authed.GET("api/stats", GetStats)
	authed.GET("api/valkey", GetValkeyStats)
	authed.GET("api/postgres", GetPostgresStats)
	return r
}

func connectedValkey() collector.BackendStatus {
	return collector.ConnectedStatus(collector.Metrics{
		"redis_version":     "7.2.4",
		"uptime_in_seconds": int64(3600),
		"connected_clients": int64(5),
		"database_size":     int64(12),
	})
}

func connectedPostgres() collector.BackendStatus {
	return collector.ConnectedStatus(collector.Metrics{
		"database_size":     "7453 kB",
		"total_connections": int64(8),
		"cache_hit_ratio":   75.0,
	})
}

func get(r *gin.Engine, path string, creds bool) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", path, nil)
	if creds {
		req.SetBasicAuth("admin", "s3cret")
	}
	r.ServeHTTP(w, req)
	return w
}

func TestGetStatsDegraded(t *testing.T) {
	src := &fakeSource{
		valkey:   collector.Unreachable("cannot connect to valkey: connection refused"),
		postgres: connectedPostgres(),
	}
	r := newTestRouter(src, errors.New("refused"), nil)

	w := get(r, "/api/stats", true)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Valkey    map[string]any `json:"valkey"`
		Postgres  map[string]any `json:"postgres"`
		Healthy   bool           `json:"healthy"`
		Timestamp string         `json:"timestamp"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Healthy {
		t.Fatal("expected healthy=false")
	}
	if body.Valkey["error"] == nil {
		t.Fatalf("expected valkey error, got %v", body.Valkey)
	}
	if body.Postgres["total_connections"] == nil {
		t.Fatalf("expected postgres metrics, got %v", body.Postgres)
	}
	if body.Timestamp == "" {
		t.Fatal("expected timestamp")
	}
}

func TestSingleBackendEndpoints(t *testing.T) {
	src := &fakeSource{valkey: connectedValkey(), postgres: connectedPostgres()}
	r := newTestRouter(src, nil, nil)

	w := get(r, "/api/valkey", true)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var valkeyBody map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &valkeyBody); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if valkeyBody["redis_version"] != "7.2.4" {
		t.Fatalf("expected flat valkey metrics, got %v", valkeyBody)
	}

	w = get(r, "/api/postgres", true)
	var pgBody map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &pgBody); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if pgBody["database_size"] != "7453 kB" {
		t.Fatalf("expected flat postgres metrics, got %v", pgBody)
	}
}

func TestProtectedRoutesRequireCredentials(t *testing.T) {
	src := &fakeSource{valkey: connectedValkey(), postgres: connectedPostgres()}
	r := newTestRouter(src, nil, nil)

	for _, path := range []string{"/", "/api/stats", "/api/valkey", "/api/postgres"} {
		w := get(r, path, false)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, w.Code)
		}
		if strings.Contains(w.Body.String(), "redis_version") || strings.Contains(w.Body.String(), "7453 kB") {
			t.Fatalf("%s: metric data leaked without credentials: %s", path, w.Body.String())
		}
	}
}
