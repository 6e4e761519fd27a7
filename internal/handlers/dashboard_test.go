package handlers

import (
	"net/http"
	"strings"
	"testing"

	"spyglass/internal/collector"
)

func TestDashboardRendersBothBackends(t *testing.T) {
	src := &fakeSource{valkey: connectedValkey(), postgres: connectedPostgres()}
	r := newTestRouter(src, nil, nil)

	w := get(r, "/", true)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("expected HTML content type, got %q", ct)
	}

	html := w.Body.String()
	for _, want := range []string{"7.2.4", "redis_version", "7453 kB", "total_connections", "All backends connected"} {
		if !strings.Contains(html, want) {
			t.Fatalf("dashboard missing %q", want)
		}
	}
}

func TestDashboardShowsErrorPanel(t *testing.T) {
	src := &fakeSource{
		valkey:   collector.Unreachable("cannot connect to valkey: connection refused"),
		postgres: connectedPostgres(),
	}
	r := newTestRouter(src, nil, nil)

	w := get(r, "/", true)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	html := w.Body.String()
	if !strings.Contains(html, "cannot connect to valkey") {
		t.Fatal("expected explicit valkey error state")
	}
	if !strings.Contains(html, "7453 kB") {
		t.Fatal("postgres section must still render")
	}
	if !strings.Contains(html, "One or more backends unreachable") {
		t.Fatal("expected degraded banner")
	}
}
