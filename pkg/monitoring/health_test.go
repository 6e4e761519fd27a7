package monitoring

import (
	"context"
	"errors"
	"testing"
)

func TestHealthCheckerAllHealthy(t *testing.T) {
	hc := NewHealthChecker("svc", "v1")
	hc.AddCheck("ok", func() CheckResult { return CheckResult{Status: StatusHealthy} })
	status := hc.CheckHealth()
	if status.Status != StatusHealthy {
		t.Fatalf("expected healthy, got %s", status.Status)
	}
}

func TestHealthCheckerDegradedOnAnyFailure(t *testing.T) {
	hc := NewHealthChecker("svc", "v1")
	hc.AddCheck("ok", func() CheckResult { return CheckResult{Status: StatusHealthy} })
	hc.AddCheck("down", func() CheckResult { return CheckResult{Status: StatusDegraded, Message: "nope"} })
	status := hc.CheckHealth()
	if status.Status != StatusDegraded {
		t.Fatalf("expected degraded, got %s", status.Status)
	}
	if status.Checks["down"].Message != "nope" {
		t.Fatalf("expected check message to survive, got %+v", status.Checks["down"])
	}
}

func TestPingCheck(t *testing.T) {
	ok := PingCheck("valkey", func(context.Context) error { return nil })()
	if ok.Status != StatusHealthy {
		t.Fatalf("expected healthy, got %+v", ok)
	}

	bad := PingCheck("valkey", func(context.Context) error { return errors.New("refused") })()
	if bad.Status != StatusDegraded {
		t.Fatalf("expected degraded, got %+v", bad)
	}
	if bad.Message == "" {
		t.Fatal("expected non-empty failure message")
	}
}
