package collector

import (
	"encoding/json"
	"time"
)

// Metrics is a flat mapping of metric name to scalar value. The exact
// set is backend-version-dependent, so it stays a map rather than a
// fixed struct.
type Metrics map[string]any

// BackendStatus is the tagged outcome of polling one backend: either
// connected with a metrics map, or unreachable with an error message.
type BackendStatus struct {
	Metrics Metrics
	Err     string
}

// ConnectedStatus wraps collected metrics in a success status.
func ConnectedStatus(m Metrics) BackendStatus {
	if m == nil {
		m = Metrics{}
	}
	return BackendStatus{Metrics: m}
}

// Unreachable marks a backend that could not be polled at all.
func Unreachable(message string) BackendStatus {
	if message == "" {
		message = "backend unreachable"
	}
	return BackendStatus{Err: message}
}

// Connected reports whether the backend answered the poll.
func (s BackendStatus) Connected() bool {
	return s.Err == ""
}

// MarshalJSON renders a connected backend as its flat metrics object
// and an unreachable one as {"error": "<message>"}. The backend key
// is never omitted from API responses, so callers can rely on one of
// the two shapes being present.
func (s BackendStatus) MarshalJSON() ([]byte, error) {
	if !s.Connected() {
		return json.Marshal(map[string]string{"error": s.Err})
	}
	return json.Marshal(s.Metrics)
}

// Report is the request-scoped view of both backends.
type Report struct {
	Valkey    BackendStatus
	Postgres  BackendStatus
	Healthy   bool
	Timestamp time.Time
}

// MarshalJSON renders the documented /api/stats shape.
func (r Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Valkey    BackendStatus `json:"valkey"`
		Postgres  BackendStatus `json:"postgres"`
		Healthy   bool          `json:"healthy"`
		Timestamp string        `json:"timestamp"`
	}{
		Valkey:    r.Valkey,
		Postgres:  r.Postgres,
		Healthy:   r.Healthy,
		Timestamp: r.Timestamp.UTC().Format(time.RFC3339),
	})
}
