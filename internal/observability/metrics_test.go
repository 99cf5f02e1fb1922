package observability

import (
	"testing"
	"time"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/auth/me", "GET", 200, 2*time.Millisecond)
	m.RecordRequest("/auth/me", "GET", 200, 4*time.Millisecond)
	m.RecordError("/auth/me", "GET", "TOKEN_EXPIRED")
	m.RecordError("/auth/signup", "POST", "CONFLICT")

	snap := m.Snapshot()
	if len(snap.Requests) != 1 {
		t.Fatalf("len(Requests) = %d, want 1", len(snap.Requests))
	}
	stat := snap.Requests[0]
	if stat.Key != "/auth/me|GET|200" || stat.Count != 2 {
		t.Fatalf("unexpected stat %+v", stat)
	}
	if stat.AvgLatencyMS != 3 {
		t.Fatalf("AvgLatencyMS = %v, want 3", stat.AvgLatencyMS)
	}
	if snap.AuthFailures["TOKEN_EXPIRED"] != 1 {
		t.Fatalf("AuthFailures = %v", snap.AuthFailures)
	}
	if _, ok := snap.AuthFailures["CONFLICT"]; ok {
		t.Fatal("CONFLICT must not count as an auth failure")
	}
	if len(snap.Errors) != 2 {
		t.Fatalf("len(Errors) = %d, want 2", len(snap.Errors))
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "UNAUTHORIZED")
	if snap := m.Snapshot(); len(snap.Requests) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}
