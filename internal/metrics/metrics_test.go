package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRoomOperation(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveRoomOperation("book", "success")
	m.ObserveRoomOperation("book", "success")
	m.ObserveRoomOperation("book", "conflict")

	if got := testutil.ToFloat64(m.RoomOperations.WithLabelValues("book", "success")); got != 2 {
		t.Fatalf("expected 2 successes, got %v", got)
	}
	if got := testutil.ToFloat64(m.RoomOperations.WithLabelValues("book", "conflict")); got != 1 {
		t.Fatalf("expected 1 conflict, got %v", got)
	}
}

func TestObserveRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveRequest("POST", "/api/rooms/{room_id}/book", 200, 20*time.Millisecond)

	if count := testutil.CollectAndCount(m.RequestDuration); count != 1 {
		t.Fatalf("expected one series, got %d", count)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveRoomOperation("book", "success")
	m.ObserveRequest("GET", "/health", 200, time.Millisecond)
}
