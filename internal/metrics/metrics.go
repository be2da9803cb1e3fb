package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	RoomOperations  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RoomOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hostel",
			Name:      "room_operations_total",
			Help:      "Room booking and release attempts by outcome.",
		}, []string{"operation", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hostel",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	if reg != nil {
		reg.MustRegister(m.RoomOperations, m.RequestDuration)
	}
	return m
}

func (m *Metrics) ObserveRoomOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.RoomOperations.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
