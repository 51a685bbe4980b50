package api

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments the client. All methods are nil-safe so callers that
// do not register metrics pay nothing.
type Metrics struct {
	requests  *prometheus.CounterVec
	refreshes prometheus.Counter
	coalesced prometheus.Counter
	inFlight  prometheus.Gauge
}

// NewMetrics registers the client collectors against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "carmot_client_requests_total",
			Help: "Requests dispatched, by method and status class.",
		}, []string{"method", "class"}),
		refreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "carmot_client_refreshes_total",
			Help: "Credential refresh attempts performed.",
		}),
		coalesced: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "carmot_client_refreshes_coalesced_total",
			Help: "401 responses that attached to an already in-flight refresh.",
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "carmot_client_in_flight_requests",
			Help: "Requests currently awaiting a response.",
		}),
	}
	reg.MustRegister(m.requests, m.refreshes, m.coalesced, m.inFlight)
	return m
}

func (m *Metrics) observeRequest(method string, status int) {
	if m == nil {
		return
	}
	class := "error"
	if status > 0 {
		class = fmt.Sprintf("%dxx", status/100)
	}
	m.requests.WithLabelValues(method, class).Inc()
}

func (m *Metrics) observeRefresh() {
	if m == nil {
		return
	}
	m.refreshes.Inc()
}

func (m *Metrics) observeCoalesced() {
	if m == nil {
		return
	}
	m.coalesced.Inc()
}

func (m *Metrics) requestStarted() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

func (m *Metrics) requestFinished() {
	if m == nil {
		return
	}
	m.inFlight.Dec()
}
