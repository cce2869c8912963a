// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Prometheus collectors for the connection engine. All methods are safe on
// a nil *Metrics so instrumentation can be disabled by configuration.

package control

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the connection counters and histograms.
type Metrics struct {
	connects       *prometheus.CounterVec
	connectSeconds prometheus.Histogram
	tlsSeconds     prometheus.Histogram
	bytes          *prometheus.CounterVec
	frames         prometheus.Counter
	results        prometheus.Counter
	errors         *prometheus.CounterVec
	state          prometheus.Gauge
}

// NewMetrics registers the collectors on reg. A nil reg yields nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return nil
	}
	f := promauto.With(reg)
	return &Metrics{
		connects: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fe_connects_total",
			Help: "Connection attempts by outcome",
		}, []string{"outcome"}),
		connectSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "fe_connect_duration_seconds",
			Help:    "Time from connect start to the Connected state",
			Buckets: prometheus.DefBuckets,
		}),
		tlsSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "fe_tls_handshake_duration_seconds",
			Help:    "TLS handshake duration",
			Buckets: prometheus.DefBuckets,
		}),
		bytes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fe_bytes_total",
			Help: "Payload bytes moved over the connection",
		}, []string{"direction"}),
		frames: f.NewCounter(prometheus.CounterOpts{
			Name: "fe_response_frames_total",
			Help: "Response frames fully consumed",
		}),
		results: f.NewCounter(prometheus.CounterOpts{
			Name: "fe_results_total",
			Help: "Results delivered to the owning client",
		}),
		errors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fe_errors_total",
			Help: "Terminal connection errors by kind",
		}, []string{"kind"}),
		state: f.NewGauge(prometheus.GaugeOpts{
			Name: "fe_connection_state",
			Help: "0 disconnected, 1 connecting, 2 connected",
		}),
	}
}

// Connected records a successful connect and its durations. tls is zero
// for plain connections.
func (m *Metrics) Connected(total, tls time.Duration) {
	if m == nil {
		return
	}
	m.connects.WithLabelValues("ok").Inc()
	m.connectSeconds.Observe(total.Seconds())
	if tls > 0 {
		m.tlsSeconds.Observe(tls.Seconds())
	}
}

// Failed records a terminal error of the given kind.
func (m *Metrics) Failed(kind string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(kind).Inc()
}

// ConnectFailed records a connect that never reached Connected.
func (m *Metrics) ConnectFailed() {
	if m == nil {
		return
	}
	m.connects.WithLabelValues("failed").Inc()
}

// Sent adds outbound bytes.
func (m *Metrics) Sent(n int) {
	if m == nil {
		return
	}
	m.bytes.WithLabelValues("out").Add(float64(n))
}

// Received adds inbound bytes.
func (m *Metrics) Received(n int) {
	if m == nil {
		return
	}
	m.bytes.WithLabelValues("in").Add(float64(n))
}

// Frame records one consumed frame and the results it carried.
func (m *Metrics) Frame(results int) {
	if m == nil {
		return
	}
	m.frames.Inc()
	m.results.Add(float64(results))
}

// State sets the connection state gauge.
func (m *Metrics) State(s int) {
	if m == nil {
		return
	}
	m.state.Set(float64(s))
}
