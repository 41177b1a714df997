package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors the front-end exports. Each instance owns
// its registry so tests can build as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	PushEvents       *prometheus.CounterVec
	PushDecodeErrors prometheus.Counter
	Reconnects       prometheus.Counter
	ConnectionState  *prometheus.GaugeVec
	APIRequests      *prometheus.CounterVec
	APIDuration      *prometheus.HistogramVec
	Questions        prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		PushEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "forum_push_events_total", Help: "Push events applied to the question list"},
			[]string{"result"},
		),
		PushDecodeErrors: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "forum_push_decode_errors_total", Help: "Push frames dropped because they could not be decoded"},
		),
		Reconnects: prometheus.NewCounter(
			prometheus.CounterOpts{Name: "forum_push_reconnects_total", Help: "Scheduled push channel reconnect attempts"},
		),
		ConnectionState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: "forum_push_connection_state", Help: "1 for the current push channel phase"},
			[]string{"phase"},
		),
		APIRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "forum_api_requests_total", Help: "Requests sent to the forum API"},
			[]string{"operation", "outcome"},
		),
		APIDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "forum_api_request_duration_seconds",
				Help:    "Forum API request duration seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		Questions: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "forum_questions", Help: "Questions currently in the synchronized list"},
		),
	}
	m.Registry.MustRegister(
		m.PushEvents,
		m.PushDecodeErrors,
		m.Reconnects,
		m.ConnectionState,
		m.APIRequests,
		m.APIDuration,
		m.Questions,
	)
	return m
}

// SetPhase marks phase as the only active connection phase.
func (m *Metrics) SetPhase(phase string, all []string) {
	if m == nil {
		return
	}
	for _, p := range all {
		v := 0.0
		if p == phase {
			v = 1
		}
		m.ConnectionState.WithLabelValues(p).Set(v)
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
