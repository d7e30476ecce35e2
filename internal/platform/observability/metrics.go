package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Analysis outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeFallback  = "fallback"
	OutcomeRejected  = "rejected"
)

// Metrics holds the Prometheus collectors of one server process. Each
// instance owns its registry so tests can build as many as they need.
type Metrics struct {
	registry *prometheus.Registry

	analysisTotal    *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	wsSessions       prometheus.Gauge
	httpRequests     *prometheus.CounterVec
	voiceInputs      prometheus.Counter
}

// NewMetrics registers the street guide collectors on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		analysisTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streetguide_analysis_total",
				Help: "Street view analyses by request source and outcome.",
			},
			[]string{"source", "outcome"},
		),
		upstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "streetguide_upstream_duration_seconds",
				Help:    "Latency of calls to the vision model provider.",
				Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32},
			},
			[]string{"provider"},
		),
		wsSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "streetguide_ws_sessions",
			Help: "Currently open WebSocket sessions.",
		}),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "streetguide_http_requests_total",
				Help: "HTTP requests by method, route and status code.",
			},
			[]string{"method", "path", "status"},
		),
		voiceInputs: factory.NewCounter(prometheus.CounterOpts{
			Name: "streetguide_voice_inputs_total",
			Help: "Voice input events handled.",
		}),
	}
}

// ObserveAnalysis counts one finished analysis.
func (m *Metrics) ObserveAnalysis(source, outcome string) {
	if m == nil {
		return
	}
	m.analysisTotal.WithLabelValues(source, outcome).Inc()
}

// ObserveUpstream records the latency of one provider call.
func (m *Metrics) ObserveUpstream(provider string, d time.Duration) {
	if m == nil {
		return
	}
	m.upstreamDuration.WithLabelValues(provider).Observe(d.Seconds())
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.wsSessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.wsSessions.Dec()
}

func (m *Metrics) ObserveVoiceInput() {
	if m == nil {
		return
	}
	m.voiceInputs.Inc()
}

// ObserveHTTP counts one HTTP request. path should be the route template
// so label cardinality stays bounded.
func (m *Metrics) ObserveHTTP(method, path string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
