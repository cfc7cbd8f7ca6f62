package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the rundown orchestrator.
type Metrics struct {
	registry               *prometheus.Registry
	requestsTotal          prometheus.Counter
	errorsTotal            prometheus.Counter
	takesTotal             prometheus.Counter
	queuedSegmentsConsumed prometheus.Counter
	quickLoopWrapsTotal    prometheus.Counter
	endOfRundownTotal      prometheus.Counter
	activePlaylists        prometheus.Gauge
}

// New creates and registers Prometheus metrics for the orchestrator.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rundown_requests_total",
			Help: "Total number of HTTP requests received",
		}),
		errorsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rundown_errors_total",
			Help: "Total number of HTTP responses with error status (4xx or 5xx)",
		}),
		takesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rundown_takes_total",
			Help: "Total number of takes",
		}),
		queuedSegmentsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rundown_queued_segments_consumed_total",
			Help: "Total number of takes that jumped to a queued segment",
		}),
		quickLoopWrapsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rundown_quickloop_wraps_total",
			Help: "Total number of times the next part wrapped to the QuickLoop start",
		}),
		endOfRundownTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rundown_end_of_rundown_total",
			Help: "Total number of takes that left nothing to set as next",
		}),
		activePlaylists: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rundown_active_playlists",
			Help: "Number of activated playlists",
		}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.errorsTotal,
		m.takesTotal,
		m.queuedSegmentsConsumed,
		m.quickLoopWrapsTotal,
		m.endOfRundownTotal,
		m.activePlaylists,
	)
	return m
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// IncTakes increments the takes counter.
func (m *Metrics) IncTakes() {
	m.takesTotal.Inc()
}

// IncQueuedSegmentsConsumed increments the queued segment counter.
func (m *Metrics) IncQueuedSegmentsConsumed() {
	m.queuedSegmentsConsumed.Inc()
}

// IncQuickLoopWraps increments the loop wrap counter.
func (m *Metrics) IncQuickLoopWraps() {
	m.quickLoopWrapsTotal.Inc()
}

// IncEndOfRundown increments the end of rundown counter.
func (m *Metrics) IncEndOfRundown() {
	m.endOfRundownTotal.Inc()
}

// SetActivePlaylists sets the active playlists gauge.
func (m *Metrics) SetActivePlaylists(n int) {
	m.activePlaylists.Set(float64(n))
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values (e.g. active playlists).
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
