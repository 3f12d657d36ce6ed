package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the overlay host.
type Metrics struct {
	registry            *prometheus.Registry
	requestsTotal       prometheus.Counter
	framesRenderedTotal prometheus.Counter
	framesDroppedTotal  prometheus.Counter
	controlEventsTotal  *prometheus.CounterVec
	splitsSavedTotal    prometheus.Counter
	instances           prometheus.Gauge
	sharedTimers        prometheus.Gauge
	errorsTotal         prometheus.Counter
}

// New creates and registers Prometheus metrics for the overlay host.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "overlay_requests_total",
		Help: "Total number of HTTP requests received",
	})
	framesRenderedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "overlay_frames_rendered_total",
		Help: "Total number of frames rasterized and uploaded",
	})
	framesDroppedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "overlay_frames_dropped_total",
		Help: "Total number of frames dropped due to a concurrent resize",
	})
	controlEventsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "overlay_control_events_total",
		Help: "Total number of control events dispatched, by action",
	}, []string{"action"})
	splitsSavedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "overlay_splits_saved_total",
		Help: "Total number of save-splits writes performed",
	})
	instances := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "overlay_instances",
		Help: "Number of live overlay instances",
	})
	sharedTimers := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "overlay_shared_timers",
		Help: "Number of live shared timers",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "overlay_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})

	registry.MustRegister(
		requestsTotal,
		framesRenderedTotal,
		framesDroppedTotal,
		controlEventsTotal,
		splitsSavedTotal,
		instances,
		sharedTimers,
		errorsTotal,
	)

	return &Metrics{
		registry:            registry,
		requestsTotal:       requestsTotal,
		framesRenderedTotal: framesRenderedTotal,
		framesDroppedTotal:  framesDroppedTotal,
		controlEventsTotal:  controlEventsTotal,
		splitsSavedTotal:    splitsSavedTotal,
		instances:           instances,
		sharedTimers:        sharedTimers,
		errorsTotal:         errorsTotal,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncFramesRendered increments the rendered-frame counter.
func (m *Metrics) IncFramesRendered() {
	m.framesRenderedTotal.Inc()
}

// IncFramesDropped increments the dropped-frame counter.
func (m *Metrics) IncFramesDropped() {
	m.framesDroppedTotal.Inc()
}

// IncControlEvents increments the control-event counter for one action.
func (m *Metrics) IncControlEvents(action string) {
	m.controlEventsTotal.WithLabelValues(action).Inc()
}

// IncSplitsSaved increments the save-splits counter.
func (m *Metrics) IncSplitsSaved() {
	m.splitsSavedTotal.Inc()
}

// SetInstances sets the live-instance gauge.
func (m *Metrics) SetInstances(n int) {
	m.instances.Set(float64(n))
}

// SetSharedTimers sets the shared-timer gauge.
func (m *Metrics) SetSharedTimers(n int) {
	m.sharedTimers.Set(float64(n))
}

// IncErrors increments the errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values.
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
