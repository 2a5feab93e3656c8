package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the controller's global metrics container.
type Metrics struct {
	// HTTP control-plane metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Route solving
	RouteSolveTotal    *prometheus.CounterVec
	RouteSolveDuration *prometheus.HistogramVec
	ACOIterationsTotal prometheus.Counter
	ACOBestCost        *prometheus.GaugeVec

	// Simulation / graph state
	EpochTicksTotal  prometheus.Counter
	LinkTogglesTotal prometheus.Counter
	GraphNodesTotal  prometheus.Gauge
	GraphLinksTotal  prometheus.Gauge

	// Event fabric
	ActiveSubscribers prometheus.Gauge
	DroppedFrames     prometheus.Counter

	// TCP relay
	TCPRelayTotal *prometheus.CounterVec

	// Runtime / process
	MemoryUsage *prometheus.GaugeVec
	Goroutines  prometheus.Gauge
	ServiceInfo *prometheus.GaugeVec
}

var defaultMetrics *Metrics

// InitMetrics builds and registers the controller's Prometheus collectors
// under the given namespace/subsystem.
func InitMetrics(namespace, subsystem string) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests handled by the control plane",
			},
			[]string{"method", "path", "status"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),

		RouteSolveTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "route_solve_total",
				Help:      "Total number of /route solve attempts",
			},
			[]string{"method", "outcome"}, // method: aco, bfs_fallback; outcome: ok, infeasible
		),

		RouteSolveDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "route_solve_duration_seconds",
				Help:      "Duration of ACO route solves",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method"},
		),

		ACOIterationsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "aco_iterations_total",
				Help:      "Total number of ACO solver iterations executed",
			},
		),

		ACOBestCost: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "aco_best_cost",
				Help:      "Best path cost found by the last ACO solve, by source-destination pair",
			},
			[]string{"src", "dst"},
		),

		EpochTicksTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "epoch_ticks_total",
				Help:      "Total number of mobility/epoch updates applied",
			},
		),

		LinkTogglesTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "link_toggles_total",
				Help:      "Total number of link enabled/disabled toggles, manual and epoch-driven",
			},
		),

		GraphNodesTotal: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "graph_nodes",
				Help:      "Current number of nodes in the graph state",
			},
		),

		GraphLinksTotal: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "graph_links",
				Help:      "Current number of links in the graph state",
			},
		),

		ActiveSubscribers: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "event_subscribers",
				Help:      "Current number of connected SSE subscribers",
			},
		),

		DroppedFrames: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "event_frames_dropped_total",
				Help:      "Total number of event frames dropped due to a full subscriber queue",
			},
		),

		TCPRelayTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "tcp_relay_total",
				Help:      "Total number of TCP relay hop attempts",
			},
			[]string{"outcome"}, // ok, dial_error, timeout
		),

		MemoryUsage: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "memory_usage_bytes",
				Help:      "Current process memory usage",
			},
			[]string{"type"},
		),

		Goroutines: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "goroutines",
				Help:      "Current number of goroutines",
			},
		),

		ServiceInfo: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "service_info",
				Help:      "Service build/environment information",
			},
			[]string{"version", "environment"},
		),
	}

	defaultMetrics = m
	return m
}

// Get returns the process-wide metrics, initializing them with fallback
// defaults if InitMetrics was never called.
func Get() *Metrics {
	if defaultMetrics == nil {
		return InitMetrics("sagsin", "controller")
	}
	return defaultMetrics
}

// RecordHTTPRequest records one HTTP request/response cycle.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordRouteSolve records the outcome of a single /route solve.
func (m *Metrics) RecordRouteSolve(method, outcome string, duration time.Duration) {
	m.RouteSolveTotal.WithLabelValues(method, outcome).Inc()
	m.RouteSolveDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordACOIterations adds to the cumulative ACO iteration counter and
// records the best cost found for a source-destination pair.
func (m *Metrics) RecordACOIterations(n int, src, dst string, bestCost float64) {
	m.ACOIterationsTotal.Add(float64(n))
	m.ACOBestCost.WithLabelValues(src, dst).Set(bestCost)
}

// RecordEpochTick records one mobility/epoch update cycle.
func (m *Metrics) RecordEpochTick() {
	m.EpochTicksTotal.Inc()
}

// RecordLinkToggle records one link enabled/disabled transition.
func (m *Metrics) RecordLinkToggle() {
	m.LinkTogglesTotal.Inc()
}

// SetGraphSize sets the current node/link counts gauge.
func (m *Metrics) SetGraphSize(nodes, links int) {
	m.GraphNodesTotal.Set(float64(nodes))
	m.GraphLinksTotal.Set(float64(links))
}

// SetActiveSubscribers sets the current SSE subscriber count.
func (m *Metrics) SetActiveSubscribers(n int) {
	m.ActiveSubscribers.Set(float64(n))
}

// RecordDroppedFrame records one event frame dropped for a full subscriber
// queue.
func (m *Metrics) RecordDroppedFrame() {
	m.DroppedFrames.Inc()
}

// RecordTCPRelay records the outcome of a single TCP relay hop.
func (m *Metrics) RecordTCPRelay(outcome string) {
	m.TCPRelayTotal.WithLabelValues(outcome).Inc()
}

// SetServiceInfo sets the service_info gauge to 1 for the given labels.
func (m *Metrics) SetServiceInfo(version, environment string) {
	m.ServiceInfo.WithLabelValues(version, environment).Set(1)
}

// Handler returns the HTTP handler serving /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StartMetricsServer starts a dedicated HTTP server exposing /metrics and
// /health on the given port.
func StartMetricsServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK")) //nolint:errcheck // health endpoint, write failure is not actionable
	})

	server := &http.Server{
		Addr:         ":" + strconv.Itoa(port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
