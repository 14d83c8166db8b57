// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Analysis metrics
	AnalysesTotal    *prometheus.CounterVec
	AnalysisDuration *prometheus.HistogramVec
	OverallScore     *prometheus.HistogramVec
	SignalsDetected  *prometheus.CounterVec

	// Chain data metrics
	ExplorerRequests *prometheus.CounterVec
	ExplorerLatency  *prometheus.HistogramVec
	RPCCallLatency   *prometheus.HistogramVec
	RPCCallErrors    *prometheus.CounterVec

	// Creator trace metrics
	SiblingsChecked prometheus.Counter
	CreatorRedFlags *prometheus.CounterVec

	// Interaction graph metrics
	GraphNodes         prometheus.Histogram
	CyclesFound        prometheus.Counter
	CycleSearchAborted prometheus.Counter

	// Cache metrics
	CacheLookups *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Event metrics
	EventsPublished *prometheus.CounterVec

	// Health metrics
	LastSuccessfulAnalysis prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "contract_risk_lab"
	}

	return &Metrics{
		AnalysesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Total analyses by kind and status",
		}, []string{"kind", "status"}),
		AnalysisDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Analysis duration by kind",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"kind"}),
		OverallScore: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "overall_score",
			Help:      "Distribution of overall scores by kind",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 85, 100},
		}, []string{"kind"}),
		SignalsDetected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "signals_detected_total",
			Help:      "Risk signals detected by kind and severity",
		}, []string{"kind", "severity"}),

		ExplorerRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "explorer",
			Name:      "requests_total",
			Help:      "Explorer API requests by action and status",
		}, []string{"action", "status"}),
		ExplorerLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "explorer",
			Name:      "request_latency_seconds",
			Help:      "Explorer API latency by action",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
		RPCCallLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "call_latency_seconds",
			Help:      "JSON-RPC call latency by method",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		RPCCallErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "call_errors_total",
			Help:      "JSON-RPC call errors by method",
		}, []string{"method"}),

		SiblingsChecked: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "creator",
			Name:      "siblings_checked_total",
			Help:      "Sibling contracts deep-checked",
		}),
		CreatorRedFlags: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "creator",
			Name:      "red_flags_total",
			Help:      "Deployer red flags by kind",
		}, []string{"kind"}),

		GraphNodes: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "interaction",
			Name:      "graph_nodes",
			Help:      "Node count of built interaction graphs",
			Buckets:   []float64{2, 5, 10, 25, 50, 100, 250, 500},
		}),
		CyclesFound: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "interaction",
			Name:      "cycles_found_total",
			Help:      "Circular flows found",
		}),
		CycleSearchAborted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "interaction",
			Name:      "cycle_search_aborted_total",
			Help:      "Cycle searches stopped by the visit budget",
		}),

		CacheLookups: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Freshness cache lookups by kind and result",
		}, []string{"kind", "result"}),

		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Database query errors",
		}, []string{"database", "operation"}),

		EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Analysis events published by type and status",
		}, []string{"type", "status"}),

		LastSuccessfulAnalysis: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_analysis_timestamp",
			Help:      "Unix timestamp of last successful analysis",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordAnalysis records a finished analysis run.
func RecordAnalysis(kind string, durationSeconds float64, err error) {
	DefaultMetrics.AnalysesTotal.WithLabelValues(kind, statusLabel(err)).Inc()
	DefaultMetrics.AnalysisDuration.WithLabelValues(kind).Observe(durationSeconds)
}

// RecordScore records the overall score of an analysis.
func RecordScore(kind string, overall int) {
	DefaultMetrics.OverallScore.WithLabelValues(kind).Observe(float64(overall))
}

// RecordSignal increments the detected signal counter.
func RecordSignal(kind, severity string) {
	DefaultMetrics.SignalsDetected.WithLabelValues(kind, severity).Inc()
}

// RecordExplorerRequest records an explorer API request.
func RecordExplorerRequest(action string, seconds float64, err error) {
	DefaultMetrics.ExplorerRequests.WithLabelValues(action, statusLabel(err)).Inc()
	DefaultMetrics.ExplorerLatency.WithLabelValues(action).Observe(seconds)
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64, err error) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
	if err != nil {
		DefaultMetrics.RPCCallErrors.WithLabelValues(method).Inc()
	}
}

// RecordSiblingChecked increments the deep-checked sibling counter.
func RecordSiblingChecked() {
	DefaultMetrics.SiblingsChecked.Inc()
}

// RecordCreatorRedFlag increments the red flag counter.
func RecordCreatorRedFlag(kind string) {
	DefaultMetrics.CreatorRedFlags.WithLabelValues(kind).Inc()
}

// RecordGraph records the size and cycle search outcome of a graph.
func RecordGraph(nodes, cycles int, aborted bool) {
	DefaultMetrics.GraphNodes.Observe(float64(nodes))
	DefaultMetrics.CyclesFound.Add(float64(cycles))
	if aborted {
		DefaultMetrics.CycleSearchAborted.Inc()
	}
}

// RecordCacheLookup records a freshness cache hit or miss.
func RecordCacheLookup(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	DefaultMetrics.CacheLookups.WithLabelValues(kind, result).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

// RecordEventPublished records an event publication attempt.
func RecordEventPublished(eventType string, err error) {
	DefaultMetrics.EventsPublished.WithLabelValues(eventType, statusLabel(err)).Inc()
}

// UpdateLastSuccessfulAnalysis sets the last successful analysis timestamp.
func UpdateLastSuccessfulAnalysis(unix int64) {
	DefaultMetrics.LastSuccessfulAnalysis.Set(float64(unix))
}
