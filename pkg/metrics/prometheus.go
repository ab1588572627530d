// Package metrics provides Prometheus metrics for the wit-arcade leaderboard service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Default metrics configuration constants.
const (
	DefaultNamespace       = "witarcade"
	defaultRefreshInterval = 10 * time.Second
)

// Submission outcomes.
const (
	SubmissionAccepted = "accepted"
	SubmissionReplayed = "replayed"
	SubmissionRejected = "rejected"
)

// Round outcomes.
const (
	RoundWon  = "won"
	RoundLost = "lost"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace       string
	enabled         bool
	refreshInterval time.Duration
	registry        prometheus.Registerer

	// Leaderboard
	scoreSubmissions     *prometheus.CounterVec
	submissionRejections *prometheus.CounterVec
	leaderboardQueries   prometheus.Counter
	leaderboardEntries   prometheus.Gauge
	idempotencyKeys      prometheus.Gauge

	// Store
	storeLatency *prometheus.HistogramVec
	storeErrors  *prometheus.CounterVec

	// Game
	roundsStarted  prometheus.Counter
	roundsFinished *prometheus.CounterVec
	guesses        *prometheus.CounterVec
	activeSessions prometheus.Gauge
	suggestLatency prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
	errorRateByType     *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:       DefaultNamespace,
		enabled:         true,
		refreshInterval: defaultRefreshInterval,
		registry:        prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

// RefreshInterval reports how often system gauges should be sampled.
func (m *Manager) RefreshInterval() time.Duration { return m.refreshInterval }

// RefreshInterval reports the global manager's sampling interval.
func RefreshInterval() time.Duration { return globalManager.RefreshInterval() }

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.scoreSubmissions = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "score_submissions_total",
		Help:      "Score submissions by result (accepted, replayed, rejected)",
	}, []string{"result"})

	m.submissionRejections = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "score_rejections_total",
		Help:      "Rejected score submissions by reason",
	}, []string{"reason"})

	m.leaderboardQueries = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "leaderboard_queries_total",
		Help:      "Total number of leaderboard reads",
	})

	m.leaderboardEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "leaderboard_entries",
		Help:      "Number of stored leaderboard entries",
	})

	m.idempotencyKeys = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "idempotency_keys",
		Help:      "Idempotency keys currently remembered",
	})

	m.storeLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "store_latency_milliseconds",
		Help:      "Leaderboard store operation latency in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	}, []string{"op"})

	m.storeErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "store_errors_total",
		Help:      "Leaderboard store failures by operation",
	}, []string{"op"})

	m.roundsStarted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "rounds_started_total",
		Help:      "Rounds started across all play sessions",
	})

	m.roundsFinished = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "rounds_finished_total",
		Help:      "Rounds that reached a terminal state, by outcome",
	}, []string{"outcome"})

	m.guesses = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "guesses_total",
		Help:      "Guesses submitted, by outcome",
	}, []string{"outcome"})

	m.activeSessions = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "play_sessions_active",
		Help:      "Currently connected play sessions",
	})

	m.suggestLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "suggest_latency_microseconds",
		Help:      "Autocomplete ranking latency in microseconds",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 5000},
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "errors_by_endpoint_total",
		Help:      "HTTP errors by endpoint, method and error type",
	}, []string{"endpoint", "method", "error_type"})

	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "errors_by_type_total",
		Help:      "Errors by type and severity",
	}, []string{"error_type", "severity"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "system_memory_bytes",
		Help:      "Heap bytes currently allocated",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "system_goroutines",
		Help:      "Current number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "system_gc_pause_milliseconds",
		Help:      "Most recent GC pause in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// RecordSubmission counts a score submission by result.
func RecordSubmission(result string) {
	if !globalManager.enabled {
		return
	}
	globalManager.scoreSubmissions.WithLabelValues(result).Inc()
}

// RecordSubmissionRejected counts a rejected submission by reason.
func RecordSubmissionRejected(reason string) {
	if !globalManager.enabled {
		return
	}
	globalManager.scoreSubmissions.WithLabelValues(SubmissionRejected).Inc()
	globalManager.submissionRejections.WithLabelValues(reason).Inc()
}

// RecordLeaderboardQuery increments the leaderboard read counter.
func RecordLeaderboardQuery() {
	if !globalManager.enabled {
		return
	}
	globalManager.leaderboardQueries.Inc()
}

// UpdateLeaderboardEntries sets the stored entry gauge.
func UpdateLeaderboardEntries(count int64) {
	globalManager.leaderboardEntries.Set(float64(count))
}

// UpdateIdempotencyKeys sets the idempotency cache size gauge.
func UpdateIdempotencyKeys(count int) {
	globalManager.idempotencyKeys.Set(float64(count))
}

// RecordStoreLatency records a store operation latency in milliseconds.
func RecordStoreLatency(op string, latencyMs float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.storeLatency.WithLabelValues(op).Observe(latencyMs)
}

// RecordStoreError counts a failed store operation.
func RecordStoreError(op string) {
	if !globalManager.enabled {
		return
	}
	globalManager.storeErrors.WithLabelValues(op).Inc()
}

// RecordRoundStarted increments the rounds started counter.
func RecordRoundStarted() {
	if !globalManager.enabled {
		return
	}
	globalManager.roundsStarted.Inc()
}

// RecordRoundFinished counts a terminal round by outcome (won or lost).
func RecordRoundFinished(outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.roundsFinished.WithLabelValues(outcome).Inc()
}

// RecordGuess counts a guess by outcome.
func RecordGuess(outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.guesses.WithLabelValues(outcome).Inc()
}

// SessionOpened increments the active play session gauge.
func SessionOpened() { globalManager.activeSessions.Inc() }

// SessionClosed decrements the active play session gauge.
func SessionClosed() { globalManager.activeSessions.Dec() }

// RecordSuggestLatency records ranking latency.
func RecordSuggestLatency(d time.Duration) {
	if !globalManager.enabled {
		return
	}
	globalManager.suggestLatency.Observe(float64(d.Microseconds()))
}

// RecordHTTPRequest increments the HTTP requests counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records errors by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByType records errors by type and severity.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// Configure replaces the global manager with one built from opts on a fresh
// registry. Call it once at startup, before Handler and before anything is
// recorded.
func Configure(opts ...Option) {
	registry := prometheus.NewRegistry()
	globalManager = NewManager(append(opts, WithPrometheusRegistry(registry))...)
	customRegistry = registry
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Handler serves the custom registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(customRegistry, promhttp.HandlerOpts{})
}
