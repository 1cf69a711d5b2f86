// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Completions counts accepted completions by outcome (on_time, late)
	// plus rejected repeats (already_completed).
	Completions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habithero_completions_total",
			Help: "Habit completions by outcome",
		},
		[]string{"outcome"},
	)

	// Reconciliations counts habits whose stale completed flag was cleared.
	Reconciliations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "habithero_reconciliations_total",
			Help: "Habits reset to pending after their period rolled over",
		},
	)

	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "habithero_store_operation_duration_seconds",
			Help:    "Habit store operation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		},
		[]string{"operation"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "habithero_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "route", "status"},
	)

	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habithero_events_published_total",
			Help: "Domain events handed to the event sink, by routing key and result",
		},
		[]string{"routing_key", "result"},
	)

	// ChallengeDays counts challenge days judged, by result (kept, missed).
	ChallengeDays = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habithero_challenge_days_total",
			Help: "Challenge days judged by evaluation, by result",
		},
		[]string{"result"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habithero_cache_lookups_total",
			Help: "Habit list cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)
)

// RecordCompletion increments the completion counter for outcome.
func RecordCompletion(outcome string) {
	Completions.WithLabelValues(outcome).Inc()
}

// RecordReconciliations adds n cleared habits.
func RecordReconciliations(n int) {
	if n > 0 {
		Reconciliations.Add(float64(n))
	}
}

// ObserveStoreOperation records the time elapsed since start. Use with defer:
//
//	defer metrics.ObserveStoreOperation("load_habits", time.Now())
func ObserveStoreOperation(operation string, start time.Time) {
	StoreOperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// RecordHTTPRequestDuration records one served request.
func RecordHTTPRequestDuration(method, route, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// RecordEventPublished counts a publish attempt.
func RecordEventPublished(routingKey string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	EventsPublished.WithLabelValues(routingKey, result).Inc()
}

// RecordChallengeEvaluation counts the days one evaluation judged, of which
// missed cost a life.
func RecordChallengeEvaluation(judged, missed int) {
	if kept := judged - missed; kept > 0 {
		ChallengeDays.WithLabelValues("kept").Add(float64(kept))
	}
	if missed > 0 {
		ChallengeDays.WithLabelValues("missed").Add(float64(missed))
	}
}

// RecordCacheLookup counts a cache lookup result.
func RecordCacheLookup(result string) {
	CacheLookups.WithLabelValues(result).Inc()
}
