package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reminder outcomes
const (
	OutcomeSent    = "sent"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

var (
	// Reminders evaluated by the dispatcher, by outcome
	RemindersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habitual_reminders_total",
			Help: "Total number of habit reminders by outcome",
		},
		[]string{"outcome"},
	)

	// Dispatcher run duration (seconds)
	DispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "habitual_dispatch_duration_seconds",
			Help:    "Duration of one reminder dispatch run in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~16s
		},
	)

	// Completions registered or removed, by source (api, cli, tui)
	CompletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "habitual_completions_total",
			Help: "Total number of habit completions registered or unregistered",
		},
		[]string{"action", "source"},
	)

	// HTTP request latency (seconds)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "habitual_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "route", "status"},
	)
)

// IncrementReminder counts one reminder outcome.
func IncrementReminder(outcome string) {
	RemindersTotal.WithLabelValues(outcome).Inc()
}

// RecordDispatchDuration records how long a dispatcher run took.
func RecordDispatchDuration(duration time.Duration) {
	DispatchDuration.Observe(duration.Seconds())
}

// IncrementCompletion counts a register or unregister action.
func IncrementCompletion(action, source string) {
	CompletionsTotal.WithLabelValues(action, source).Inc()
}

// RecordHTTPRequestDuration records one HTTP request.
func RecordHTTPRequestDuration(method, route, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}
