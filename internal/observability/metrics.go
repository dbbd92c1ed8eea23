package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce          sync.Once
	apiRequestsTotal      *prometheus.CounterVec
	apiLatencySeconds     *prometheus.HistogramVec
	apiErrorsTotal        *prometheus.CounterVec
	scoresTotal           *prometheus.CounterVec
	sessionsTotal         *prometheus.CounterVec
	reaperInvitations     *prometheus.CounterVec
	reaperTickSeconds     prometheus.Histogram
	completionEventsTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API and the lifecycle engine.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codeassess_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "codeassess_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0, 30.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codeassess_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		scoresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codeassess_scores_total",
			Help: "Scored answers by the source that produced the grade.",
		}, []string{"source"})

		sessionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codeassess_sessions_total",
			Help: "Test session lifecycle events.",
		}, []string{"event"})

		reaperInvitations = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codeassess_reaper_invitations_total",
			Help: "Invitations processed by the timeout reaper by outcome.",
		}, []string{"outcome"})

		reaperTickSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "codeassess_reaper_tick_seconds",
			Help:    "Duration of timeout reaper ticks.",
			Buckets: prometheus.DefBuckets,
		})

		completionEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "codeassess_completion_events_total",
			Help: "Assessment completion events by trigger.",
		}, []string{"trigger"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			scoresTotal,
			sessionsTotal,
			reaperInvitations,
			reaperTickSeconds,
			completionEventsTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// Scores exposes the scored-answer counter labelled by source.
func Scores() *prometheus.CounterVec {
	RegisterMetrics()
	return scoresTotal
}

// Sessions exposes the session lifecycle counter.
func Sessions() *prometheus.CounterVec {
	RegisterMetrics()
	return sessionsTotal
}

// ReaperInvitations exposes the reaper outcome counter.
func ReaperInvitations() *prometheus.CounterVec {
	RegisterMetrics()
	return reaperInvitations
}

// ReaperTickDuration exposes the reaper tick histogram.
func ReaperTickDuration() prometheus.Histogram {
	RegisterMetrics()
	return reaperTickSeconds
}

// CompletionEvents exposes the completion counter labelled by trigger.
func CompletionEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return completionEventsTotal
}

// MetricsHandler serves the Prometheus scrape endpoint through Fiber.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.Handler())
}
