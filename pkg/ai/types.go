package ai

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	completionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "codeassess",
		Subsystem: "ai",
		Name:      "completion_duration_seconds",
		Help:      "Duration of judge completion requests",
	}, []string{"provider", "model"})

	completionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "codeassess",
		Subsystem: "ai",
		Name:      "completion_failures_total",
		Help:      "Number of judge completion failures",
	}, []string{"provider", "model"})
)

// CompletionRequest is a single prompt sent to a generative model.
type CompletionRequest struct {
	System string
	Prompt string
}

// Completer returns the free-text completion of a prompt.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	Provider() string
}
