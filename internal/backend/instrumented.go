package backend

import (
	"context"
	"time"

	"github.com/kailas-cloud/know/internal/metrics"
)

// Instrumented wraps a committed Backend with Prometheus metrics.
// Probing stays uninstrumented by the wrapper; probe outcomes are
// recorded separately during detection.
type Instrumented struct {
	inner Backend
}

// NewInstrumented wraps a backend with request metrics.
func NewInstrumented(inner Backend) *Instrumented {
	return &Instrumented{inner: inner}
}

func (i *Instrumented) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	vec, err := i.inner.Embed(ctx, text)
	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues(i.Name(), "error").Inc()
		return nil, err
	}
	metrics.EmbeddingRequestsTotal.WithLabelValues(i.Name(), "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(i.Name()).Observe(duration.Seconds())
	return vec, nil
}

func (i *Instrumented) Generate(ctx context.Context, prompt, contextText string) (string, error) {
	start := time.Now()
	out, err := i.inner.Generate(ctx, prompt, contextText)
	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues(i.Name(), "error").Inc()
		return "", err
	}
	metrics.GenerationRequestsTotal.WithLabelValues(i.Name(), "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues(i.Name()).Observe(duration.Seconds())
	return out, nil
}

func (i *Instrumented) Name() string { return i.inner.Name() }
