package backend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/know/internal/domain"
	"github.com/kailas-cloud/know/internal/metrics"
)

// Options selects and parameterizes the backend. All fields are
// optional; empty fields fall back to per-provider defaults.
type Options struct {
	// Provider pins a specific backend (llamacpp, ollama, openai).
	// Empty means auto-detect.
	Provider   string
	BaseURL    string
	GenModel   string
	EmbedModel string
	APIKey     string
}

// Detect returns the backend to use for this process. A pinned provider
// is instantiated unconditionally; otherwise candidates are probed in
// priority order (most local first, hosted last) and the first one whose
// probe passes wins. The winner is wrapped with metrics.
//
// When every probe fails, the returned error enumerates the required
// models and the remediation step per provider family; it is the only
// feedback the operator gets when all providers are down.
func Detect(ctx context.Context, opts Options, logger *zap.Logger) (Backend, error) {
	if opts.Provider != "" {
		pinned, err := pin(opts)
		if err != nil {
			return nil, err
		}
		logger.Info("backend pinned", zap.String("backend", pinned.Name()))
		return NewInstrumented(pinned), nil
	}

	candidates := []prober{
		NewLlamaCpp(opts.BaseURL, opts.GenModel, opts.EmbedModel),
		NewOllama(opts.BaseURL, opts.GenModel, opts.EmbedModel),
		NewOpenAI("", opts.GenModel, opts.EmbedModel, opts.APIKey),
	}

	for _, candidate := range candidates {
		if candidate.Probe(ctx) {
			metrics.BackendProbesTotal.WithLabelValues(candidate.Name(), "available").Inc()
			logger.Info("backend selected", zap.String("backend", candidate.Name()))
			return NewInstrumented(candidate), nil
		}
		metrics.BackendProbesTotal.WithLabelValues(candidate.Name(), "unavailable").Inc()
		logger.Debug("backend probe failed", zap.String("backend", candidate.Name()))
	}

	return nil, noBackendError(opts)
}

// pin instantiates the explicitly requested provider without probing.
func pin(opts Options) (Backend, error) {
	switch opts.Provider {
	case "llamacpp":
		return NewLlamaCpp(opts.BaseURL, opts.GenModel, opts.EmbedModel), nil
	case "ollama":
		return NewOllama(opts.BaseURL, opts.GenModel, opts.EmbedModel), nil
	case "openai":
		return NewOpenAI(opts.BaseURL, opts.GenModel, opts.EmbedModel, opts.APIKey), nil
	default:
		return nil, fmt.Errorf("unknown backend provider %q (want llamacpp, ollama, or openai)", opts.Provider)
	}
}

// noBackendError builds the composite remediation message. The model
// names shown are the effective ones after defaulting, per family.
func noBackendError(opts Options) error {
	llamacpp := NewLlamaCpp(opts.BaseURL, opts.GenModel, opts.EmbedModel)
	ollama := NewOllama(opts.BaseURL, opts.GenModel, opts.EmbedModel)

	return fmt.Errorf(`%w

Required models:
  - generation: %s (llama.cpp) / %s (ollama)
  - embedding:  %s (llama.cpp) / %s (ollama)

Please either:
  1. Start the llama.cpp model runtime and load the models:
       docker model pull %s
       docker model pull %s
  2. Start Ollama and pull the models:
       ollama pull %s
       ollama pull %s
  3. Set OPENAI_API_KEY to use the hosted API

Or point at different models with KNOW_MODEL and KNOW_EMBED_MODEL`,
		domain.ErrNoBackend,
		llamacpp.genModel, ollama.genModel,
		llamacpp.embedModel, ollama.embedModel,
		llamacpp.genModel, llamacpp.embedModel,
		ollama.genModel, ollama.embedModel,
	)
}
