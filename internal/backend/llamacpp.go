package backend

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultLlamaCppURL        = "http://localhost:12434/engines/llama.cpp/v1"
	defaultLlamaCppGenModel   = "ai/llama3.2:3B-Q8_0"
	defaultLlamaCppEmbedModel = "ai/mxbai-embed-large:335M-F16"
)

// LlamaCpp is the local llama.cpp model runtime. It speaks the
// OpenAI-shaped API without authentication and is the fastest candidate,
// so it is probed first.
type LlamaCpp struct {
	client     *openai.Client
	genModel   string
	embedModel string
}

// NewLlamaCpp creates a llama.cpp runtime backend. Empty arguments fall
// back to the runtime defaults.
func NewLlamaCpp(baseURL, genModel, embedModel string) *LlamaCpp {
	if baseURL == "" {
		baseURL = defaultLlamaCppURL
	}
	if genModel == "" {
		genModel = defaultLlamaCppGenModel
	}
	if embedModel == "" {
		embedModel = defaultLlamaCppEmbedModel
	}

	cfg := openai.DefaultConfig("")
	cfg.BaseURL = baseURL

	return &LlamaCpp{
		client:     openai.NewClientWithConfig(cfg),
		genModel:   genModel,
		embedModel: embedModel,
	}
}

func (b *LlamaCpp) Embed(ctx context.Context, text string) ([]float32, error) {
	return embedViaOpenAIAPI(ctx, b.client, b.embedModel, text, b.Name())
}

func (b *LlamaCpp) Generate(ctx context.Context, prompt, contextText string) (string, error) {
	return generateViaOpenAIAPI(ctx, b.client, b.genModel, prompt, contextText, b.Name())
}

func (b *LlamaCpp) Name() string { return "llama.cpp" }

// Probe checks that the runtime answers its models endpoint and that the
// configured embedding model actually produces a vector. A transport
// that is up with the model absent must not pass.
func (b *LlamaCpp) Probe(ctx context.Context) bool {
	listCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	if _, err := b.client.ListModels(listCtx); err != nil {
		return false
	}

	embedCtx, cancel := context.WithTimeout(ctx, probeCallBudget)
	defer cancel()
	vec, err := b.Embed(embedCtx, "test")
	return err == nil && len(vec) > 0
}
