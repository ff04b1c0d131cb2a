package backend

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultOpenAIGenModel   = "gpt-4o"
	defaultOpenAIEmbedModel = "text-embedding-3-small"
)

// OpenAI is the hosted, bearer-authenticated API. Last in the probe
// order because it is the only candidate that costs money per request.
type OpenAI struct {
	client     *openai.Client
	apiKey     string
	genModel   string
	embedModel string
}

// NewOpenAI creates a hosted API backend. An empty base URL targets the
// official endpoint; compatible providers can be pointed at via baseURL.
func NewOpenAI(baseURL, genModel, embedModel, apiKey string) *OpenAI {
	if genModel == "" {
		genModel = defaultOpenAIGenModel
	}
	if embedModel == "" {
		embedModel = defaultOpenAIEmbedModel
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return &OpenAI{
		client:     openai.NewClientWithConfig(cfg),
		apiKey:     apiKey,
		genModel:   genModel,
		embedModel: embedModel,
	}
}

func (b *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	return embedViaOpenAIAPI(ctx, b.client, b.embedModel, text, b.Name())
}

func (b *OpenAI) Generate(ctx context.Context, prompt, contextText string) (string, error) {
	return generateViaOpenAIAPI(ctx, b.client, b.genModel, prompt, contextText, b.Name())
}

func (b *OpenAI) Name() string { return "openai" }

// Probe passes when an API key is configured. No synthetic request is
// made: a paid round trip per process start is not worth it, and a bad
// key surfaces as a hard error on first real use anyway.
func (b *OpenAI) Probe(_ context.Context) bool {
	return b.apiKey != ""
}
