package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultOllamaURL        = "http://localhost:11434"
	defaultOllamaGenModel   = "llama3.2"
	defaultOllamaEmbedModel = "nomic-embed-text"
)

// Ollama is the local general model server. Its native API reports model
// errors inside a 200 body, so probing validates the payload, not just
// the status.
type Ollama struct {
	client     *http.Client
	baseURL    string
	genModel   string
	embedModel string
}

// NewOllama creates an Ollama backend. Empty arguments fall back to the
// server defaults.
func NewOllama(baseURL, genModel, embedModel string) *Ollama {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	if genModel == "" {
		genModel = defaultOllamaGenModel
	}
	if embedModel == "" {
		embedModel = defaultOllamaEmbedModel
	}
	return &Ollama{
		client:     &http.Client{Timeout: 300 * time.Second},
		baseURL:    baseURL,
		genModel:   genModel,
		embedModel: embedModel,
	}
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
	Error     string    `json:"error"`
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

func (b *Ollama) Embed(ctx context.Context, text string) ([]float32, error) {
	var resp ollamaEmbedResponse
	err := b.post(ctx, "/api/embeddings", ollamaEmbedRequest{
		Model:  b.embedModel,
		Prompt: text,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("ollama: embed: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("ollama: embed: %s", resp.Error)
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("ollama: embed: empty embedding returned")
	}
	return resp.Embedding, nil
}

func (b *Ollama) Generate(ctx context.Context, prompt, contextText string) (string, error) {
	fullPrompt := fmt.Sprintf("%s\n\nQuestion: %s", systemPrompt(contextText), prompt)

	var resp ollamaGenerateResponse
	err := b.post(ctx, "/api/generate", ollamaGenerateRequest{
		Model:  b.genModel,
		Prompt: fullPrompt,
		Stream: false,
	}, &resp)
	if err != nil {
		return "", fmt.Errorf("ollama: generate: %w", err)
	}
	if resp.Error != "" {
		return "", fmt.Errorf("ollama: generate: %s", resp.Error)
	}
	if resp.Response == "" {
		return "", fmt.Errorf("ollama: generate: empty response returned")
	}
	return resp.Response, nil
}

func (b *Ollama) Name() string { return "ollama" }

// Probe verifies both configured models with synthetic requests.
// Ollama has no health endpoint that accounts for pulled models, so a
// real embedding and a real generation round trip are required.
func (b *Ollama) Probe(ctx context.Context) bool {
	embedCtx, cancel := context.WithTimeout(ctx, probeCallBudget)
	defer cancel()
	if vec, err := b.Embed(embedCtx, "test"); err != nil || len(vec) == 0 {
		return false
	}

	genCtx, cancel := context.WithTimeout(ctx, probeCallBudget)
	defer cancel()
	out, err := b.Generate(genCtx, "Hi", "")
	return err == nil && out != ""
}

func (b *Ollama) post(ctx context.Context, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Model errors arrive as JSON bodies with non-200 statuses too;
	// decode first so the error field wins over a bare status message.
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
