// Package backend provides a uniform capability layer over
// interchangeable LLM providers: a local llama.cpp runtime, a local
// Ollama server, and the hosted OpenAI API. Callers never branch on
// which provider is active.
package backend

import (
	"context"
	"fmt"
	"time"
)

// Backend exposes the embedding and generation capabilities of one provider.
type Backend interface {
	// Embed returns the embedding vector for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// Generate answers prompt using only the supplied context text.
	Generate(ctx context.Context, prompt, contextText string) (string, error)
	// Name identifies the provider for logs and health reporting.
	Name() string
}

// prober extends Backend with a total availability check: a probe never
// returns an error, only a verdict.
type prober interface {
	Backend
	Probe(ctx context.Context) bool
}

const (
	probeTimeout    = 5 * time.Second
	probeCallBudget = 30 * time.Second
)

// systemInstruction is the fixed generation template. The model is
// directed to stay within the retrieved context and to admit when the
// context is insufficient.
const systemInstruction = "You are a helpful assistant. Answer the user's question using only the context provided below. " +
	"If the context doesn't contain relevant information, say so.\n\nContext:\n%s"

func systemPrompt(contextText string) string {
	return fmt.Sprintf(systemInstruction, contextText)
}
