package query

import (
	"context"

	"github.com/kailas-cloud/know/internal/domain"
)

// Backend answers with the configured LLM provider.
type Backend interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Generate(ctx context.Context, prompt, contextText string) (string, error)
}

// Store defines the vector store contract for retrieval.
type Store interface {
	Search(ctx context.Context, collection string, vector []float32, limit int) ([]domain.DocumentChunk, error)
	CollectionInfo(ctx context.Context, name string) (*domain.CollectionInfo, error)
}
