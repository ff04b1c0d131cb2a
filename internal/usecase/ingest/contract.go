package ingest

import (
	"context"

	"github.com/kailas-cloud/know/internal/domain"
)

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Store defines the vector store contract for ingestion.
type Store interface {
	EnsureCollection(ctx context.Context, name string, dimension int) error
	UpsertBatch(ctx context.Context, collection string, chunks []domain.DocumentChunk, vectors [][]float32) error
}

// Extractor converts a file on disk into plain text.
type Extractor interface {
	Probe(ctx context.Context) bool
	Extract(ctx context.Context, path string) (string, error)
}

// Splitter breaks extracted text into budgeted chunks.
type Splitter interface {
	Split(text string) []string
}
