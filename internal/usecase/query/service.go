// Package query answers questions against the ingested knowledge base:
// embed the question, retrieve the closest chunks, and generate grounded
// in their text.
package query

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/know/internal/domain"
)

// DefaultTopK is the number of chunks retrieved per question.
const DefaultTopK = 5

const noMatchesAnswer = "No relevant documents found in the knowledge base for this question."

// Service handles retrieval-augmented question answering.
type Service struct {
	backend    Backend
	store      Store
	collection string
	logger     *zap.Logger
}

// New creates a query service.
func New(backend Backend, store Store, collection string, logger *zap.Logger) *Service {
	return &Service{
		backend:    backend,
		store:      store,
		collection: collection,
		logger:     logger,
	}
}

// Ask answers a question from the knowledge base. A topK of zero or less
// falls back to DefaultTopK. Returns domain.ErrEmptyCollection when
// nothing has been ingested yet.
func (s *Service) Ask(ctx context.Context, question string, topK int) (domain.Answer, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	info, err := s.store.CollectionInfo(ctx, s.collection)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("check collection: %w", err)
	}
	if info == nil || info.PointsCount == 0 {
		return domain.Answer{}, domain.ErrEmptyCollection
	}

	vector, err := s.backend.Embed(ctx, question)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("embed question: %w", err)
	}

	chunks, err := s.store.Search(ctx, s.collection, vector, topK)
	if err != nil {
		return domain.Answer{}, fmt.Errorf("search: %w", err)
	}
	if len(chunks) == 0 {
		return domain.Answer{Text: noMatchesAnswer}, nil
	}

	s.logger.Debug("retrieved context",
		zap.Int("chunks", len(chunks)),
		zap.Int("top_k", topK))

	answer, err := s.backend.Generate(ctx, question, buildContext(chunks))
	if err != nil {
		return domain.Answer{}, fmt.Errorf("generate answer: %w", err)
	}

	return domain.Answer{Text: answer, Sources: sources(chunks)}, nil
}

// buildContext formats retrieved chunks for the generation prompt,
// preserving the store's relevance order.
func buildContext(chunks []domain.DocumentChunk) string {
	parts := make([]string, len(chunks))
	for i, chunk := range chunks {
		parts[i] = fmt.Sprintf("[Source: %s]\n%s", chunk.Source, chunk.Content)
	}
	return strings.Join(parts, "\n---\n")
}

// sources lists the distinct source paths in first-seen order.
func sources(chunks []domain.DocumentChunk) []string {
	seen := make(map[string]struct{}, len(chunks))
	var out []string
	for _, chunk := range chunks {
		if _, ok := seen[chunk.Source]; ok {
			continue
		}
		seen[chunk.Source] = struct{}{}
		out = append(out, chunk.Source)
	}
	return out
}
