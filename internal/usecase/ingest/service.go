// Package ingest walks documents into the vector store: discover files,
// extract text, split into chunks, embed, and upsert one batch per file.
package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/know/internal/domain"
	"github.com/kailas-cloud/know/internal/metrics"
)

// Report summarizes one ingestion run.
type Report struct {
	FilesScanned int
	FilesSkipped int
	ChunksStored int
}

// Service handles document ingestion into a single collection.
type Service struct {
	embed      Embedder
	store      Store
	extract    Extractor
	split      Splitter
	collection string
	logger     *zap.Logger
	prepared   bool
}

// New creates an ingestion service.
func New(embed Embedder, store Store, extract Extractor, split Splitter, collection string, logger *zap.Logger) *Service {
	return &Service{
		embed:      embed,
		store:      store,
		extract:    extract,
		split:      split,
		collection: collection,
		logger:     logger,
	}
}

// Run ingests the file or directory at path. Directories are walked
// recursively and filtered by the extension allow-list; a path naming a
// single file is ingested regardless of its extension. Per-file failures
// are logged and skipped so one bad document never aborts the run.
func (s *Service) Run(ctx context.Context, path string, extensions []string) (Report, error) {
	files, err := discover(path, extensions)
	if err != nil {
		return Report{}, err
	}
	if len(files) == 0 {
		s.logger.Warn("no matching files found",
			zap.String("path", path),
			zap.Strings("extensions", extensions))
		return Report{}, nil
	}

	if err := s.prepare(ctx); err != nil {
		return Report{}, err
	}

	report := Report{FilesScanned: len(files)}
	for _, file := range files {
		stored, err := s.ingestFile(ctx, file)
		if err != nil {
			report.FilesSkipped++
			metrics.FilesSkippedTotal.Inc()
			s.logger.Warn("skipping file", zap.String("file", file), zap.Error(err))
			continue
		}
		report.ChunksStored += stored
	}

	s.logger.Info("ingestion complete",
		zap.Int("files_scanned", report.FilesScanned),
		zap.Int("files_skipped", report.FilesSkipped),
		zap.Int("chunks_stored", report.ChunksStored))
	return report, nil
}

// prepare discovers the embedding dimension with a throwaway request and
// makes sure the collection exists. The dimension is a property of the
// embedding model, not of the documents. Idempotent; later calls are
// no-ops once the collection is known to exist.
func (s *Service) prepare(ctx context.Context) error {
	if s.prepared {
		return nil
	}

	vec, err := s.embed.Embed(ctx, "test")
	if err != nil {
		return fmt.Errorf("determine embedding dimension: %w", err)
	}

	s.extract.Probe(ctx)

	if err := s.store.EnsureCollection(ctx, s.collection, len(vec)); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}
	s.prepared = true
	return nil
}

// ingestFile extracts, splits, embeds, and stores one file. Returns the
// number of chunks stored.
func (s *Service) ingestFile(ctx context.Context, path string) (int, error) {
	text, err := s.extract.Extract(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("extract: %w", err)
	}

	pieces := s.split.Split(text)
	if len(pieces) == 0 {
		s.logger.Debug("file produced no chunks", zap.String("file", path))
		return 0, nil
	}

	chunks := make([]domain.DocumentChunk, len(pieces))
	vectors := make([][]float32, len(pieces))
	for i, content := range pieces {
		vec, err := s.embed.Embed(ctx, content)
		if err != nil {
			return 0, fmt.Errorf("embed chunk %d: %w", i, err)
		}
		chunks[i] = domain.DocumentChunk{
			ID:      chunkID(path, i, content),
			Content: content,
			Source:  path,
		}
		vectors[i] = vec
	}

	if err := s.store.UpsertBatch(ctx, s.collection, chunks, vectors); err != nil {
		return 0, fmt.Errorf("upsert: %w", err)
	}

	metrics.ChunksIngestedTotal.Add(float64(len(chunks)))
	s.logger.Info("file ingested", zap.String("file", path), zap.Int("chunks", len(chunks)))
	return len(chunks), nil
}

// chunkID derives a stable UUID from the chunk's identity, so
// re-ingesting an unchanged file overwrites its points in place.
func chunkID(source string, index int, content string) string {
	name := fmt.Sprintf("%s#%d\n%s", source, index, content)
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(name)).String()
}

// discover resolves path into the list of files to ingest.
func discover(path string, extensions []string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if extensionAllowed(p, extensions) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", path, err)
	}
	return files, nil
}

func extensionAllowed(path string, extensions []string) bool {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return false
	}
	for _, allowed := range extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
