package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/know/internal/chunker"
	"github.com/kailas-cloud/know/internal/domain"
)

type mockEmbedder struct {
	dim   int
	err   error
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return make([]float32, m.dim), nil
}

type mockStore struct {
	mu         sync.Mutex
	ensuredDim int
	batches    [][]domain.DocumentChunk
}

func (m *mockStore) EnsureCollection(_ context.Context, _ string, dimension int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensuredDim = dimension
	return nil
}

func (m *mockStore) UpsertBatch(
	_ context.Context, _ string, chunks []domain.DocumentChunk, vectors [][]float32,
) error {
	if len(chunks) != len(vectors) {
		return errors.New("length mismatch")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, chunks)
	return nil
}

func (m *mockStore) dim() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensuredDim
}

func (m *mockStore) batchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}

type mockExtractor struct {
	failOn string
}

func (m *mockExtractor) Probe(_ context.Context) bool { return true }

func (m *mockExtractor) Extract(_ context.Context, path string) (string, error) {
	if m.failOn != "" && strings.HasSuffix(path, m.failOn) {
		return "", errors.New("extraction broke")
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

func newTestService(embed *mockEmbedder, store *mockStore, extract *mockExtractor) *Service {
	return New(embed, store, extract, chunker.New(512), "testdocs", zap.NewNop())
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestRun_DirectoryWalk(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.md", strings.Repeat("Qdrant stores vectors. ", 100))
	writeFile(t, dir, "readme.txt", "Short note about the system.")
	writeFile(t, dir, "image.bin", "not a document")

	embed := &mockEmbedder{dim: 4}
	store := &mockStore{}
	svc := newTestService(embed, store, &mockExtractor{})

	report, err := svc.Run(context.Background(), dir, []string{"md", "txt"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.FilesScanned != 2 {
		t.Errorf("expected 2 files scanned, got %d", report.FilesScanned)
	}
	if report.FilesSkipped != 0 {
		t.Errorf("expected 0 files skipped, got %d", report.FilesSkipped)
	}
	if report.ChunksStored < 2 {
		t.Errorf("expected at least 2 chunks stored, got %d", report.ChunksStored)
	}
	if store.ensuredDim != 4 {
		t.Errorf("collection created with dimension %d, want 4", store.ensuredDim)
	}
	if len(store.batches) != 2 {
		t.Errorf("expected one batch per file, got %d batches", len(store.batches))
	}
}

func TestRun_SingleFileBypassesFilter(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "data.bin", "content of an unusual extension")

	store := &mockStore{}
	svc := newTestService(&mockEmbedder{dim: 4}, store, &mockExtractor{})

	report, err := svc.Run(context.Background(), path, []string{"md"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.FilesScanned != 1 || report.ChunksStored == 0 {
		t.Errorf("explicit file must be ingested regardless of extension: %+v", report)
	}
}

func TestRun_PerFileFailureSkips(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.md", "A perfectly fine document.")
	writeFile(t, dir, "bad.md", "This one will not extract.")

	store := &mockStore{}
	svc := newTestService(&mockEmbedder{dim: 4}, store, &mockExtractor{failOn: "bad.md"})

	report, err := svc.Run(context.Background(), dir, []string{"md"})
	if err != nil {
		t.Fatalf("one bad file must not abort the run: %v", err)
	}
	if report.FilesSkipped != 1 {
		t.Errorf("expected 1 file skipped, got %d", report.FilesSkipped)
	}
	if report.ChunksStored == 0 {
		t.Error("the good file must still be stored")
	}
}

func TestRun_EmbedderDownFailsFast(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.md", "content")

	svc := newTestService(&mockEmbedder{err: errors.New("connection refused")}, &mockStore{}, &mockExtractor{})

	if _, err := svc.Run(context.Background(), dir, []string{"md"}); err == nil {
		t.Fatal("expected error when the dimension probe fails")
	}
}

func TestRun_NoMatchingFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "image.png", "pixels")

	embed := &mockEmbedder{dim: 4}
	store := &mockStore{}
	svc := newTestService(embed, store, &mockExtractor{})

	report, err := svc.Run(context.Background(), dir, []string{"md"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.FilesScanned != 0 {
		t.Errorf("expected empty report, got %+v", report)
	}
	if embed.calls != 0 || store.ensuredDim != 0 {
		t.Error("no backend or store calls expected without matching files")
	}
}

func TestChunkIDs_StableAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.md", strings.Repeat("Stable identity matters. ", 60))

	store := &mockStore{}
	svc := newTestService(&mockEmbedder{dim: 4}, store, &mockExtractor{})

	for i := 0; i < 2; i++ {
		if _, err := svc.Run(context.Background(), dir, []string{"md"}); err != nil {
			t.Fatalf("Run %d failed: %v", i, err)
		}
	}

	if len(store.batches) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(store.batches))
	}
	first, second := store.batches[0], store.batches[1]
	if len(first) != len(second) {
		t.Fatalf("chunk counts differ across runs: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("chunk %d id changed across runs: %s vs %s", i, first[i].ID, second[i].ID)
		}
		if first[i].ID == "" {
			t.Errorf("chunk %d has empty id", i)
		}
	}
}

func TestChunkID_IndexDisambiguates(t *testing.T) {
	a := chunkID("doc.md", 0, "same content")
	b := chunkID("doc.md", 1, "same content")
	if a == b {
		t.Error("identical content at different positions must get distinct ids")
	}
}
