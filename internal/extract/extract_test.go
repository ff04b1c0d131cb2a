package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestExtract_PlainTextNeverCallsDocling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		t.Errorf("docling must not be invoked for plain text, got %s", r.URL.Path)
	}))
	defer srv.Close()

	s := New(Config{DoclingURL: srv.URL}, zap.NewNop())
	s.Probe(context.Background())

	path := writeTempFile(t, "notes.txt", "plain text content")
	got, err := s.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "plain text content" {
		t.Errorf("unexpected content %q", got)
	}
}

func TestExtract_LayoutFormatUsesDocling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/v1/convert/file":
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("expected multipart upload: %v", err)
			}
			if _, _, err := r.FormFile("files"); err != nil {
				t.Errorf("expected files form part: %v", err)
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"document":{"md_content":"# Parsed"}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	s := New(Config{DoclingURL: srv.URL}, zap.NewNop())
	if !s.Probe(context.Background()) {
		t.Fatal("expected docling to be available")
	}

	path := writeTempFile(t, "doc.pdf", "%PDF-1.4 raw bytes")
	got, err := s.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "# Parsed" {
		t.Errorf("expected docling markdown, got %q", got)
	}
}

func TestExtract_DoclingFailureFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := New(Config{DoclingURL: srv.URL}, zap.NewNop())
	s.Probe(context.Background())

	path := writeTempFile(t, "doc.html", "<html>raw</html>")
	got, err := s.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("fallback must not fail: %v", err)
	}
	if got != "<html>raw</html>" {
		t.Errorf("expected raw fallback content, got %q", got)
	}
}

func TestExtract_DoclingDownReadsDirectly(t *testing.T) {
	s := New(Config{DoclingURL: "http://localhost:1"}, zap.NewNop())
	if s.Probe(context.Background()) {
		t.Fatal("expected docling to be unavailable")
	}

	path := writeTempFile(t, "doc.pdf", "raw pdf bytes")
	got, err := s.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "raw pdf bytes" {
		t.Errorf("expected direct read, got %q", got)
	}
}

func TestExtract_MissingFile(t *testing.T) {
	s := New(Config{DoclingURL: "http://localhost:1"}, zap.NewNop())
	if _, err := s.Extract(context.Background(), "/nonexistent/file.txt"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
