package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOllamaEmbed(t *testing.T) {
	var gotModel, gotPrompt string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		gotModel, gotPrompt = req.Model, req.Prompt
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float32{0.1, 0.2, 0.3}})
	}))
	defer srv.Close()

	b := NewOllama(srv.URL, "", "custom-embed")

	vec, err := b.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vec) != 3 {
		t.Errorf("expected 3 dimensions, got %d", len(vec))
	}
	if gotModel != "custom-embed" {
		t.Errorf("expected model custom-embed, got %s", gotModel)
	}
	if gotPrompt != "hello" {
		t.Errorf("expected prompt hello, got %s", gotPrompt)
	}
}

func TestOllamaEmbed_ErrorField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Error: "model not found"})
	}))
	defer srv.Close()

	b := NewOllama(srv.URL, "", "")

	_, err := b.Embed(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "model not found") {
		t.Errorf("expected model error in message, got: %v", err)
	}
}

func TestOllamaGenerate(t *testing.T) {
	var gotPrompt string
	var gotStream bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req ollamaGenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		gotPrompt, gotStream = req.Prompt, req.Stream
		json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: "the answer"})
	}))
	defer srv.Close()

	b := NewOllama(srv.URL, "", "")

	out, err := b.Generate(context.Background(), "what is up?", "ctx body")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out != "the answer" {
		t.Errorf("unexpected output: %s", out)
	}
	if gotStream {
		t.Error("streaming must be disabled")
	}
	if !strings.Contains(gotPrompt, "ctx body") {
		t.Error("context text missing from prompt")
	}
	if !strings.Contains(gotPrompt, "Question: what is up?") {
		t.Errorf("question missing from prompt: %s", gotPrompt)
	}
}

func TestOllamaGenerate_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaGenerateResponse{})
	}))
	defer srv.Close()

	b := NewOllama(srv.URL, "", "")

	if _, err := b.Generate(context.Background(), "q", ""); err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestOllamaProbe(t *testing.T) {
	tests := []struct {
		name       string
		embedding  []float32
		generation string
		want       bool
	}{
		{"both models working", []float32{0.1}, "Hello!", true},
		{"embed model missing", nil, "Hello!", false},
		{"generate model missing", []float32{0.1}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/api/embeddings":
					json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: tt.embedding})
				case "/api/generate":
					json.NewEncoder(w).Encode(ollamaGenerateResponse{Response: tt.generation})
				default:
					w.WriteHeader(http.StatusNotFound)
				}
			}))
			defer srv.Close()

			b := NewOllama(srv.URL, "", "")
			if got := b.Probe(context.Background()); got != tt.want {
				t.Errorf("Probe() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOllamaProbe_ServerDown(t *testing.T) {
	b := NewOllama("http://127.0.0.1:1", "", "")
	if b.Probe(context.Background()) {
		t.Error("probe must fail when the server is unreachable")
	}
}
