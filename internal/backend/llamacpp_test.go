package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func openAIEmbeddingBody(vec []float32) map[string]any {
	return map[string]any{
		"object": "list",
		"data": []map[string]any{
			{"object": "embedding", "index": 0, "embedding": vec},
		},
	}
}

func openAIChatBody(content string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"choices": []map[string]any{
			{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
	}
}

func TestLlamaCppEmbed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["model"] != "my-embed" {
			t.Errorf("expected model my-embed, got %v", req["model"])
		}
		json.NewEncoder(w).Encode(openAIEmbeddingBody([]float32{0.5, 0.6}))
	}))
	defer srv.Close()

	b := NewLlamaCpp(srv.URL, "", "my-embed")

	vec, err := b.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vec) != 2 {
		t.Errorf("expected 2 dimensions, got %d", len(vec))
	}
}

func TestLlamaCppGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if len(req.Messages) != 2 {
			t.Fatalf("expected system and user messages, got %d", len(req.Messages))
		}
		if req.Messages[0].Role != "system" || !strings.Contains(req.Messages[0].Content, "doc body") {
			t.Errorf("system message missing context: %+v", req.Messages[0])
		}
		if req.Messages[1].Role != "user" || req.Messages[1].Content != "the question" {
			t.Errorf("unexpected user message: %+v", req.Messages[1])
		}
		json.NewEncoder(w).Encode(openAIChatBody("an answer"))
	}))
	defer srv.Close()

	b := NewLlamaCpp(srv.URL, "", "")

	out, err := b.Generate(context.Background(), "the question", "doc body")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if out != "an answer" {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestLlamaCppProbe(t *testing.T) {
	tests := []struct {
		name      string
		modelsOK  bool
		embedding []float32
		want      bool
	}{
		{"runtime up with models", true, []float32{0.1}, true},
		{"models endpoint down", false, []float32{0.1}, false},
		{"embed model absent", true, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				switch r.URL.Path {
				case "/models":
					if !tt.modelsOK {
						w.WriteHeader(http.StatusInternalServerError)
						return
					}
					json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": []any{}})
				case "/embeddings":
					json.NewEncoder(w).Encode(openAIEmbeddingBody(tt.embedding))
				default:
					w.WriteHeader(http.StatusNotFound)
				}
			}))
			defer srv.Close()

			b := NewLlamaCpp(srv.URL, "", "")
			if got := b.Probe(context.Background()); got != tt.want {
				t.Errorf("Probe() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLlamaCppProbe_ServerDown(t *testing.T) {
	b := NewLlamaCpp("http://127.0.0.1:1", "", "")
	if b.Probe(context.Background()) {
		t.Error("probe must fail when the runtime is unreachable")
	}
}
