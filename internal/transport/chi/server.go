// Package chi serves the OpenAI-compatible HTTP facade, so any chat
// client that speaks the completions API can query the knowledge base.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/know/internal/domain"
	"github.com/kailas-cloud/know/internal/logger"
)

// ModelName is the model id reported in completion responses.
const ModelName = "know-rag"

// QueryService answers questions against the knowledge base.
type QueryService interface {
	Ask(ctx context.Context, question string, topK int) (domain.Answer, error)
}

// Server exposes the query pipeline over HTTP. Handlers log through the
// request-scoped logger placed in the context by the serving middleware.
type Server struct {
	query       QueryService
	backendName string
	collection  string
}

// NewServer creates an HTTP API server.
func NewServer(query QueryService, backendName, collection string) *Server {
	return &Server{
		query:       query,
		backendName: backendName,
		collection:  collection,
	}
}

// Register mounts the API routes on the given router.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Post("/v1/chat/completions", s.ChatCompletions)
	r.Handle("/metrics", promhttp.Handler())
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	TopK     int           `json:"top_k,omitempty"`
}

type chatCompletionChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type chatCompletionUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type chatCompletionResponse struct {
	ID      string                 `json:"id"`
	Object  string                 `json:"object"`
	Created int64                  `json:"created"`
	Model   string                 `json:"model"`
	Choices []chatCompletionChoice `json:"choices"`
	Usage   chatCompletionUsage    `json:"usage"`
}

type healthResponse struct {
	Status     string `json:"status"`
	Backend    string `json:"backend"`
	Collection string `json:"collection"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:     "ok",
		Backend:    s.backendName,
		Collection: s.collection,
	})
}

// ChatCompletions handles POST /v1/chat/completions. The question is the
// content of the last user-role message; earlier turns are ignored since
// retrieval is stateless.
func (s *Server) ChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req chatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_error", "Invalid request body: "+err.Error())
		return
	}

	question, ok := lastUserMessage(req.Messages)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request_error", domain.ErrNoUserMessage.Error())
		return
	}

	answer, err := s.query.Ask(r.Context(), question, req.TopK)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyCollection) {
			// An empty knowledge base is an answerable state, not a
			// failure: chat clients should display it as a reply.
			writeCompletion(w, "The knowledge base is empty. Ingest documents first, then ask again.")
			return
		}
		logger.FromContext(r.Context()).Error("query failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "server_error", "failed to answer the question")
		return
	}

	text := answer.Text
	if len(answer.Sources) > 0 {
		text += "\n\nSources:"
		for _, src := range answer.Sources {
			text += "\n- " + src
		}
	}
	writeCompletion(w, text)
}

func lastUserMessage(messages []chatMessage) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content, true
		}
	}
	return "", false
}

func writeCompletion(w http.ResponseWriter, content string) {
	writeJSON(w, http.StatusOK, chatCompletionResponse{
		ID:      "chatcmpl-" + uuid.NewString(),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   ModelName,
		Choices: []chatCompletionChoice{
			{
				Index:        0,
				Message:      chatMessage{Role: "assistant", Content: content},
				FinishReason: "stop",
			},
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, errType, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"message": message,
			"type":    errType,
		},
	})
}
