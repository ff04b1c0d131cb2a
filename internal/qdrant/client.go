// Package qdrant is a minimal REST client for the Qdrant vector store.
// Collections are created with cosine distance; point payloads carry the
// chunk content and its source path.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kailas-cloud/know/internal/domain"
)

const availabilityTimeout = 2 * time.Second

// Client talks to a Qdrant instance over its HTTP API.
type Client struct {
	baseURL string
	client  *http.Client
}

// Config holds Qdrant client settings.
type Config struct {
	URL     string
	Timeout time.Duration
}

// New creates a Qdrant client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: cfg.URL,
		client:  &http.Client{Timeout: timeout},
	}
}

type vectorParams struct {
	Size     int    `json:"size"`
	Distance string `json:"distance"`
}

type createCollectionRequest struct {
	Vectors vectorParams `json:"vectors"`
}

type point struct {
	ID      string       `json:"id"`
	Vector  []float32    `json:"vector"`
	Payload pointPayload `json:"payload"`
}

type pointPayload struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

type upsertPointsRequest struct {
	Points []point `json:"points"`
}

type searchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
}

type searchResponse struct {
	Result []struct {
		Score   float32       `json:"score"`
		Payload *pointPayload `json:"payload"`
	} `json:"result"`
}

type collectionInfoResponse struct {
	Result struct {
		PointsCount int `json:"points_count"`
	} `json:"result"`
}

// EnsureCollection creates the named collection with the given vector
// dimension and cosine distance unless it already exists. Idempotent.
func (c *Client) EnsureCollection(ctx context.Context, name string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("qdrant: invalid vector dimension %d", dimension)
	}

	status, _, err := c.do(ctx, http.MethodGet, "/collections/"+name, nil)
	if err == nil && status == http.StatusOK {
		return nil
	}

	req := createCollectionRequest{
		Vectors: vectorParams{Size: dimension, Distance: "Cosine"},
	}
	status, body, err := c.do(ctx, http.MethodPut, "/collections/"+name, req)
	if err != nil {
		return fmt.Errorf("qdrant: create collection %s: %w", name, err)
	}
	if status >= 300 {
		return fmt.Errorf("qdrant: create collection %s: status %d: %s", name, status, body)
	}
	return nil
}

// UpsertBatch writes chunks with positionally paired vectors. Writes are
// idempotent keyed by chunk id.
func (c *Client) UpsertBatch(
	ctx context.Context, collection string,
	chunks []domain.DocumentChunk, vectors [][]float32,
) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("qdrant: chunks and vectors length mismatch: %d vs %d", len(chunks), len(vectors))
	}
	if len(chunks) == 0 {
		return nil
	}

	points := make([]point, len(chunks))
	for i, chunk := range chunks {
		points[i] = point{
			ID:     chunk.ID,
			Vector: vectors[i],
			Payload: pointPayload{
				Content: chunk.Content,
				Source:  chunk.Source,
			},
		}
	}

	status, body, err := c.do(ctx, http.MethodPut, "/collections/"+collection+"/points", upsertPointsRequest{Points: points})
	if err != nil {
		return fmt.Errorf("qdrant: upsert points: %w", err)
	}
	if status >= 300 {
		return fmt.Errorf("qdrant: upsert points: status %d: %s", status, body)
	}
	return nil
}

// Search returns up to limit chunks ranked by cosine similarity.
// Hits without a payload are dropped.
func (c *Client) Search(
	ctx context.Context, collection string, vector []float32, limit int,
) ([]domain.DocumentChunk, error) {
	req := searchRequest{Vector: vector, Limit: limit, WithPayload: true}

	status, body, err := c.do(ctx, http.MethodPost, "/collections/"+collection+"/points/search", req)
	if err != nil {
		return nil, fmt.Errorf("qdrant: search: %w", err)
	}
	if status >= 300 {
		return nil, fmt.Errorf("qdrant: search: status %d: %s", status, body)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("qdrant: parse search response: %w", err)
	}

	chunks := make([]domain.DocumentChunk, 0, len(resp.Result))
	for _, r := range resp.Result {
		if r.Payload == nil {
			continue
		}
		chunks = append(chunks, domain.DocumentChunk{
			Content: r.Payload.Content,
			Source:  r.Payload.Source,
		})
	}
	return chunks, nil
}

// CollectionInfo returns the collection's point count, or nil when the
// collection does not exist.
func (c *Client) CollectionInfo(ctx context.Context, name string) (*domain.CollectionInfo, error) {
	status, body, err := c.do(ctx, http.MethodGet, "/collections/"+name, nil)
	if err != nil {
		return nil, fmt.Errorf("qdrant: collection info: %w", err)
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status >= 300 {
		return nil, fmt.Errorf("qdrant: collection info: status %d: %s", status, body)
	}

	var resp collectionInfoResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("qdrant: parse collection info: %w", err)
	}
	return &domain.CollectionInfo{PointsCount: resp.Result.PointsCount}, nil
}

// DeleteCollection removes the named collection. Destructive.
func (c *Client) DeleteCollection(ctx context.Context, name string) error {
	status, body, err := c.do(ctx, http.MethodDelete, "/collections/"+name, nil)
	if err != nil {
		return fmt.Errorf("qdrant: delete collection %s: %w", name, err)
	}
	if status >= 300 {
		return fmt.Errorf("qdrant: delete collection %s: status %d: %s", name, status, body)
	}
	return nil
}

// IsAvailable probes the readiness endpoint with a bounded timeout.
// Never returns an error; unreachable means false.
func (c *Client) IsAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, availabilityTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/readyz", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// do issues a request with an optional JSON body and returns status and body.
func (c *Client) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, body, nil
}
