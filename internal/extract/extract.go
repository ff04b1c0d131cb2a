// Package extract converts files into normalized text. Layout-aware
// formats go through the docling parsing service; everything else (and
// every docling failure) is read directly so that a parser outage only
// degrades text quality, never pipeline availability.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

const healthTimeout = 2 * time.Second

// layoutFormats need the parsing service; plain formats never do.
var layoutFormats = map[string]bool{
	"pdf":  true,
	"docx": true,
	"pptx": true,
	"xlsx": true,
	"html": true,
}

// Service extracts normalized text from files.
type Service struct {
	baseURL    string
	client     *http.Client
	logger     *zap.Logger
	useDocling bool
}

// Config holds extraction service settings.
type Config struct {
	DoclingURL string
	Timeout    time.Duration
}

// New creates an extraction service. Call Probe once per run to decide
// whether docling is used at all.
func New(cfg Config, logger *zap.Logger) *Service {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Service{
		baseURL: cfg.DoclingURL,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Probe checks docling liveness with a bounded timeout and remembers the
// outcome. Never returns an error.
func (s *Service) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/health", nil)
	if err != nil {
		s.useDocling = false
		return false
	}
	resp, err := s.client.Do(req)
	if err != nil {
		s.useDocling = false
		return false
	}
	defer resp.Body.Close()

	s.useDocling = resp.StatusCode == http.StatusOK
	return s.useDocling
}

// Extract returns the normalized text of the file at path.
func (s *Service) Extract(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if !layoutFormats[ext] || !s.useDocling {
		return readDirect(path)
	}

	content, err := s.convert(ctx, path)
	if err != nil {
		s.logger.Warn("docling conversion failed, falling back to direct read",
			zap.String("file", path),
			zap.Error(err),
		)
		return readDirect(path)
	}
	return content, nil
}

type doclingResponse struct {
	Document struct {
		MdContent string `json:"md_content"`
	} `json:"document"`
}

// convert uploads the file to docling and returns the markdown rendition.
func (s *Service) convert(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	part, err := form.CreateFormFile("files", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("create multipart form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write multipart form: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("close multipart form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/convert/file", &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("docling request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("docling: status %d: %s", resp.StatusCode, body)
	}

	var parsed doclingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("docling: parse convert response: %w", err)
	}
	return parsed.Document.MdContent, nil
}

// readDirect returns the raw file bytes as text.
func readDirect(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file %s: %w", path, err)
	}
	return string(data), nil
}
