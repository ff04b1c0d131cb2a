package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the know configuration.
type Config struct {
	Backend BackendConfig `yaml:"backend"`
	Qdrant  QdrantConfig  `yaml:"qdrant"`
	Docling DoclingConfig `yaml:"docling"`
	Ingest  IngestConfig  `yaml:"ingest"`
	HTTP    HTTPConfig    `yaml:"http"`
	Logging LoggingConfig `yaml:"logging"`
}

// BackendConfig holds LLM backend selection and model settings.
type BackendConfig struct {
	// Provider pins a specific backend: llamacpp, ollama, openai.
	// Empty means auto-detect in priority order.
	Provider   string `yaml:"provider"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	EmbedModel string `yaml:"embed_model"`
	APIKey     string `yaml:"api_key"`
}

// QdrantConfig holds vector store settings.
type QdrantConfig struct {
	URL        string `yaml:"url"`
	Collection string `yaml:"collection"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// DoclingConfig holds document parsing service settings.
type DoclingConfig struct {
	URL        string `yaml:"url"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// IngestConfig holds ingestion settings.
type IngestConfig struct {
	// Extensions is the comma-separated file extension allow-list.
	Extensions string `yaml:"extensions"`
	ChunkSize  int    `yaml:"chunk_size"`
}

// HTTPConfig holds API server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Load reads configuration from an optional YAML file, then applies
// KNOW_* environment overrides, defaults, and validation.
// The file is located via KNOW_CONFIG, falling back to ./know.yaml and
// ~/.config/know/know.yaml; a missing file is not an error.
func Load() (Config, error) {
	var cfg Config

	if path := findConfigPath(); path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		data = expandEnvVars(data)
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// Extensions returns the ingestion allow-list as a cleaned slice.
func (c *Config) Extensions() []string {
	parts := strings.Split(c.Ingest.Extensions, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimPrefix(strings.TrimSpace(p), ".")
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Qdrant.URL == "" {
		c.Qdrant.URL = "http://localhost:6333"
	}
	if c.Qdrant.Collection == "" {
		c.Qdrant.Collection = "know"
	}
	if c.Qdrant.TimeoutSec <= 0 {
		c.Qdrant.TimeoutSec = 15
	}
	if c.Docling.URL == "" {
		c.Docling.URL = "http://localhost:5001"
	}
	if c.Docling.TimeoutSec <= 0 {
		c.Docling.TimeoutSec = 60
	}
	if c.Ingest.Extensions == "" {
		c.Ingest.Extensions = "md,txt,pdf,docx,html"
	}
	if c.Ingest.ChunkSize <= 0 {
		c.Ingest.ChunkSize = 512
	}
	if c.HTTP.Port <= 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Generation against a local model can take minutes.
		c.HTTP.WriteTimeoutSec = 300
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	switch c.Backend.Provider {
	case "", "llamacpp", "ollama", "openai":
		// ok
	default:
		return fmt.Errorf(
			"backend.provider must be llamacpp, ollama, or openai, got %q",
			c.Backend.Provider,
		)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Extensions()) == 0 {
		return fmt.Errorf("ingest.extensions must name at least one extension")
	}
	return nil
}

// applyEnvOverrides lets KNOW_* variables override file values.
func (c *Config) applyEnvOverrides() {
	setString(&c.Backend.Provider, "KNOW_BACKEND")
	setString(&c.Backend.BaseURL, "KNOW_BASE_URL")
	setString(&c.Backend.Model, "KNOW_MODEL")
	setString(&c.Backend.EmbedModel, "KNOW_EMBED_MODEL")
	setString(&c.Backend.APIKey, "OPENAI_API_KEY")
	setString(&c.Qdrant.URL, "KNOW_QDRANT_URL")
	setString(&c.Qdrant.Collection, "KNOW_COLLECTION")
	setString(&c.Docling.URL, "KNOW_DOCLING_URL")
	setString(&c.Ingest.Extensions, "KNOW_EXTENSIONS")
	setString(&c.Logging.Level, "KNOW_LOG_LEVEL")
	setInt(&c.HTTP.Port, "KNOW_PORT")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

// findConfigPath locates the config file, or returns "" when none exists.
func findConfigPath() string {
	if path := os.Getenv("KNOW_CONFIG"); path != "" {
		return path
	}
	if fileExists("know.yaml") {
		return "know.yaml"
	}
	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".config", "know", "know.yaml")
		if fileExists(path) {
			return path
		}
	}
	return ""
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
