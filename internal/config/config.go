// Package config loads application configuration from an optional YAML file
// with environment variable overrides for connection settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// OllamaConfig holds connection details for a local Ollama server, used for
// both the primary embedding provider and the language model.
type OllamaConfig struct {
	BaseURL             string `yaml:"base_url"`
	EmbedModel          string `yaml:"embed_model"`
	GenerateModel       string `yaml:"generate_model"`
	EmbedTimeoutSecs    int    `yaml:"embed_timeout_secs"`
	GenerateTimeoutSecs int    `yaml:"generate_timeout_secs"`
}

// OpenAIConfig configures the fallback embedding provider.
type OpenAIConfig struct {
	Model     string `yaml:"model"`
	BatchSize int    `yaml:"batch_size"`
}

// QdrantConfig contains connection details for a Qdrant vector store.
type QdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Collection string `yaml:"collection"`
}

// StoreConfig selects the vector index backend.
type StoreConfig struct {
	Type   string       `yaml:"type"` // "qdrant" or "memory"
	Qdrant QdrantConfig `yaml:"qdrant"`
}

// Config is the root application configuration.
type Config struct {
	ChunkSize    int          `yaml:"chunk_size"`
	ChunkOverlap int          `yaml:"chunk_overlap"`
	TopK         int          `yaml:"top_k"`
	Temperature  float64      `yaml:"temperature"`
	UploadDir    string       `yaml:"upload_dir"`
	Port         string       `yaml:"port"`
	Ollama       OllamaConfig `yaml:"ollama"`
	OpenAI       OpenAIConfig `yaml:"openai"`
	Store        StoreConfig  `yaml:"store"`
}

// Load reads configuration from path. A missing file is not an error; the
// defaults are returned. Environment variables override connection settings
// in either case.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(cfg)
	applyEnv(cfg)
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		ChunkSize:    1000,
		ChunkOverlap: 200,
		TopK:         4,
		Temperature:  0.7,
		UploadDir:    "uploads",
		Port:         "8080",
		Ollama: OllamaConfig{
			BaseURL:             "http://localhost:11434",
			EmbedModel:          "nomic-embed-text",
			GenerateModel:       "mistral",
			EmbedTimeoutSecs:    60,
			GenerateTimeoutSecs: 120,
		},
		OpenAI: OpenAIConfig{
			Model:     "text-embedding-3-small",
			BatchSize: 500,
		},
		Store: StoreConfig{
			Type: "qdrant",
			Qdrant: QdrantConfig{
				Host:       "localhost",
				Port:       6334,
				Collection: "documents",
			},
		},
	}
}

// EmbedTimeout returns the bounded timeout for embedding calls.
func (c *Config) EmbedTimeout() time.Duration {
	return time.Duration(c.Ollama.EmbedTimeoutSecs) * time.Second
}

// GenerateTimeout returns the bounded timeout for generation calls.
func (c *Config) GenerateTimeout() time.Duration {
	return time.Duration(c.Ollama.GenerateTimeoutSecs) * time.Second
}

// applyDefaults fills zero values left by a partial config file.
func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.ChunkOverlap < 0 {
		cfg.ChunkOverlap = def.ChunkOverlap
	}
	if cfg.TopK <= 0 {
		cfg.TopK = def.TopK
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = def.Temperature
	}
	if cfg.UploadDir == "" {
		cfg.UploadDir = def.UploadDir
	}
	if cfg.Port == "" {
		cfg.Port = def.Port
	}
	if cfg.Ollama.BaseURL == "" {
		cfg.Ollama.BaseURL = def.Ollama.BaseURL
	}
	if cfg.Ollama.EmbedModel == "" {
		cfg.Ollama.EmbedModel = def.Ollama.EmbedModel
	}
	if cfg.Ollama.GenerateModel == "" {
		cfg.Ollama.GenerateModel = def.Ollama.GenerateModel
	}
	if cfg.Ollama.EmbedTimeoutSecs <= 0 {
		cfg.Ollama.EmbedTimeoutSecs = def.Ollama.EmbedTimeoutSecs
	}
	if cfg.Ollama.GenerateTimeoutSecs <= 0 {
		cfg.Ollama.GenerateTimeoutSecs = def.Ollama.GenerateTimeoutSecs
	}
	if cfg.OpenAI.Model == "" {
		cfg.OpenAI.Model = def.OpenAI.Model
	}
	if cfg.OpenAI.BatchSize <= 0 {
		cfg.OpenAI.BatchSize = def.OpenAI.BatchSize
	}
	if cfg.Store.Type == "" {
		cfg.Store.Type = def.Store.Type
	}
	if cfg.Store.Qdrant.Host == "" {
		cfg.Store.Qdrant.Host = def.Store.Qdrant.Host
	}
	if cfg.Store.Qdrant.Port <= 0 {
		cfg.Store.Qdrant.Port = def.Store.Qdrant.Port
	}
	if cfg.Store.Qdrant.Collection == "" {
		cfg.Store.Qdrant.Collection = def.Store.Qdrant.Collection
	}
}

// applyEnv overrides connection settings from the environment.
func applyEnv(cfg *Config) {
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		cfg.Ollama.BaseURL = v
	}
	if v := os.Getenv("QDRANT_HOST"); v != "" {
		cfg.Store.Qdrant.Host = v
	}
	if v := os.Getenv("QDRANT_PORT"); v != "" {
		var p int
		if _, err := fmt.Sscanf(v, "%d", &p); err == nil {
			cfg.Store.Qdrant.Port = p
		}
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
}
