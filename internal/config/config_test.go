package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestLoad_MissingFile verifies a missing config file yields the defaults.
func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ChunkSize != 1000 {
		t.Errorf("Expected chunk size 1000, got %d", cfg.ChunkSize)
	}
	if cfg.ChunkOverlap != 200 {
		t.Errorf("Expected chunk overlap 200, got %d", cfg.ChunkOverlap)
	}
	if cfg.TopK != 4 {
		t.Errorf("Expected top_k 4, got %d", cfg.TopK)
	}
	if cfg.Store.Type != "qdrant" {
		t.Errorf("Expected qdrant store, got %q", cfg.Store.Type)
	}
}

// TestLoad_PartialFile verifies values from the file win and unset values
// fall back to defaults.
func TestLoad_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docqa.yaml")
	content := `chunk_size: 500
store:
  type: memory
ollama:
  embed_model: all-minilm
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ChunkSize != 500 {
		t.Errorf("Expected chunk size 500, got %d", cfg.ChunkSize)
	}
	if cfg.Store.Type != "memory" {
		t.Errorf("Expected memory store, got %q", cfg.Store.Type)
	}
	if cfg.Ollama.EmbedModel != "all-minilm" {
		t.Errorf("Expected embed model all-minilm, got %q", cfg.Ollama.EmbedModel)
	}
	if cfg.Ollama.GenerateModel != "mistral" {
		t.Errorf("Expected default generate model, got %q", cfg.Ollama.GenerateModel)
	}
	if cfg.ChunkOverlap != 200 {
		t.Errorf("Expected default overlap, got %d", cfg.ChunkOverlap)
	}
}

// TestLoad_InvalidYAML verifies parse errors are reported.
func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docqa.yaml")
	if err := os.WriteFile(path, []byte("chunk_size: [not a number"), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("Expected error for invalid YAML, got nil")
	}
}

// TestLoad_EnvOverrides verifies environment variables override connection
// settings from file and defaults.
func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "http://ollama.internal:11434")
	t.Setenv("QDRANT_HOST", "qdrant.internal")
	t.Setenv("QDRANT_PORT", "7334")
	t.Setenv("PORT", "9090")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Ollama.BaseURL != "http://ollama.internal:11434" {
		t.Errorf("OLLAMA_HOST not applied, got %q", cfg.Ollama.BaseURL)
	}
	if cfg.Store.Qdrant.Host != "qdrant.internal" {
		t.Errorf("QDRANT_HOST not applied, got %q", cfg.Store.Qdrant.Host)
	}
	if cfg.Store.Qdrant.Port != 7334 {
		t.Errorf("QDRANT_PORT not applied, got %d", cfg.Store.Qdrant.Port)
	}
	if cfg.Port != "9090" {
		t.Errorf("PORT not applied, got %q", cfg.Port)
	}
}

// TestTimeouts verifies the second-based settings convert to durations.
func TestTimeouts(t *testing.T) {
	cfg := Default()

	if cfg.EmbedTimeout() != 60*time.Second {
		t.Errorf("Expected 60s embed timeout, got %v", cfg.EmbedTimeout())
	}
	if cfg.GenerateTimeout() != 120*time.Second {
		t.Errorf("Expected 120s generate timeout, got %v", cfg.GenerateTimeout())
	}
}
