package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Ollama generates embeddings with a locally served Ollama model. It is the
// primary provider; construction fails fast when the server or model is
// unreachable so the caller can fall back.
type Ollama struct {
	baseURL   string
	model     string
	dimension int
	client    *http.Client
}

// NewOllama creates an Ollama provider and probes the model once to verify
// reachability and learn the vector dimension.
func NewOllama(ctx context.Context, baseURL, model string, timeout time.Duration) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	o := &Ollama{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}

	probe, err := o.embedOne(ctx, "ping")
	if err != nil {
		return nil, fmt.Errorf("probe ollama embeddings: %w", err)
	}
	if len(probe) == 0 {
		return nil, fmt.Errorf("ollama model %q returned an empty embedding", model)
	}
	o.dimension = len(probe)
	return o, nil
}

func (o *Ollama) Name() string   { return "ollama/" + o.model }
func (o *Ollama) Dimension() int { return o.dimension }

// Embed generates one vector per text, sequentially. The Ollama embeddings
// endpoint accepts a single prompt per request.
func (o *Ollama) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := o.embedOne(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		if len(vec) != o.dimension {
			return nil, fmt.Errorf("text %d: got %d dimensions, expected %d", i, len(vec), o.dimension)
		}
		vectors[i] = vec
	}
	return vectors, nil
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (o *Ollama) embedOne(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(ollamaEmbedRequest{Model: o.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var out ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out.Embedding, nil
}
