// Package embedding maps text to fixed-dimension vectors. Two providers are
// supported: a local Ollama model and an OpenAI fallback. The provider is
// chosen once at store construction time; mixing embeddings from different
// providers in one index would corrupt similarity comparisons.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNoProvider is returned when every configured provider fails to
// initialize.
var ErrNoProvider = errors.New("no embedding provider available")

// Provider maps text to fixed-dimension numeric vectors.
type Provider interface {
	// Name identifies the provider implementation.
	Name() string

	// Dimension returns the length of vectors this provider produces.
	Dimension() int

	// Embed returns one vector per input text, in input order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Constructor builds a Provider, verifying its backend is reachable.
// A failed construction returns an error rather than panicking so callers
// can fall through to the next candidate.
type Constructor struct {
	Name string
	New  func(ctx context.Context) (Provider, error)
}

// Select tries constructors in order and returns the first provider that
// initializes successfully. Failures are logged and skipped; ErrNoProvider
// is returned when the list is exhausted.
func Select(ctx context.Context, ctors []Constructor, logger *slog.Logger) (Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, ctor := range ctors {
		provider, err := ctor.New(ctx)
		if err != nil {
			logger.Warn("Embedding provider unavailable", "provider", ctor.Name, "error", err)
			continue
		}
		logger.Info("Selected embedding provider",
			"provider", provider.Name(), "dimension", provider.Dimension())
		return provider, nil
	}
	return nil, fmt.Errorf("%w: tried %d providers", ErrNoProvider, len(ctors))
}
