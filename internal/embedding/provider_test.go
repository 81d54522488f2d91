package embedding

import (
	"context"
	"errors"
	"testing"
)

type staticProvider struct {
	name      string
	dimension int
}

func (s *staticProvider) Name() string   { return s.name }
func (s *staticProvider) Dimension() int { return s.dimension }
func (s *staticProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, s.dimension)
	}
	return out, nil
}

// TestSelect_FirstAvailable verifies the first constructor that succeeds
// wins, even when later ones would also succeed.
func TestSelect_FirstAvailable(t *testing.T) {
	called := []string{}
	ctors := []Constructor{
		{Name: "primary", New: func(ctx context.Context) (Provider, error) {
			called = append(called, "primary")
			return &staticProvider{name: "primary", dimension: 8}, nil
		}},
		{Name: "fallback", New: func(ctx context.Context) (Provider, error) {
			called = append(called, "fallback")
			return &staticProvider{name: "fallback", dimension: 4}, nil
		}},
	}

	provider, err := Select(context.Background(), ctors, nil)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if provider.Name() != "primary" {
		t.Errorf("Expected primary provider, got %q", provider.Name())
	}
	if len(called) != 1 {
		t.Errorf("Expected only the first constructor to run, got %v", called)
	}
}

// TestSelect_FallsThrough verifies a failing constructor is skipped and the
// next one is tried.
func TestSelect_FallsThrough(t *testing.T) {
	ctors := []Constructor{
		{Name: "primary", New: func(ctx context.Context) (Provider, error) {
			return nil, errors.New("connection refused")
		}},
		{Name: "fallback", New: func(ctx context.Context) (Provider, error) {
			return &staticProvider{name: "fallback", dimension: 4}, nil
		}},
	}

	provider, err := Select(context.Background(), ctors, nil)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if provider.Name() != "fallback" {
		t.Errorf("Expected fallback provider, got %q", provider.Name())
	}
}

// TestSelect_AllFail verifies ErrNoProvider when every constructor fails.
func TestSelect_AllFail(t *testing.T) {
	ctors := []Constructor{
		{Name: "a", New: func(ctx context.Context) (Provider, error) {
			return nil, errors.New("down")
		}},
		{Name: "b", New: func(ctx context.Context) (Provider, error) {
			return nil, errors.New("also down")
		}},
	}

	if _, err := Select(context.Background(), ctors, nil); !errors.Is(err, ErrNoProvider) {
		t.Fatalf("Expected ErrNoProvider, got %v", err)
	}
}

// TestSelect_Empty verifies an empty constructor list yields ErrNoProvider.
func TestSelect_Empty(t *testing.T) {
	if _, err := Select(context.Background(), nil, nil); !errors.Is(err, ErrNoProvider) {
		t.Fatalf("Expected ErrNoProvider, got %v", err)
	}
}
