package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mike-a-ellis/docqa/internal/document"
	"github.com/mike-a-ellis/docqa/internal/vectorstore"
)

type fakeRetriever struct {
	info      vectorstore.Info
	matches   []vectorstore.Match
	searchErr error
}

func (f *fakeRetriever) Search(ctx context.Context, query string, k int) ([]vectorstore.Match, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if k < len(f.matches) {
		return f.matches[:k], nil
	}
	return f.matches, nil
}

func (f *fakeRetriever) Info(ctx context.Context) vectorstore.Info {
	return f.info
}

// fakeGenerator returns a fixed answer and records every prompt it sees.
type fakeGenerator struct {
	answer  string
	err     error
	prompts []string
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, temperature float64) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func (f *fakeGenerator) Model() string { return "fake-model" }

func match(content string) vectorstore.Match {
	return vectorstore.Match{
		Chunk: document.Chunk{
			Content:  content,
			Metadata: document.Metadata{Source: "doc.txt", Type: document.TypeText},
		},
		Score: 0.9,
	}
}

func readyRetriever(matches ...vectorstore.Match) *fakeRetriever {
	return &fakeRetriever{
		info:    vectorstore.Info{Status: vectorstore.StatusActive, Count: uint64(len(matches))},
		matches: matches,
	}
}

// TestAsk_NotReady verifies questions before any indexed document get the
// canned not-ready result without touching the generator.
func TestAsk_NotReady(t *testing.T) {
	gen := &fakeGenerator{answer: "should never be used"}
	p := New(context.Background(), &fakeRetriever{
		info: vectorstore.Info{Status: vectorstore.StatusUninitialized},
	}, gen, Config{}, nil)

	require.False(t, p.Ready())

	result := p.Ask(context.Background(), "anything")
	assert.False(t, result.Succeeded)
	assert.Contains(t, result.Answer, "not ready")
	assert.Empty(t, result.Sources)
	assert.Empty(t, gen.prompts, "generator must not be called when not ready")
}

// TestAsk_ReadinessFixedAtConstruction verifies the state is decided once:
// a pipeline built over an empty store stays not-ready even after the store
// fills up.
func TestAsk_ReadinessFixedAtConstruction(t *testing.T) {
	retriever := &fakeRetriever{info: vectorstore.Info{Status: vectorstore.StatusUninitialized}}
	p := New(context.Background(), retriever, &fakeGenerator{answer: "a"}, Config{}, nil)

	retriever.info = vectorstore.Info{Status: vectorstore.StatusActive, Count: 10}
	retriever.matches = []vectorstore.Match{match("late content")}

	assert.False(t, p.Ready())
	assert.False(t, p.Ask(context.Background(), "question").Succeeded)
}

// TestAsk_AnswerWithSources verifies a successful question returns the
// generated answer, cited sources and timing metrics.
func TestAsk_AnswerWithSources(t *testing.T) {
	gen := &fakeGenerator{answer: "  Paris is the capital.  "}
	p := New(context.Background(), readyRetriever(
		match("France's capital is Paris."),
		match("Paris has about two million inhabitants."),
	), gen, Config{}, nil)

	result := p.Ask(context.Background(), "What is the capital of France?")

	require.True(t, result.Succeeded)
	assert.Equal(t, "Paris is the capital.", result.Answer, "answer should be trimmed")
	require.Len(t, result.Sources, 2)
	assert.Equal(t, "France's capital is Paris.", result.Sources[0].Content)
	assert.Equal(t, "doc.txt", result.Sources[0].Metadata.Source)
	assert.GreaterOrEqual(t, result.Metrics.Total, result.Metrics.Retrieval)

	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "France's capital is Paris.")
	assert.Contains(t, prompt, "Question: What is the capital of France?")
	assert.Contains(t, prompt, "Helpful Answer:")
}

// TestAsk_HistoryAccumulates verifies earlier turns appear in later prompts
// and ClearMemory removes them.
func TestAsk_HistoryAccumulates(t *testing.T) {
	gen := &fakeGenerator{answer: "The first answer."}
	p := New(context.Background(), readyRetriever(match("context")), gen, Config{}, nil)

	p.Ask(context.Background(), "first question")
	p.Ask(context.Background(), "second question")

	require.Len(t, gen.prompts, 2)
	assert.Contains(t, gen.prompts[1], "User: first question")
	assert.Contains(t, gen.prompts[1], "Assistant: The first answer.")

	history := p.History()
	require.Len(t, history, 4)
	assert.Equal(t, RoleUser, history[0].Role)
	assert.Equal(t, "first question", history[0].Content)
	assert.Equal(t, RoleAssistant, history[1].Role)

	p.ClearMemory()
	assert.Empty(t, p.History())

	p.Ask(context.Background(), "third question")
	assert.NotContains(t, gen.prompts[2], "first question")
}

// TestAsk_SourceTruncation verifies long chunk content is cut to the preview
// length with a marker.
func TestAsk_SourceTruncation(t *testing.T) {
	long := strings.Repeat("abcdefghij", 30) // 300 chars
	p := New(context.Background(), readyRetriever(match(long)), &fakeGenerator{answer: "a"}, Config{}, nil)

	result := p.Ask(context.Background(), "question")

	require.True(t, result.Succeeded)
	require.Len(t, result.Sources, 1)
	assert.Len(t, result.Sources[0].Content, sourcePreviewLen+len("..."))
	assert.True(t, strings.HasSuffix(result.Sources[0].Content, "..."))
}

// TestAsk_GenerationFailure verifies a generator error produces a failed
// result, leaves no history and does not poison the next question.
func TestAsk_GenerationFailure(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("model crashed")}
	p := New(context.Background(), readyRetriever(match("context")), gen, Config{}, nil)

	result := p.Ask(context.Background(), "doomed question")
	assert.False(t, result.Succeeded)
	assert.Contains(t, result.Answer, "model crashed")
	assert.Empty(t, p.History(), "failed turns must not enter history")

	gen.err = nil
	gen.answer = "recovered"
	result = p.Ask(context.Background(), "next question")
	assert.True(t, result.Succeeded)
	assert.Equal(t, "recovered", result.Answer)
}

// TestAsk_RetrievalFailure verifies a retriever error produces a failed
// result without calling the generator.
func TestAsk_RetrievalFailure(t *testing.T) {
	gen := &fakeGenerator{answer: "unused"}
	retriever := readyRetriever(match("context"))
	p := New(context.Background(), retriever, gen, Config{}, nil)

	retriever.searchErr = errors.New("store unreachable")

	result := p.Ask(context.Background(), "question")
	assert.False(t, result.Succeeded)
	assert.Contains(t, result.Answer, "store unreachable")
	assert.Empty(t, gen.prompts)
}

// TestSystemInfo verifies the snapshot reflects generator, store and history
// state and never fails.
func TestSystemInfo(t *testing.T) {
	p := New(context.Background(), readyRetriever(match("context")), &fakeGenerator{answer: "a"}, Config{}, nil)

	info := p.SystemInfo(context.Background())
	assert.Equal(t, "fake-model", info.Model)
	assert.Equal(t, vectorstore.StatusActive, info.StoreStatus)
	assert.True(t, info.Ready)
	assert.Equal(t, 0, info.HistoryLength)

	p.Ask(context.Background(), "question")
	info = p.SystemInfo(context.Background())
	assert.Equal(t, 2, info.HistoryLength)
}
