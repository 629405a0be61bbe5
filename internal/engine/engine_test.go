package engine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/lectern-ai/lectern/internal/domain"
	"github.com/lectern-ai/lectern/internal/store"
)

type stubRetriever struct {
	results []domain.SearchResult
	err     error
	gotK    int
	gotType store.SearchType
}

func (s *stubRetriever) Search(ctx context.Context, query string, k int, searchType store.SearchType) ([]domain.SearchResult, error) {
	s.gotK = k
	s.gotType = searchType
	return s.results, s.err
}

type stubGenerator struct {
	answer    string
	err       error
	gotPrompt string
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	s.gotPrompt = prompt
	return s.answer, s.err
}

type recordedInteraction struct {
	question     string
	answerLength int
	sourcesCount int
	responseTime time.Duration
}

type stubRecorder struct {
	interactions []recordedInteraction
}

func (s *stubRecorder) AddInteraction(question string, answerLength, sourcesCount int, responseTime time.Duration) error {
	s.interactions = append(s.interactions, recordedInteraction{question, answerLength, sourcesCount, responseTime})
	return nil
}

func chunkResult(content, source string, index int) domain.SearchResult {
	return domain.SearchResult{
		Chunk: domain.Chunk{Content: content, Source: source, ChunkIndex: index},
		Score: 0.9,
	}
}

func TestQuery_Success(t *testing.T) {
	retriever := &stubRetriever{results: []domain.SearchResult{
		chunkResult("a sorting algorithm orders elements", "algorithms.pdf", 4),
		chunkResult("quicksort partitions around a pivot", "algorithms.pdf", 5),
	}}
	gen := &stubGenerator{answer: "Sorting algorithms order elements."}
	e := New(Config{Retriever: retriever, Generator: gen})

	result := e.Query(context.Background(), "What are sorting algorithms?")
	if result.Err != "" {
		t.Fatalf("unexpected error: %s", result.Err)
	}
	if result.Answer != "Sorting algorithms order elements." {
		t.Fatalf("unexpected answer: %q", result.Answer)
	}
	if len(result.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(result.Sources))
	}
	if result.Sources[0].Source != "algorithms.pdf" || result.Sources[0].ChunkIndex != 4 {
		t.Fatalf("unexpected first source: %+v", result.Sources[0])
	}
}

func TestQuery_Defaults(t *testing.T) {
	retriever := &stubRetriever{}
	e := New(Config{Retriever: retriever, Generator: &stubGenerator{answer: "ok"}})

	e.Query(context.Background(), "q")
	if retriever.gotK != 3 {
		t.Fatalf("default k = %d, want 3", retriever.gotK)
	}
	if retriever.gotType != store.SearchSimilarity {
		t.Fatalf("default search type = %q, want similarity", retriever.gotType)
	}
}

func TestQuery_PromptContainsContextAndQuestion(t *testing.T) {
	retriever := &stubRetriever{results: []domain.SearchResult{
		chunkResult("first chunk", "a.txt", 0),
		chunkResult("second chunk", "a.txt", 1),
	}}
	gen := &stubGenerator{answer: "ok"}
	e := New(Config{Retriever: retriever, Generator: gen})

	e.Query(context.Background(), "the question")
	if !strings.Contains(gen.gotPrompt, "first chunk\n\nsecond chunk") {
		t.Fatalf("prompt missing joined context: %q", gen.gotPrompt)
	}
	if !strings.Contains(gen.gotPrompt, "the question") {
		t.Fatalf("prompt missing question: %q", gen.gotPrompt)
	}
	if strings.Contains(gen.gotPrompt, "{context}") || strings.Contains(gen.gotPrompt, "{question}") {
		t.Fatalf("unsubstituted placeholder in prompt: %q", gen.gotPrompt)
	}
}

func TestQuery_RetrievalFailureIsTotal(t *testing.T) {
	retriever := &stubRetriever{err: errors.New("backend down")}
	e := New(Config{Retriever: retriever, Generator: &stubGenerator{}})

	result := e.Query(context.Background(), "q")
	if result.Err == "" {
		t.Fatal("expected Err to be set")
	}
	if !strings.HasPrefix(result.Answer, "An error occurred while processing your question:") {
		t.Fatalf("unexpected degraded answer: %q", result.Answer)
	}
	if result.Sources == nil || len(result.Sources) != 0 {
		t.Fatalf("expected empty sources, got %v", result.Sources)
	}
}

func TestQuery_GenerationFailureIsTotal(t *testing.T) {
	retriever := &stubRetriever{results: []domain.SearchResult{chunkResult("c", "a.txt", 0)}}
	e := New(Config{Retriever: retriever, Generator: &stubGenerator{err: errors.New("model missing")}})

	result := e.Query(context.Background(), "q")
	if result.Err == "" || !strings.Contains(result.Err, "model missing") {
		t.Fatalf("expected generation error in Err, got %q", result.Err)
	}
}

func TestQuery_PreviewTruncation(t *testing.T) {
	long := strings.Repeat("x", 450)
	retriever := &stubRetriever{results: []domain.SearchResult{chunkResult(long, "a.txt", 0)}}
	e := New(Config{Retriever: retriever, Generator: &stubGenerator{answer: "ok"}})

	result := e.Query(context.Background(), "q")
	p := result.Sources[0].Preview
	if len(p) != 203 || !strings.HasSuffix(p, "...") {
		t.Fatalf("expected 200-char preview with ellipsis, got %d chars", len(p))
	}
}

func TestQuery_RecordsInteraction(t *testing.T) {
	retriever := &stubRetriever{results: []domain.SearchResult{
		chunkResult("c", "a.txt", 0),
		chunkResult("d", "a.txt", 1),
	}}
	rec := &stubRecorder{}
	e := New(Config{
		Retriever: retriever,
		Generator: &stubGenerator{answer: "three word answer"},
		Recorder:  rec,
	})

	e.Query(context.Background(), "q")
	if len(rec.interactions) != 1 {
		t.Fatalf("expected 1 recorded interaction, got %d", len(rec.interactions))
	}
	got := rec.interactions[0]
	if got.question != "q" || got.answerLength != 3 || got.sourcesCount != 2 {
		t.Fatalf("unexpected interaction: %+v", got)
	}
}

func TestQuery_FailureNotRecorded(t *testing.T) {
	rec := &stubRecorder{}
	e := New(Config{
		Retriever: &stubRetriever{err: errors.New("down")},
		Generator: &stubGenerator{},
		Recorder:  rec,
	})

	e.Query(context.Background(), "q")
	if len(rec.interactions) != 0 {
		t.Fatalf("failed query must not be recorded, got %d interactions", len(rec.interactions))
	}
}

func TestPromptByKey(t *testing.T) {
	if got := PromptByKey("concise"); got.Key != "concise" {
		t.Fatalf("got %q", got.Key)
	}
	if got := PromptByKey("nonexistent"); got.Key != DefaultPromptKey {
		t.Fatalf("unknown key should fall back to default, got %q", got.Key)
	}
}

func TestPromptRender(t *testing.T) {
	p := PromptByKey("expert")
	out := p.Render("CTX", "QST")
	if !strings.Contains(out, "Context: CTX") || !strings.Contains(out, "Question: QST") {
		t.Fatalf("render did not substitute placeholders: %q", out)
	}
}
