// Package engine answers questions by retrieving relevant chunks and
// synthesizing an answer with an LLM.
package engine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/lectern-ai/lectern/internal/domain"
	"github.com/lectern-ai/lectern/internal/store"
)

const previewLength = 200

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Retriever returns the top k chunks for a query.
type Retriever interface {
	Search(ctx context.Context, query string, k int, searchType store.SearchType) ([]domain.SearchResult, error)
}

// Recorder receives a record of each successful query. Implemented by the
// telemetry store.
type Recorder interface {
	AddInteraction(question string, answerLength, sourcesCount int, responseTime time.Duration) error
}

// Source describes one retrieved chunk backing an answer.
type Source struct {
	Preview    string `json:"preview"`
	Source     string `json:"source"`
	ChunkIndex int    `json:"chunk_index"`
}

// Result is the outcome of a query. Err is set when processing failed; the
// answer then carries a human-readable description instead of generated text.
type Result struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Sources  []Source `json:"sources"`
	Err      string   `json:"error,omitempty"`
}

// Config wires an Engine to its collaborators.
type Config struct {
	Retriever  Retriever
	Generator  Generator
	Recorder   Recorder // optional
	Prompt     PromptTemplate
	K          int
	SearchType store.SearchType
}

// Engine runs retrieval-augmented question answering. Query is a total
// function: it never returns an error, failures are folded into the Result.
type Engine struct {
	retriever  Retriever
	generator  Generator
	recorder   Recorder
	prompt     PromptTemplate
	k          int
	searchType store.SearchType
}

// New creates an Engine. Zero-value prompt, k and search type fall back to
// the evaluated production defaults (expert template, similarity, k=3).
func New(cfg Config) *Engine {
	e := &Engine{
		retriever:  cfg.Retriever,
		generator:  cfg.Generator,
		recorder:   cfg.Recorder,
		prompt:     cfg.Prompt,
		k:          cfg.K,
		searchType: cfg.SearchType,
	}
	if e.prompt.Template == "" {
		e.prompt = PromptByKey(DefaultPromptKey)
	}
	if e.k <= 0 {
		e.k = 3
	}
	if e.searchType == "" {
		e.searchType = store.SearchSimilarity
	}
	return e
}

// Query retrieves context for the question and generates an answer.
func (e *Engine) Query(ctx context.Context, question string) Result {
	start := time.Now()

	results, err := e.retriever.Search(ctx, question, e.k, e.searchType)
	if err != nil {
		return errorResult(question, fmt.Errorf("retrieval failed: %w", err))
	}

	contexts := make([]string, 0, len(results))
	sources := make([]Source, 0, len(results))
	for _, r := range results {
		contexts = append(contexts, r.Chunk.Content)
		sources = append(sources, Source{
			Preview:    preview(r.Chunk.Content),
			Source:     r.Chunk.Source,
			ChunkIndex: r.Chunk.ChunkIndex,
		})
	}

	prompt := e.prompt.Render(strings.Join(contexts, "\n\n"), question)
	answer, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		return errorResult(question, fmt.Errorf("generation failed: %w", err))
	}

	if e.recorder != nil {
		// Telemetry failures never affect the answer.
		if err := e.recorder.AddInteraction(question, len(strings.Fields(answer)), len(sources), time.Since(start)); err != nil {
			log.Printf("failed to record interaction: %v", err)
		}
	}

	return Result{
		Question: question,
		Answer:   answer,
		Sources:  sources,
	}
}

func errorResult(question string, err error) Result {
	return Result{
		Question: question,
		Answer:   fmt.Sprintf("An error occurred while processing your question: %v", err),
		Sources:  []Source{},
		Err:      err.Error(),
	}
}

func preview(content string) string {
	if len(content) > previewLength {
		return content[:previewLength] + "..."
	}
	return content
}
