package eval

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lectern-ai/lectern/internal/domain"
	"github.com/lectern-ai/lectern/internal/store"
)

func TestScoreAnswer_HonestUnknown(t *testing.T) {
	q := PromptQuery{Topic: "not_in_dataset", ExpectedQualities: []string{"honest_unknown"}}
	if got := scoreAnswer("I don't know based on the provided context.", q); got != 10 {
		t.Fatalf("honest unknown should score 10, got %f", got)
	}
}

func TestScoreAnswer_FabricationPenalty(t *testing.T) {
	q := PromptQuery{Topic: "not_in_dataset", ExpectedQualities: []string{"honest_unknown"}}
	answer := "Reinforcement learning trains agents with rewards over repeated episodes."
	if got := scoreAnswer(answer, q); got != 2 {
		t.Fatalf("fabricated answer should score 2, got %f", got)
	}
}

func TestScoreAnswer_DetailedDefinition(t *testing.T) {
	// Base 5, +1.5 for a definition over 30 words, +1.0 for multiple
	// sentences. No algorithm terminology or example markers.
	q := PromptQuery{Topic: "cryptography", ExpectedQualities: []string{"definition"}}
	answer := "Cryptography is the study of secure communication in the presence of adversaries. " +
		"It concerns itself with confidentiality and integrity of messages exchanged over untrusted channels. " +
		"Modern systems rely on hard mathematical problems to protect keys and data."
	if words := len(strings.Fields(answer)); words <= 30 || words >= 100 {
		t.Fatalf("test answer has %d words, need between 31 and 99", words)
	}
	if got := scoreAnswer(answer, q); got != 7.5 {
		t.Fatalf("score = %f, want 7.5", got)
	}
}

func TestScoreAnswer_LongAnswerWithExamples(t *testing.T) {
	// Base 5, +1.0 example markers, +1.0 multiple sentences, +0.5 for a long
	// answer over 100 words.
	q := PromptQuery{Topic: "algorithms", ExpectedQualities: []string{"examples"}}
	answer := strings.TrimSpace(strings.Repeat(
		"This idea appears in many settings, for example shortest paths. ", 15))
	if words := len(strings.Fields(answer)); words != 150 {
		t.Fatalf("test answer has %d words, want 150", words)
	}
	if got := scoreAnswer(answer, q); got != 7.5 {
		t.Fatalf("score = %f, want 7.5", got)
	}
}

func TestScoreAnswer_ShortAnswerPenalty(t *testing.T) {
	q := PromptQuery{Topic: "algorithms", ExpectedQualities: []string{"purpose"}}
	if got := scoreAnswer("It finds paths", q); got != 3 {
		t.Fatalf("short answer should score 3, got %f", got)
	}
}

func TestScoreAnswer_AlgorithmTerminology(t *testing.T) {
	q := PromptQuery{Topic: "algorithms", ExpectedQualities: []string{"algorithm"}}
	answer := "This is a shortest path algorithm with cubic complexity. " +
		"It iterates over intermediate vertices. " +
		"Each pass relaxes every pair of distances in the matrix using that vertex."
	// Base 5, +2 terminology, +1 multi-sentence.
	if got := scoreAnswer(answer, q); got != 8 {
		t.Fatalf("score = %f, want 8", got)
	}
}

func TestScoreAnswer_Clamped(t *testing.T) {
	if got := clampScore(12); got != 10 {
		t.Fatalf("clamp high = %f", got)
	}
	if got := clampScore(-1); got != 0 {
		t.Fatalf("clamp low = %f", got)
	}
}

// promptAwareGenerator distinguishes templates by their answer cue and
// produces a strong answer only for the expert template.
type promptAwareGenerator struct{}

func (promptAwareGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.Contains(prompt, "Expert Answer:") {
		return "Cryptography is the study of secure communication in the presence of adversaries. " +
			"It concerns itself with confidentiality and integrity of messages exchanged over untrusted channels. " +
			"Modern systems rely on hard mathematical problems to protect keys and data.", nil
	}
	return "It hides messages", nil
}

type fixedRetriever struct{}

func (fixedRetriever) Search(ctx context.Context, query string, k int, searchType store.SearchType) ([]domain.SearchResult, error) {
	return []domain.SearchResult{
		{Chunk: domain.Chunk{Content: "ciphers and keys", Source: "crypto.pdf"}},
	}, nil
}

func TestEvaluatePrompts_SelectsBestTemplate(t *testing.T) {
	queries := []PromptQuery{{
		Query:             "What is cryptography?",
		ExpectedQualities: []string{"definition"},
		Topic:             "cryptography",
	}}

	report := EvaluatePrompts(context.Background(), fixedRetriever{}, promptAwareGenerator{}, queries)
	if len(report.Evaluations) != 4 {
		t.Fatalf("expected 4 template evaluations, got %d", len(report.Evaluations))
	}
	if report.BestPromptKey != "expert" {
		t.Fatalf("best prompt = %q, want expert", report.BestPromptKey)
	}
	if report.BestScore != 7.5 {
		t.Fatalf("best score = %f, want 7.5", report.BestScore)
	}
	for _, e := range report.Evaluations {
		if e.TotalQueries != 1 || len(e.QueryResults) != 1 {
			t.Fatalf("unexpected result shape: %+v", e)
		}
		if e.QueryResults[0].SourcesCount != 1 {
			t.Fatalf("expected 1 source, got %d", e.QueryResults[0].SourcesCount)
		}
	}
}

// flakyGenerator fails on one specific question and answers the rest.
type flakyGenerator struct{}

func (flakyGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.Contains(prompt, "broken question") {
		return "", errors.New("model unavailable")
	}
	return "Cryptography is the study of secure communication in the presence of adversaries. " +
		"It concerns itself with confidentiality and integrity of messages exchanged over untrusted channels. " +
		"Modern systems rely on hard mathematical problems to protect keys and data.", nil
}

func TestEvaluatePrompts_FailedQueryDoesNotAbort(t *testing.T) {
	queries := []PromptQuery{
		{Query: "broken question", ExpectedQualities: []string{"definition"}, Topic: "cryptography"},
		{Query: "What is cryptography?", ExpectedQualities: []string{"definition"}, Topic: "cryptography"},
	}

	report := EvaluatePrompts(context.Background(), fixedRetriever{}, flakyGenerator{}, queries)
	if len(report.Evaluations) != 4 {
		t.Fatalf("expected 4 template evaluations, got %d", len(report.Evaluations))
	}
	for _, e := range report.Evaluations {
		if len(e.QueryResults) != 2 {
			t.Fatalf("both queries must be recorded, got %d", len(e.QueryResults))
		}
		failed := e.QueryResults[0]
		if failed.QualityScore != 0 || failed.WordCount != 0 {
			t.Fatalf("failed query should score zero: %+v", failed)
		}
		if e.QueryResults[1].QualityScore != 7.5 {
			t.Fatalf("surviving query score = %f, want 7.5", e.QueryResults[1].QualityScore)
		}
		// Average spans all queries, failed ones included.
		if e.AverageQualityScore != 3.75 {
			t.Fatalf("average = %f, want 3.75", e.AverageQualityScore)
		}
	}
}
