package eval

import (
	"context"
	"strings"
	"time"

	"github.com/lectern-ai/lectern/internal/engine"
	"github.com/lectern-ai/lectern/internal/store"
)

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// PromptQuery is a test query annotated with the qualities a good answer
// should exhibit. Topic "not_in_dataset" means an honest unknown is the
// correct response.
type PromptQuery struct {
	Query             string   `json:"query"`
	ExpectedQualities []string `json:"expected_qualities"`
	Topic             string   `json:"topic"`
}

// DefaultPromptQueries returns the standard prompt test set. The last query
// is deliberately outside the corpus to test honesty.
func DefaultPromptQueries() []PromptQuery {
	return []PromptQuery{
		{
			Query:             "What is the Floyd-Warshall algorithm?",
			ExpectedQualities: []string{"algorithm", "purpose", "complexity"},
			Topic:             "algorithms",
		},
		{
			Query:             "Explain dynamic programming",
			ExpectedQualities: []string{"definition", "approach", "examples"},
			Topic:             "algorithms",
		},
		{
			Query:             "How does gradient descent work?",
			ExpectedQualities: []string{"process", "optimization", "mathematical"},
			Topic:             "machine_learning",
		},
		{
			Query:             "What is cryptography?",
			ExpectedQualities: []string{"definition", "purpose", "techniques"},
			Topic:             "cryptography",
		},
		{
			Query:             "What is reinforcement learning?",
			ExpectedQualities: []string{"honest_unknown"},
			Topic:             "not_in_dataset",
		},
	}
}

// QueryAnswer holds one query's answer and its quality assessment.
type QueryAnswer struct {
	Query               string  `json:"query"`
	AnswerPreview       string  `json:"answer_preview"`
	WordCount           int     `json:"word_count"`
	HasUnknownAdmission bool    `json:"has_unknown_admission"`
	QualityScore        float64 `json:"quality_score"`
	SourcesCount        int     `json:"sources_count"`
}

// PromptResult is one template's evaluation over all queries.
type PromptResult struct {
	PromptKey           string        `json:"prompt_key"`
	PromptName          string        `json:"prompt_name"`
	QueryResults        []QueryAnswer `json:"query_results"`
	AverageQualityScore float64       `json:"average_quality_score"`
	AverageWordCount    float64       `json:"average_word_count"`
	TotalQueries        int           `json:"total_queries"`
}

// PromptReport compares all prompt templates and names the best.
type PromptReport struct {
	Timestamp     string         `json:"timestamp"`
	Evaluations   []PromptResult `json:"prompt_evaluations"`
	BestPrompt    string         `json:"best_prompt"`
	BestPromptKey string         `json:"best_prompt_key"`
	BestScore     float64        `json:"best_score"`
}

// EvaluatePrompts runs every candidate template over the test queries using
// similarity search with k=3. Best is the highest average quality score;
// ties keep the first template evaluated. Failed queries score zero and
// never abort the run.
func EvaluatePrompts(ctx context.Context, retriever Retriever, generator Generator, queries []PromptQuery) *PromptReport {
	if len(queries) == 0 {
		queries = DefaultPromptQueries()
	}

	report := &PromptReport{
		Timestamp: time.Now().Format(time.RFC3339),
		BestScore: -1,
	}
	for _, tmpl := range engine.Prompts {
		e := engine.New(engine.Config{
			Retriever:  retriever,
			Generator:  generator,
			Prompt:     tmpl,
			K:          3,
			SearchType: store.SearchSimilarity,
		})

		result := PromptResult{
			PromptKey:    tmpl.Key,
			PromptName:   tmpl.Name,
			TotalQueries: len(queries),
		}
		totalScore := 0.0
		totalWords := 0
		for _, q := range queries {
			answer := e.Query(ctx, q.Query)
			if answer.Err != "" {
				// One failed query never aborts the comparison; it scores
				// zero and the remaining queries still run.
				result.QueryResults = append(result.QueryResults, QueryAnswer{
					Query:         q.Query,
					AnswerPreview: answerPreview(answer.Answer),
				})
				continue
			}

			score := scoreAnswer(answer.Answer, q)
			words := len(strings.Fields(answer.Answer))
			result.QueryResults = append(result.QueryResults, QueryAnswer{
				Query:               q.Query,
				AnswerPreview:       answerPreview(answer.Answer),
				WordCount:           words,
				HasUnknownAdmission: admitsUnknown(answer.Answer),
				QualityScore:        score,
				SourcesCount:        len(answer.Sources),
			})
			totalScore += score
			totalWords += words
		}
		if len(queries) > 0 {
			result.AverageQualityScore = totalScore / float64(len(queries))
			result.AverageWordCount = float64(totalWords) / float64(len(queries))
		}
		report.Evaluations = append(report.Evaluations, result)

		if result.AverageQualityScore > report.BestScore {
			report.BestScore = result.AverageQualityScore
			report.BestPrompt = result.PromptName
			report.BestPromptKey = result.PromptKey
		}
	}
	return report
}

// scoreAnswer rates an answer on a 0-10 scale. Queries outside the corpus
// reward an honest admission and penalize fabrication; in-corpus queries
// reward expected terminology, detail, examples and structure.
func scoreAnswer(answer string, q PromptQuery) float64 {
	score := 5.0
	lower := strings.ToLower(answer)
	words := len(strings.Fields(answer))

	if q.Topic == "not_in_dataset" {
		if admitsUnknown(answer) {
			score += 5.0
		} else {
			score -= 3.0
		}
		return clampScore(score)
	}

	if hasQuality(q.ExpectedQualities, "algorithm") &&
		containsAny(lower, "algorithm", "complexity", "time") {
		score += 2.0
	}
	if hasQuality(q.ExpectedQualities, "definition") && words > 30 {
		score += 1.5
	}
	if hasQuality(q.ExpectedQualities, "examples") &&
		containsAny(lower, "example", "such as", "like", "for instance") {
		score += 1.0
	}
	if len(strings.Split(answer, ".")) >= 3 {
		score += 1.0
	}
	if words < 20 {
		score -= 2.0
	}
	if words > 100 {
		score += 0.5
	}
	return clampScore(score)
}

func admitsUnknown(answer string) bool {
	return containsAny(strings.ToLower(answer),
		"don't know", "do not know", "cannot", "not contain", "don't have")
}

func hasQuality(qualities []string, q string) bool {
	for _, c := range qualities {
		if c == q {
			return true
		}
	}
	return false
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 10 {
		return 10
	}
	return score
}

func answerPreview(answer string) string {
	if len(answer) > 200 {
		return answer[:200] + "..."
	}
	return answer
}
