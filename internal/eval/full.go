package eval

import (
	"context"
	"strings"
	"time"

	"github.com/lectern-ai/lectern/internal/engine"
)

// Querier answers a question end to end. Implemented by engine.Engine.
type Querier interface {
	Query(ctx context.Context, question string) engine.Result
}

// TestQuestion is a full-evaluation question with expected keywords and a
// category for the breakdown.
type TestQuestion struct {
	Question         string   `json:"question"`
	ExpectedKeywords []string `json:"expected_keywords"`
	Category         string   `json:"category"`
}

// DefaultQuestions returns the standard question set for CS textbook
// corpora.
func DefaultQuestions() []TestQuestion {
	return []TestQuestion{
		{
			Question:         "What is an algorithm?",
			ExpectedKeywords: []string{"step-by-step", "procedure", "instructions", "solve", "problem"},
			Category:         "definitions",
		},
		{
			Question:         "What are the main properties of good algorithms?",
			ExpectedKeywords: []string{"correctness", "efficiency", "scalability", "performance"},
			Category:         "properties",
		},
		{
			Question:         "What is Big O notation?",
			ExpectedKeywords: []string{"complexity", "time", "space", "asymptotic", "growth"},
			Category:         "complexity",
		},
		{
			Question:         "What are common data structures in computer science?",
			ExpectedKeywords: []string{"arrays", "linked lists", "stacks", "queues", "trees", "graphs"},
			Category:         "data_structures",
		},
		{
			Question:         "What is time complexity?",
			ExpectedKeywords: []string{"runtime", "input size", "growth", "performance"},
			Category:         "complexity",
		},
		{
			Question:         "How do you analyze algorithm efficiency?",
			ExpectedKeywords: []string{"benchmarking", "profiling", "complexity analysis", "measurement"},
			Category:         "analysis",
		},
		{
			Question:         "What are the main programming paradigms?",
			ExpectedKeywords: []string{"imperative", "declarative", "object-oriented", "functional"},
			Category:         "paradigms",
		},
		{
			Question:         "What is computer architecture about?",
			ExpectedKeywords: []string{"CPU", "memory", "storage", "hardware", "organization"},
			Category:         "architecture",
		},
	}
}

// QualityMetrics are heuristic answer-quality signals, each in [0, 1].
type QualityMetrics struct {
	LengthScore    float64 `json:"length_score"`
	HasExplanation float64 `json:"has_explanation"`
	HasExamples    float64 `json:"has_examples"`
	Completeness   float64 `json:"completeness"`
}

func (m QualityMetrics) overall() float64 {
	return (m.LengthScore + m.HasExplanation + m.HasExamples + m.Completeness) / 4
}

// QuestionEvaluation is one question's full assessment.
type QuestionEvaluation struct {
	Question         string         `json:"question"`
	Answer           string         `json:"answer"`
	Category         string         `json:"category"`
	ResponseTime     float64        `json:"response_time"`
	NumSources       int            `json:"num_sources"`
	HasSources       bool           `json:"has_sources"`
	KeywordRelevance float64        `json:"keyword_relevance"`
	AnswerQuality    QualityMetrics `json:"answer_quality"`
	OverallQuality   float64        `json:"overall_quality"`
	ExpectedKeywords []string       `json:"expected_keywords"`
	Success          bool           `json:"success"`
	Error            string         `json:"error,omitempty"`
}

// CategoryStats summarizes results within one question category.
type CategoryStats struct {
	Count       int     `json:"count"`
	Success     int     `json:"success"`
	SuccessRate float64 `json:"success_rate"`
	AvgQuality  float64 `json:"avg_quality"`
	AvgSources  float64 `json:"avg_sources"`
}

// FullReport is the complete evaluation summary.
type FullReport struct {
	TotalQuestions      int                      `json:"total_questions"`
	SuccessfulQueries   int                      `json:"successful_queries"`
	SuccessRate         float64                  `json:"success_rate"`
	AvgResponseTime     float64                  `json:"avg_response_time"`
	AvgSourcesRetrieved float64                  `json:"avg_sources_retrieved"`
	AvgKeywordRelevance float64                  `json:"avg_keyword_relevance"`
	AvgOverallQuality   float64                  `json:"avg_overall_quality"`
	CategoryBreakdown   map[string]CategoryStats `json:"category_breakdown"`
	DetailedResults     []QuestionEvaluation     `json:"detailed_results"`
	Timestamp           string                   `json:"timestamp"`
}

// EvaluateFull runs every test question through the engine and aggregates
// quality metrics, response times and a per-category breakdown.
func EvaluateFull(ctx context.Context, querier Querier, questions []TestQuestion) *FullReport {
	if len(questions) == 0 {
		questions = DefaultQuestions()
	}

	results := make([]QuestionEvaluation, 0, len(questions))
	for _, q := range questions {
		results = append(results, evaluateQuestion(ctx, querier, q))
	}

	report := &FullReport{
		TotalQuestions:    len(results),
		CategoryBreakdown: make(map[string]CategoryStats),
		DetailedResults:   results,
		Timestamp:         time.Now().Format("2006-01-02 15:04:05"),
	}

	var sumTime, sumSources, sumKeyword, sumQuality float64
	for _, r := range results {
		if r.Success {
			report.SuccessfulQueries++
		}
		sumTime += r.ResponseTime
		sumSources += float64(r.NumSources)
		sumKeyword += r.KeywordRelevance
		sumQuality += r.OverallQuality

		stats := report.CategoryBreakdown[r.Category]
		stats.Count++
		if r.Success {
			stats.Success++
		}
		stats.AvgQuality += r.OverallQuality
		stats.AvgSources += float64(r.NumSources)
		report.CategoryBreakdown[r.Category] = stats
	}

	total := float64(report.TotalQuestions)
	report.SuccessRate = float64(report.SuccessfulQueries) / total
	report.AvgResponseTime = sumTime / total
	report.AvgSourcesRetrieved = sumSources / total
	report.AvgKeywordRelevance = sumKeyword / total
	report.AvgOverallQuality = sumQuality / total

	for cat, stats := range report.CategoryBreakdown {
		count := float64(stats.Count)
		stats.SuccessRate = float64(stats.Success) / count
		stats.AvgQuality /= count
		stats.AvgSources /= count
		report.CategoryBreakdown[cat] = stats
	}
	return report
}

func evaluateQuestion(ctx context.Context, querier Querier, q TestQuestion) QuestionEvaluation {
	start := time.Now()
	result := querier.Query(ctx, q.Question)
	elapsed := time.Since(start).Seconds()

	eval := QuestionEvaluation{
		Question:         q.Question,
		Category:         q.Category,
		ResponseTime:     elapsed,
		ExpectedKeywords: q.ExpectedKeywords,
		Error:            result.Err,
	}
	if result.Err != "" {
		return eval
	}

	quality := answerQuality(result.Answer)
	eval.Answer = result.Answer
	eval.NumSources = len(result.Sources)
	eval.HasSources = len(result.Sources) > 0
	eval.KeywordRelevance = keywordRelevance(result.Answer, q.ExpectedKeywords)
	eval.AnswerQuality = quality
	eval.OverallQuality = quality.overall()
	eval.Success = true
	return eval
}

// keywordRelevance is the fraction of expected keywords present in the
// answer.
func keywordRelevance(answer string, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	lower := strings.ToLower(answer)
	found := 0
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			found++
		}
	}
	return float64(found) / float64(len(keywords))
}

// answerQuality computes heuristic quality signals. Length and completeness
// saturate at 200 characters and 50 words respectively; explanation and
// example markers score 1.0 when present, 0.5 otherwise.
func answerQuality(answer string) QualityMetrics {
	lower := strings.ToLower(answer)
	m := QualityMetrics{
		LengthScore:    saturate(float64(len(answer)) / 200),
		HasExplanation: 0.5,
		HasExamples:    0.5,
		Completeness:   saturate(float64(len(strings.Fields(answer))) / 50),
	}
	if containsAny(lower, "because", "therefore", "since", "due to") {
		m.HasExplanation = 1.0
	}
	if containsAny(lower, "example", "for instance", "such as") {
		m.HasExamples = 1.0
	}
	return m
}

func saturate(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}
