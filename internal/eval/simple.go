package eval

import (
	"context"

	"github.com/lectern-ai/lectern/internal/engine"
)

// SimpleReport is a quick health check over a list of questions.
type SimpleReport struct {
	TotalQuestions          int             `json:"total_questions"`
	SuccessfulQueries       int             `json:"successful_queries"`
	SuccessRate             float64         `json:"success_rate"`
	AverageSourcesRetrieved float64         `json:"average_sources_retrieved"`
	Results                 []engine.Result `json:"results"`
}

// EvaluateSimple runs each question through the engine and reports the
// success rate and average number of sources retrieved.
func EvaluateSimple(ctx context.Context, querier Querier, questions []string) *SimpleReport {
	report := &SimpleReport{TotalQuestions: len(questions)}
	sumSources := 0
	for _, q := range questions {
		result := querier.Query(ctx, q)
		report.Results = append(report.Results, result)
		if result.Err == "" {
			report.SuccessfulQueries++
		}
		sumSources += len(result.Sources)
	}
	if report.TotalQuestions > 0 {
		report.SuccessRate = float64(report.SuccessfulQueries) / float64(report.TotalQuestions)
		report.AverageSourcesRetrieved = float64(sumSources) / float64(report.TotalQuestions)
	}
	return report
}
