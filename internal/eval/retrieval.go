// Package eval measures retrieval quality, prompt template quality and
// end-to-end answer quality, producing JSON reports.
package eval

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lectern-ai/lectern/internal/domain"
	"github.com/lectern-ai/lectern/internal/store"
)

// Retriever returns the top k chunks for a query.
type Retriever interface {
	Search(ctx context.Context, query string, k int, searchType store.SearchType) ([]domain.SearchResult, error)
}

// RetrievalQuery is a test query with the keywords a relevant chunk should
// contain.
type RetrievalQuery struct {
	Query            string   `json:"query"`
	ExpectedTopic    string   `json:"expected_topic"`
	ExpectedKeywords []string `json:"expected_keywords"`
}

// DefaultRetrievalQueries returns the standard retrieval test set.
func DefaultRetrievalQueries() []RetrievalQuery {
	return []RetrievalQuery{
		{
			Query:            "What is the Floyd-Warshall algorithm?",
			ExpectedTopic:    "algorithms",
			ExpectedKeywords: []string{"floyd", "warshall", "shortest", "path", "dynamic"},
		},
		{
			Query:            "Explain dynamic programming",
			ExpectedTopic:    "algorithms",
			ExpectedKeywords: []string{"dynamic", "programming", "optimization", "subproblem"},
		},
		{
			Query:            "How does gradient descent work?",
			ExpectedTopic:    "machine learning",
			ExpectedKeywords: []string{"gradient", "descent", "optimization", "loss"},
		},
		{
			Query:            "What is object-oriented programming?",
			ExpectedTopic:    "programming",
			ExpectedKeywords: []string{"object", "oriented", "class", "inheritance"},
		},
		{
			Query:            "What are sorting algorithms?",
			ExpectedTopic:    "algorithms",
			ExpectedKeywords: []string{"sort", "algorithm", "complexity", "time"},
		},
	}
}

// RetrievalConfig is one retrieval approach under comparison.
type RetrievalConfig struct {
	Name       string           `json:"name"`
	K          int              `json:"k"`
	SearchType store.SearchType `json:"search_type"`
}

// RetrievalConfigs returns the approaches the evaluation compares.
func RetrievalConfigs() []RetrievalConfig {
	return []RetrievalConfig{
		{Name: "Semantic Search (k=3)", K: 3, SearchType: store.SearchSimilarity},
		{Name: "Semantic Search (k=5)", K: 5, SearchType: store.SearchSimilarity},
		{Name: "Semantic Search (k=10)", K: 10, SearchType: store.SearchSimilarity},
		{Name: "MMR Search (k=5)", K: 5, SearchType: store.SearchMMR},
	}
}

// QueryRetrieval holds per-query retrieval metrics.
type QueryRetrieval struct {
	Query             string  `json:"query"`
	RetrievedCount    int     `json:"retrieved_count"`
	RelevantCount     int     `json:"relevant_count"`
	Precision         float64 `json:"precision"`
	AvgKeywordMatches float64 `json:"avg_keyword_matches"`
}

// RetrievalMetrics aggregates an approach's results over all queries.
type RetrievalMetrics struct {
	TotalQueries     int     `json:"total_queries"`
	TotalRetrieved   int     `json:"total_retrieved"`
	TotalRelevant    int     `json:"total_relevant"`
	OverallPrecision float64 `json:"overall_precision"`
	AvgKeywordScore  float64 `json:"avg_keyword_score"`
}

// ApproachResult is one approach's full evaluation.
type ApproachResult struct {
	Name          string           `json:"name"`
	K             int              `json:"k"`
	SearchType    store.SearchType `json:"search_type"`
	QueryResults  []QueryRetrieval `json:"query_results"`
	Metrics       RetrievalMetrics `json:"overall_metrics"`
	CombinedScore float64          `json:"combined_score"`
}

// RetrievalReport compares all approaches and names the best.
type RetrievalReport struct {
	Timestamp    string           `json:"timestamp"`
	Approaches   []ApproachResult `json:"approaches"`
	BestApproach string           `json:"best_approach"`
	BestScore    float64          `json:"best_score"`
}

// EvaluateRetrieval runs every configured approach over the test queries.
// It only searches, no generation is involved. The combined score weighs
// precision at 0.7 and keyword relevance at 0.3; ties keep the first
// approach evaluated.
func EvaluateRetrieval(ctx context.Context, retriever Retriever, queries []RetrievalQuery) (*RetrievalReport, error) {
	if len(queries) == 0 {
		queries = DefaultRetrievalQueries()
	}

	report := &RetrievalReport{
		Timestamp: time.Now().Format(time.RFC3339),
		BestScore: -1,
	}
	for _, cfg := range RetrievalConfigs() {
		result, err := evaluateApproach(ctx, retriever, cfg, queries)
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate %s: %w", cfg.Name, err)
		}
		report.Approaches = append(report.Approaches, *result)
		if result.CombinedScore > report.BestScore {
			report.BestScore = result.CombinedScore
			report.BestApproach = result.Name
		}
	}
	return report, nil
}

func evaluateApproach(ctx context.Context, retriever Retriever, cfg RetrievalConfig, queries []RetrievalQuery) (*ApproachResult, error) {
	result := &ApproachResult{
		Name:       cfg.Name,
		K:          cfg.K,
		SearchType: cfg.SearchType,
	}

	totalRelevant := 0
	totalRetrieved := 0
	keywordScoreSum := 0.0

	for _, q := range queries {
		retrieved, err := retriever.Search(ctx, q.Query, cfg.K, cfg.SearchType)
		if err != nil {
			return nil, fmt.Errorf("search failed for %q: %w", q.Query, err)
		}

		relevant := 0
		keywordMatches := 0
		for _, doc := range retrieved {
			matches := countKeywords(doc.Chunk.Content, q.ExpectedKeywords)
			if matches > 0 {
				relevant++
				keywordMatches += matches
			}
		}

		qr := QueryRetrieval{
			Query:          q.Query,
			RetrievedCount: len(retrieved),
			RelevantCount:  relevant,
		}
		if len(retrieved) > 0 {
			qr.Precision = float64(relevant) / float64(len(retrieved))
			qr.AvgKeywordMatches = float64(keywordMatches) / float64(len(retrieved))
		}
		result.QueryResults = append(result.QueryResults, qr)

		totalRelevant += relevant
		totalRetrieved += len(retrieved)
		keywordScoreSum += qr.AvgKeywordMatches
	}

	result.Metrics = RetrievalMetrics{
		TotalQueries:   len(queries),
		TotalRetrieved: totalRetrieved,
		TotalRelevant:  totalRelevant,
	}
	if totalRetrieved > 0 {
		result.Metrics.OverallPrecision = float64(totalRelevant) / float64(totalRetrieved)
	}
	if len(queries) > 0 {
		result.Metrics.AvgKeywordScore = keywordScoreSum / float64(len(queries))
	}
	result.CombinedScore = result.Metrics.OverallPrecision*0.7 + result.Metrics.AvgKeywordScore*0.3
	return result, nil
}

func countKeywords(content string, keywords []string) int {
	lower := strings.ToLower(content)
	matches := 0
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			matches++
		}
	}
	return matches
}
