// Package telemetry persists user feedback and query interaction logs as a
// single JSON file.
package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const answerPreviewLength = 200

// FeedbackType classifies user feedback on an answer.
type FeedbackType string

const (
	FeedbackPositive FeedbackType = "positive"
	FeedbackNegative FeedbackType = "negative"
)

// Feedback is one user judgement on a question-answer pair.
type Feedback struct {
	Timestamp     time.Time    `json:"timestamp"`
	Question      string       `json:"question"`
	AnswerPreview string       `json:"answer_preview"`
	Feedback      FeedbackType `json:"feedback"`
	SourcesCount  int          `json:"sources_count"`
	Comment       string       `json:"comment,omitempty"`
	AnswerLength  int          `json:"answer_length"`
}

// Interaction is one logged query.
type Interaction struct {
	Timestamp      time.Time `json:"timestamp"`
	Question       string    `json:"question"`
	QuestionLength int       `json:"question_length"`
	AnswerLength   int       `json:"answer_length"`
	SourcesCount   int       `json:"sources_count"`
	ResponseTime   float64   `json:"response_time_seconds"`
}

type data struct {
	Feedback     []Feedback    `json:"feedback"`
	Interactions []Interaction `json:"interactions"`
}

// Store reads and appends telemetry records in a JSON file. A missing or
// corrupt file is treated as empty, never as an error.
type Store struct {
	path string
}

// NewStore creates a Store backed by the given file, creating it if absent.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := s.save(&data{Feedback: []Feedback{}, Interactions: []Interaction{}}); err != nil {
			return nil, fmt.Errorf("failed to create telemetry file: %w", err)
		}
	}
	return s, nil
}

// AddFeedback records a user judgement on an answer.
func (s *Store) AddFeedback(question, answer string, feedbackType FeedbackType, sourcesCount int, comment string) error {
	d := s.load()
	d.Feedback = append(d.Feedback, Feedback{
		Timestamp:     time.Now(),
		Question:      question,
		AnswerPreview: previewAnswer(answer),
		Feedback:      feedbackType,
		SourcesCount:  sourcesCount,
		Comment:       comment,
		AnswerLength:  len(strings.Fields(answer)),
	})
	return s.save(d)
}

// AddInteraction logs one query.
func (s *Store) AddInteraction(question string, answerLength, sourcesCount int, responseTime time.Duration) error {
	d := s.load()
	d.Interactions = append(d.Interactions, Interaction{
		Timestamp:      time.Now(),
		Question:       question,
		QuestionLength: len(strings.Fields(question)),
		AnswerLength:   answerLength,
		SourcesCount:   sourcesCount,
		ResponseTime:   responseTime.Seconds(),
	})
	return s.save(d)
}

// Feedback returns all stored feedback entries.
func (s *Store) Feedback() []Feedback {
	return s.load().Feedback
}

// Interactions returns all logged interactions.
func (s *Store) Interactions() []Interaction {
	return s.load().Interactions
}

// FeedbackStats summarizes stored feedback.
type FeedbackStats struct {
	TotalFeedback      int     `json:"total_feedback"`
	PositiveCount      int     `json:"positive_count"`
	NegativeCount      int     `json:"negative_count"`
	PositivePercentage float64 `json:"positive_percentage"`
	NegativePercentage float64 `json:"negative_percentage"`
}

// FeedbackStats computes counts and percentages over all feedback.
func (s *Store) FeedbackStats() FeedbackStats {
	feedback := s.Feedback()
	stats := FeedbackStats{TotalFeedback: len(feedback)}
	if len(feedback) == 0 {
		return stats
	}
	for _, f := range feedback {
		switch f.Feedback {
		case FeedbackPositive:
			stats.PositiveCount++
		case FeedbackNegative:
			stats.NegativeCount++
		}
	}
	total := float64(stats.TotalFeedback)
	stats.PositivePercentage = float64(stats.PositiveCount) / total * 100
	stats.NegativePercentage = float64(stats.NegativeCount) / total * 100
	return stats
}

// InteractionStats summarizes logged interactions.
type InteractionStats struct {
	TotalQueries    int     `json:"total_queries"`
	AvgResponseTime float64 `json:"avg_response_time"`
	AvgAnswerLength float64 `json:"avg_answer_length"`
	AvgSourcesCount float64 `json:"avg_sources_count"`
	MaxResponseTime float64 `json:"max_response_time"`
	MinResponseTime float64 `json:"min_response_time"`
}

// InteractionStats computes averages and response-time extremes over all
// interactions.
func (s *Store) InteractionStats() InteractionStats {
	interactions := s.Interactions()
	stats := InteractionStats{TotalQueries: len(interactions)}
	if len(interactions) == 0 {
		return stats
	}
	stats.MinResponseTime = interactions[0].ResponseTime
	var sumTime, sumLen, sumSources float64
	for _, i := range interactions {
		sumTime += i.ResponseTime
		sumLen += float64(i.AnswerLength)
		sumSources += float64(i.SourcesCount)
		if i.ResponseTime > stats.MaxResponseTime {
			stats.MaxResponseTime = i.ResponseTime
		}
		if i.ResponseTime < stats.MinResponseTime {
			stats.MinResponseTime = i.ResponseTime
		}
	}
	total := float64(stats.TotalQueries)
	stats.AvgResponseTime = sumTime / total
	stats.AvgAnswerLength = sumLen / total
	stats.AvgSourcesCount = sumSources / total
	return stats
}

func (s *Store) load() *data {
	d := &data{Feedback: []Feedback{}, Interactions: []Interaction{}}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return d
	}
	if err := json.Unmarshal(raw, d); err != nil {
		// A corrupt file degrades to an empty store.
		return &data{Feedback: []Feedback{}, Interactions: []Interaction{}}
	}
	return d
}

func (s *Store) save(d *data) error {
	raw, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal telemetry data: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create telemetry directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write telemetry file: %w", err)
	}
	return nil
}

func previewAnswer(answer string) string {
	if len(answer) > answerPreviewLength {
		return answer[:answerPreviewLength] + "..."
	}
	return answer
}
