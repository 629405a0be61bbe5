// Package qdrant is a minimal REST client adapter for the Qdrant vector
// index service. It assumes cosine distance.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lectern-ai/lectern/internal/domain"
	"github.com/lectern-ai/lectern/internal/store"
)

// Backend talks to a Qdrant instance over its HTTP API.
type Backend struct {
	url    string
	apiKey string
	client *http.Client
}

// Config contains connection details for a Qdrant instance.
type Config struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// New creates a Qdrant backend.
func New(cfg Config) *Backend {
	if cfg.URL == "" {
		cfg.URL = "http://localhost:6333"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Backend{
		url:    cfg.URL,
		apiKey: cfg.APIKey,
		client: &http.Client{Timeout: timeout},
	}
}

// CreateCollection creates the collection with the given vector dimension.
// Qdrant returns 200 for an existing collection with the same schema.
func (b *Backend) CreateCollection(ctx context.Context, name string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", dimension)
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	return b.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s", name), body, nil)
}

// Upsert writes entries as points, waiting for the write to be applied.
func (b *Backend) Upsert(ctx context.Context, name string, entries []store.Entry) error {
	points := make([]map[string]any, len(entries))
	for i, e := range entries {
		points[i] = map[string]any{
			"id":     e.ID.String(),
			"vector": e.Embedding,
			"payload": map[string]any{
				"content":      e.Chunk.Content,
				"source":       e.Chunk.Source,
				"chunk_index":  e.Chunk.ChunkIndex,
				"total_chunks": e.Chunk.TotalChunks,
				"file_type":    string(e.Chunk.FileType),
			},
		}
	}
	body := map[string]any{"points": points}
	return b.do(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/points?wait=true", name), body, nil)
}

// Search runs a similarity search, returning payloads and vectors.
func (b *Backend) Search(ctx context.Context, name string, vector []float32, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}
	body := map[string]any{
		"vector":       vector,
		"limit":        k,
		"with_payload": true,
		"with_vector":  true,
	}
	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Vector  []float32      `json:"vector"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	path := fmt.Sprintf("/collections/%s/points/search", name)
	if err := b.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}

	results := make([]domain.SearchResult, 0, len(resp.Result))
	for _, r := range resp.Result {
		chunk := domain.Chunk{}
		if v, ok := r.Payload["content"].(string); ok {
			chunk.Content = v
		}
		if v, ok := r.Payload["source"].(string); ok {
			chunk.Source = v
		}
		if v, ok := r.Payload["chunk_index"].(float64); ok {
			chunk.ChunkIndex = int(v)
		}
		if v, ok := r.Payload["total_chunks"].(float64); ok {
			chunk.TotalChunks = int(v)
		}
		if v, ok := r.Payload["file_type"].(string); ok {
			chunk.FileType = domain.FileType(v)
		}
		results = append(results, domain.SearchResult{
			Chunk:     chunk,
			Score:     r.Score,
			Embedding: r.Vector,
		})
	}
	return results, nil
}

// CollectionInfo fetches point count and vector dimension for the collection.
func (b *Backend) CollectionInfo(ctx context.Context, name string) (*store.CollectionInfo, error) {
	var resp struct {
		Result struct {
			PointsCount int `json:"points_count"`
			Config      struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}
	if err := b.do(ctx, http.MethodGet, fmt.Sprintf("/collections/%s", name), nil, &resp); err != nil {
		return nil, err
	}
	return &store.CollectionInfo{
		Name:       name,
		PointCount: resp.Result.PointsCount,
		Dimension:  resp.Result.Config.Params.Vectors.Size,
	}, nil
}

// DeleteCollection drops the collection.
func (b *Backend) DeleteCollection(ctx context.Context, name string) error {
	return b.do(ctx, http.MethodDelete, fmt.Sprintf("/collections/%s", name), nil, nil)
}

// do executes one JSON request against the Qdrant API. A 404 maps to
// store.ErrCollectionNotFound.
func (b *Backend) do(ctx context.Context, method, path string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.url+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.apiKey != "" {
		req.Header.Set("api-key", b.apiKey)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("qdrant %s %s: %w", method, path, store.ErrCollectionNotFound)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, path, resp.Status)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
