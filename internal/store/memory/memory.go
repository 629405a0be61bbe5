// Package memory provides an in-process vector index backend using
// brute-force cosine similarity. It backs tests and the local backend mode.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/lectern-ai/lectern/internal/domain"
	"github.com/lectern-ai/lectern/internal/store"
)

type collection struct {
	dimension int
	entries   []store.Entry
}

// Backend holds named collections in memory.
type Backend struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

// New creates an empty in-memory backend.
func New() *Backend {
	return &Backend{collections: make(map[string]*collection)}
}

// CreateCollection creates (or resets) a named collection with the given
// vector dimension.
func (b *Backend) CreateCollection(ctx context.Context, name string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", dimension)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.collections[name] = &collection{dimension: dimension}
	return nil
}

// Upsert appends entries to the collection. Entries keep insertion order.
func (b *Backend) Upsert(ctx context.Context, name string, entries []store.Entry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	col, ok := b.collections[name]
	if !ok {
		return store.ErrCollectionNotFound
	}
	for _, e := range entries {
		if len(e.Embedding) != col.dimension {
			return fmt.Errorf("vector dimension %d does not match collection dimension %d",
				len(e.Embedding), col.dimension)
		}
	}
	col.entries = append(col.entries, entries...)
	return nil
}

// Search ranks all entries by cosine similarity to vector and returns the top
// k. Ties keep insertion order.
func (b *Backend) Search(ctx context.Context, name string, vector []float32, k int) ([]domain.SearchResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	col, ok := b.collections[name]
	if !ok {
		return nil, store.ErrCollectionNotFound
	}
	if k <= 0 {
		return nil, nil
	}

	results := make([]domain.SearchResult, 0, len(col.entries))
	for _, e := range col.entries {
		results = append(results, domain.SearchResult{
			Chunk:     e.Chunk,
			Score:     cosine(vector, e.Embedding),
			Embedding: e.Embedding,
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// CollectionInfo reports the collection's size and dimension.
func (b *Backend) CollectionInfo(ctx context.Context, name string) (*store.CollectionInfo, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	col, ok := b.collections[name]
	if !ok {
		return nil, store.ErrCollectionNotFound
	}
	return &store.CollectionInfo{
		Name:       name,
		PointCount: len(col.entries),
		Dimension:  col.dimension,
	}, nil
}

// DeleteCollection drops the collection and all its entries.
func (b *Backend) DeleteCollection(ctx context.Context, name string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.collections[name]; !ok {
		return store.ErrCollectionNotFound
	}
	delete(b.collections, name)
	return nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
