package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/lectern-ai/lectern/internal/domain"
)

// Entry is an indexed vector entry: a chunk record paired with its embedding.
// Entries are created on ingestion and never mutated in place.
type Entry struct {
	ID        uuid.UUID
	Chunk     domain.Chunk
	Embedding []float32
}

// CollectionInfo describes a named collection in the index service.
type CollectionInfo struct {
	Name       string
	PointCount int
	Dimension  int
}

// Backend is the capability set required of a vector index service. The
// manager only depends on this interface; pgvector, Qdrant and the in-memory
// store are interchangeable adapters.
type Backend interface {
	CreateCollection(ctx context.Context, name string, dimension int) error
	Upsert(ctx context.Context, name string, entries []Entry) error
	// Search returns the k entries nearest to vector, ranked by descending
	// similarity, ties broken by insertion order. Results carry their stored
	// embeddings so diversity re-ranking can run locally.
	Search(ctx context.Context, name string, vector []float32, k int) ([]domain.SearchResult, error)
	// CollectionInfo returns ErrCollectionNotFound for an absent collection.
	CollectionInfo(ctx context.Context, name string) (*CollectionInfo, error)
	DeleteCollection(ctx context.Context, name string) error
}
