package store

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/lectern-ai/lectern/internal/domain"
	"github.com/lectern-ai/lectern/internal/embeddings"
)

// SearchType selects the retrieval strategy.
type SearchType string

const (
	SearchSimilarity SearchType = "similarity"
	SearchMMR        SearchType = "mmr"
)

// mmrFetchFactor is how many extra candidates MMR fetches before re-ranking
// for diversity.
const mmrFetchFactor = 2

// Ingester sources chunk records when initialization is called without any.
type Ingester interface {
	ProcessDirectory(dir string) ([]domain.Chunk, error)
}

// ManagerConfig wires a Manager to its collaborators.
type ManagerConfig struct {
	Backend      Backend
	Embedder     embeddings.Embedder
	Collection   string
	Ingester     Ingester // optional; used when Initialize has no records
	DocumentsDir string
}

// Manager owns the embedding and index lifecycle of one logical collection:
// create, load, detect-empty, incremental add, stats and force-recreate.
type Manager struct {
	backend      Backend
	embedder     embeddings.Embedder
	collection   string
	ingester     Ingester
	documentsDir string
	active       bool
}

// NewManager creates a Manager for the named collection.
func NewManager(cfg ManagerConfig) *Manager {
	return &Manager{
		backend:      cfg.Backend,
		embedder:     cfg.Embedder,
		collection:   cfg.Collection,
		ingester:     cfg.Ingester,
		documentsDir: cfg.DocumentsDir,
	}
}

// Collection returns the name of the managed collection.
func (m *Manager) Collection() string {
	return m.collection
}

// Active reports whether a collection is currently loaded or created.
func (m *Manager) Active() bool {
	return m.active
}

// Create embeds all records and upserts them into a newly created collection.
func (m *Manager) Create(ctx context.Context, records []domain.Chunk) error {
	if len(records) == 0 {
		return ErrNoRecords
	}

	entries, dim, err := m.embedRecords(ctx, records)
	if err != nil {
		return err
	}
	if err := m.backend.CreateCollection(ctx, m.collection, dim); err != nil {
		return fmt.Errorf("failed to create collection %s: %w", m.collection, err)
	}
	if err := m.backend.Upsert(ctx, m.collection, entries); err != nil {
		return fmt.Errorf("failed to upsert %d entries: %w", len(entries), err)
	}
	m.active = true
	return nil
}

// embedRecords turns chunk records into entries, splitting the work into
// provider-sized embedding batches.
func (m *Manager) embedRecords(ctx context.Context, records []domain.Chunk) ([]Entry, int, error) {
	limit := m.embedder.MaxBatchSize()
	if limit <= 0 {
		return nil, 0, fmt.Errorf("%w: provider reports batch limit %d", ErrBatchSizeExceeded, limit)
	}

	entries := make([]Entry, 0, len(records))
	dim := 0
	for start := 0; start < len(records); start += limit {
		end := start + limit
		if end > len(records) {
			end = len(records)
		}
		texts := make([]string, 0, end-start)
		for _, r := range records[start:end] {
			texts = append(texts, r.Content)
		}
		vectors, err := m.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to embed batch of %d: %w", len(texts), err)
		}
		for i, vec := range vectors {
			if dim == 0 {
				dim = len(vec)
			}
			entries = append(entries, Entry{
				ID:        uuid.New(),
				Chunk:     records[start+i],
				Embedding: vec,
			})
		}
	}
	return entries, dim, nil
}

// Load looks up the managed collection. An absent collection returns nil with
// no error; that is the expected first-run condition.
func (m *Manager) Load(ctx context.Context) (*CollectionInfo, error) {
	info, err := m.backend.CollectionInfo(ctx, m.collection)
	if errors.Is(err, ErrCollectionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load collection %s: %w", m.collection, err)
	}
	m.active = true
	return info, nil
}

// Initialize prepares the collection for use. It is idempotent: re-running on
// an already-populated collection is a no-op apart from the zero-point
// self-healing check, so restarts never silently lose or duplicate the index
// unless forceRecreate is set. When records is nil they are sourced from the
// configured documents directory.
func (m *Manager) Initialize(ctx context.Context, records []domain.Chunk, forceRecreate bool) error {
	if forceRecreate {
		if len(records) == 0 {
			return ErrNoRecords
		}
		if err := m.deleteCollection(ctx); err != nil {
			return err
		}
		return m.Create(ctx, records)
	}

	info, err := m.Load(ctx)
	if err != nil {
		log.Printf("could not load existing collection: %v", err)
		info = nil
		m.active = false
	}
	if info != nil && info.PointCount == 0 {
		// An empty collection is as good as an absent one; drop it and fall
		// through to creation.
		if err := m.deleteCollection(ctx); err != nil {
			return err
		}
		info = nil
	}
	if info != nil {
		return nil
	}

	if len(records) == 0 && m.ingester != nil {
		records, err = m.ingester.ProcessDirectory(m.documentsDir)
		if err != nil {
			return fmt.Errorf("failed to process documents directory: %w", err)
		}
	}
	if len(records) == 0 {
		return ErrNoContent
	}
	return m.Create(ctx, records)
}

func (m *Manager) deleteCollection(ctx context.Context) error {
	err := m.backend.DeleteCollection(ctx, m.collection)
	if err != nil && !errors.Is(err, ErrCollectionNotFound) {
		return fmt.Errorf("failed to delete collection %s: %w", m.collection, err)
	}
	m.active = false
	return nil
}

// Add embeds and upserts records incrementally, preserving existing entries.
// There is no deduplication: re-ingesting the same document produces
// duplicate entries. If no collection is active the call delegates to
// Initialize.
func (m *Manager) Add(ctx context.Context, records []domain.Chunk) error {
	if !m.active {
		return m.Initialize(ctx, records, false)
	}
	if len(records) == 0 {
		return ErrNoRecords
	}
	entries, _, err := m.embedRecords(ctx, records)
	if err != nil {
		return err
	}
	if err := m.backend.Upsert(ctx, m.collection, entries); err != nil {
		return fmt.Errorf("failed to add %d entries: %w", len(entries), err)
	}
	return nil
}

// StatsResult carries collection statistics, or the reason they are
// unavailable. Stats degrades instead of failing.
type StatsResult struct {
	Info     *CollectionInfo
	Degraded string
}

// Stats reports the collection's point count and dimension.
func (m *Manager) Stats(ctx context.Context) StatsResult {
	if !m.active {
		return StatsResult{Degraded: "no vector store initialized"}
	}
	info, err := m.backend.CollectionInfo(ctx, m.collection)
	if err != nil {
		return StatsResult{Degraded: fmt.Sprintf("error getting stats: %v", err)}
	}
	return StatsResult{Info: info}
}

// Search embeds the query and retrieves the top k chunks using the given
// strategy. MMR fetches extra candidates and re-ranks them for diversity.
func (m *Manager) Search(ctx context.Context, query string, k int, searchType SearchType) ([]domain.SearchResult, error) {
	vector, err := m.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	if searchType == SearchMMR {
		candidates, err := m.backend.Search(ctx, m.collection, vector, k*mmrFetchFactor)
		if err != nil {
			return nil, fmt.Errorf("search failed: %w", err)
		}
		return rerankMMR(vector, candidates, k), nil
	}

	results, err := m.backend.Search(ctx, m.collection, vector, k)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	return results, nil
}
