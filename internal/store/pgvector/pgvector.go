// Package pgvector is a Postgres/pgvector backend adapter. Collections are
// rows in the collections table; entries live in chunks with a vector column.
// Schema setup is in migrations/.
package pgvector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"

	"github.com/lectern-ai/lectern/internal/domain"
	"github.com/lectern-ai/lectern/internal/store"
)

// Backend wraps a pgx connection pool.
type Backend struct {
	pool *pgxpool.Pool
}

// New connects to Postgres and verifies the connection.
func New(connString string) (*Backend, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	config.MaxConns = 10
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = time.Minute * 30

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Backend{pool: pool}, nil
}

// Close closes the connection pool.
func (b *Backend) Close() {
	b.pool.Close()
}

// CreateCollection registers the collection and its vector dimension.
func (b *Backend) CreateCollection(ctx context.Context, name string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid dimension %d", dimension)
	}
	_, err := b.pool.Exec(ctx,
		`INSERT INTO collections (name, dimension)
		 VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE SET dimension = EXCLUDED.dimension`,
		name, dimension,
	)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

// Upsert inserts entries in one batch.
func (b *Backend) Upsert(ctx context.Context, name string, entries []store.Entry) error {
	batch := &pgx.Batch{}
	for _, e := range entries {
		vec := pgv.NewVector(e.Embedding)
		batch.Queue(
			`INSERT INTO chunks (id, collection, source, chunk_index, total_chunks, file_type, content, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			e.ID, name, e.Chunk.Source, e.Chunk.ChunkIndex, e.Chunk.TotalChunks,
			string(e.Chunk.FileType), e.Chunk.Content, &vec,
		)
	}
	br := b.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := 0; i < len(entries); i++ {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert entry %d: %w", i, err)
		}
	}
	return nil
}

// Search ranks chunks by cosine distance to vector. Insertion order breaks
// ties so repeated searches are stable.
func (b *Backend) Search(ctx context.Context, name string, vector []float32, k int) ([]domain.SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}
	query := pgv.NewVector(vector)
	rows, err := b.pool.Query(ctx,
		`SELECT source, chunk_index, total_chunks, file_type, content, embedding,
		        1 - (embedding <=> $1) AS score
		 FROM chunks
		 WHERE collection = $2 AND embedding IS NOT NULL
		 ORDER BY embedding <=> $1, created_at, id
		 LIMIT $3`,
		&query, name, k,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	defer rows.Close()

	var results []domain.SearchResult
	for rows.Next() {
		var (
			chunk    domain.Chunk
			fileType string
			emb      pgv.Vector
			score    float64
		)
		if err := rows.Scan(&chunk.Source, &chunk.ChunkIndex, &chunk.TotalChunks,
			&fileType, &chunk.Content, &emb, &score); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunk.FileType = domain.FileType(fileType)
		results = append(results, domain.SearchResult{
			Chunk:     chunk,
			Score:     score,
			Embedding: emb.Slice(),
		})
	}
	return results, rows.Err()
}

// CollectionInfo reports the collection's registered dimension and chunk
// count.
func (b *Backend) CollectionInfo(ctx context.Context, name string) (*store.CollectionInfo, error) {
	var dimension int
	err := b.pool.QueryRow(ctx,
		`SELECT dimension FROM collections WHERE name = $1`, name,
	).Scan(&dimension)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrCollectionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}

	var count int
	err = b.pool.QueryRow(ctx,
		`SELECT count(*) FROM chunks WHERE collection = $1`, name,
	).Scan(&count)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}

	return &store.CollectionInfo{Name: name, PointCount: count, Dimension: dimension}, nil
}

// DeleteCollection drops the collection row and all its chunks.
func (b *Backend) DeleteCollection(ctx context.Context, name string) error {
	tag, err := b.pool.Exec(ctx, `DELETE FROM collections WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrCollectionNotFound
	}
	if _, err := b.pool.Exec(ctx, `DELETE FROM chunks WHERE collection = $1`, name); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	return nil
}
