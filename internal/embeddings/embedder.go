package embeddings

import "context"

// Embedder converts text into fixed-dimension vectors via an external
// provider. Implementations report the provider's maximum batch size so the
// store manager can split bulk ingestion into provider-sized requests.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	MaxBatchSize() int
}
