package domain

// FileType identifies the supported source document formats.
type FileType string

const (
	FileTypePDF FileType = "pdf"
	FileTypeTxt FileType = "txt"
)

// Chunk is a bounded slice of a source document's text, the atomic unit of
// embedding and retrieval. Chunks are created during ingestion and immutable
// thereafter.
type Chunk struct {
	Content     string   `json:"content"`
	Source      string   `json:"source"`
	ChunkIndex  int      `json:"chunk_index"`
	TotalChunks int      `json:"total_chunks"`
	FileType    FileType `json:"file_type"`
}

// SearchResult is a retrieved chunk with its relevance score. Embedding is
// carried along so diversity re-ranking can run without a second round trip.
type SearchResult struct {
	Chunk     Chunk
	Score     float64
	Embedding []float32
}
