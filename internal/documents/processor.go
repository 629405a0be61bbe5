package documents

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/lectern-ai/lectern/internal/chunker"
	"github.com/lectern-ai/lectern/internal/domain"
)

// Processor turns files and directories into chunk records ready for
// embedding.
type Processor struct {
	splitter *chunker.Splitter
}

// NewProcessor creates a processor with the given chunking parameters.
func NewProcessor(chunkSize, chunkOverlap int) (*Processor, error) {
	splitter, err := chunker.New(chunkSize, chunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("invalid chunking config: %w", err)
	}
	return &Processor{splitter: splitter}, nil
}

// ProcessDocument extracts and chunks a single file. A file that yields no
// text after extraction produces no chunks and no error. Extraction failures
// and unsupported extensions are returned for the caller to skip or report.
func (p *Processor) ProcessDocument(path, sourceName string) ([]domain.Chunk, error) {
	if sourceName == "" {
		sourceName = filepath.Base(path)
	}

	kind, ok := FileTypeOf(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Ext(path))
	}

	text, err := Extract(path)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	pieces := p.splitter.Split(text)
	chunks := make([]domain.Chunk, 0, len(pieces))
	for i, content := range pieces {
		chunks = append(chunks, domain.Chunk{
			Content:     content,
			Source:      sourceName,
			ChunkIndex:  i,
			TotalChunks: len(pieces),
			FileType:    kind,
		})
	}
	return chunks, nil
}

// ProcessDirectory processes every supported file in dir, concatenating
// per-file results and preserving per-file chunk numbering. A missing
// directory yields an empty result. One bad file never aborts the batch.
func (p *Processor) ProcessDirectory(dir string) ([]domain.Chunk, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("directory %s does not exist", dir)
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var all []domain.Chunk
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := FileTypeOf(entry.Name()); !ok {
			log.Printf("skipping unsupported file: %s", entry.Name())
			continue
		}
		chunks, err := p.ProcessDocument(filepath.Join(dir, entry.Name()), entry.Name())
		if err != nil {
			log.Printf("skipping %s: %v", entry.Name(), err)
			continue
		}
		if len(chunks) == 0 {
			log.Printf("no text extracted from %s", entry.Name())
			continue
		}
		all = append(all, chunks...)
	}
	return all, nil
}

// DocStats summarizes a batch of chunk records.
type DocStats struct {
	TotalChunks  int
	TotalSources int
	TotalChars   int
	AvgChunkSize int
	Sources      []string
}

// Stats computes summary statistics for processed chunks.
func Stats(chunks []domain.Chunk) DocStats {
	if len(chunks) == 0 {
		return DocStats{}
	}

	seen := make(map[string]bool)
	var sources []string
	totalChars := 0
	for _, c := range chunks {
		if !seen[c.Source] {
			seen[c.Source] = true
			sources = append(sources, c.Source)
		}
		totalChars += len(c.Content)
	}

	return DocStats{
		TotalChunks:  len(chunks),
		TotalSources: len(sources),
		TotalChars:   totalChars,
		AvgChunkSize: totalChars / len(chunks),
		Sources:      sources,
	}
}
