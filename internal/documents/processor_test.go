package documents

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lectern-ai/lectern/internal/domain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestFileTypeOf(t *testing.T) {
	cases := []struct {
		path string
		want domain.FileType
		ok   bool
	}{
		{"notes.txt", domain.FileTypeTxt, true},
		{"book.PDF", domain.FileTypePDF, true},
		{"dir/book.Pdf", domain.FileTypePDF, true},
		{"image.png", "", false},
		{"noext", "", false},
	}
	for _, c := range cases {
		got, ok := FileTypeOf(c.path)
		if got != c.want || ok != c.ok {
			t.Fatalf("FileTypeOf(%q) = %q, %v; want %q, %v", c.path, got, ok, c.want, c.ok)
		}
	}
}

func TestExtract_TextFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.txt", "algorithms and data structures")

	text, err := Extract(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "algorithms and data structures" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestExtract_InvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.txt")
	if err := os.WriteFile(path, []byte{0xff, 0xfe, 0xfd}, 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	_, err := Extract(path)
	if !errors.Is(err, ErrNotUTF8) {
		t.Fatalf("expected ErrNotUTF8, got %v", err)
	}
}

func TestExtract_UnsupportedType(t *testing.T) {
	_, err := Extract("diagram.png")
	if !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestProcessDocument_DenseIndices(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "sample.txt", strings.TrimSpace(strings.Repeat("word ", 500)))

	p, err := NewProcessor(1000, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	chunks, err := p.ProcessDocument(path, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks for ~2500 chars at 1000/200, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.ChunkIndex != i {
			t.Fatalf("chunk %d has index %d", i, c.ChunkIndex)
		}
		if c.TotalChunks != len(chunks) {
			t.Fatalf("chunk %d reports %d total chunks, want %d", i, c.TotalChunks, len(chunks))
		}
		if c.Source != "sample.txt" {
			t.Fatalf("chunk %d has source %q", i, c.Source)
		}
		if c.FileType != domain.FileTypeTxt {
			t.Fatalf("chunk %d has file type %q", i, c.FileType)
		}
	}
}

func TestProcessDocument_BlankContent(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "blank.txt", "   \n\n  ")

	p, _ := NewProcessor(1000, 200)
	chunks, err := p.ProcessDocument(path, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks for blank file, got %d", len(chunks))
	}
}

func TestProcessDirectory_MissingDir(t *testing.T) {
	p, _ := NewProcessor(1000, 200)
	chunks, err := p.ProcessDirectory(filepath.Join(t.TempDir(), "nonexistent"))
	if err != nil {
		t.Fatalf("missing directory should not be an error, got %v", err)
	}
	if len(chunks) != 0 {
		t.Fatalf("expected no chunks, got %d", len(chunks))
	}
}

func TestProcessDirectory_SkipsUnsupportedAndBadFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.txt", "a perfectly ordinary document about sorting algorithms")
	writeFile(t, dir, "skipme.csv", "a,b,c")
	if err := os.WriteFile(filepath.Join(dir, "bad.txt"), []byte{0xff, 0xfe}, 0644); err != nil {
		t.Fatalf("failed to write bad file: %v", err)
	}

	p, _ := NewProcessor(1000, 200)
	chunks, err := p.ProcessDirectory(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected chunks from good.txt only, got %d chunks", len(chunks))
	}
	if chunks[0].Source != "good.txt" {
		t.Fatalf("unexpected source: %q", chunks[0].Source)
	}
}

func TestStats(t *testing.T) {
	chunks := []domain.Chunk{
		{Content: "aaaa", Source: "a.txt"},
		{Content: "bbbbbb", Source: "a.txt"},
		{Content: "cc", Source: "b.pdf"},
	}
	s := Stats(chunks)
	if s.TotalChunks != 3 || s.TotalSources != 2 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	if s.TotalChars != 12 || s.AvgChunkSize != 4 {
		t.Fatalf("unexpected sizes: %+v", s)
	}

	if got := Stats(nil); got.TotalChunks != 0 {
		t.Fatalf("expected zero stats for empty input, got %+v", got)
	}
}
