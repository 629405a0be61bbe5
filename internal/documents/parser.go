package documents

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gen2brain/go-fitz"

	"github.com/lectern-ai/lectern/internal/domain"
)

var (
	// ErrUnsupportedType marks files whose extension is neither .pdf nor .txt.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrNotUTF8 marks text files that fail UTF-8 decoding.
	ErrNotUTF8 = errors.New("not valid UTF-8")
)

// FileTypeOf maps a path to its supported file type by extension, matched
// case-insensitively.
func FileTypeOf(path string) (domain.FileType, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return domain.FileTypePDF, true
	case ".txt":
		return domain.FileTypeTxt, true
	}
	return "", false
}

// Extract returns the raw text of a supported file. Callers treat an error as
// "no content" for the file, not a fatal condition.
func Extract(path string) (string, error) {
	kind, ok := FileTypeOf(path)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Ext(path))
	}
	if kind == domain.FileTypePDF {
		return extractPDF(path)
	}
	return extractText(path)
}

// extractPDF concatenates per-page text in page order, separated by newline.
// Pages that yield only whitespace are skipped.
func extractPDF(path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var pages []string
	for i := 0; i < doc.NumPage(); i++ {
		text, err := doc.Text(i)
		if err == nil && strings.TrimSpace(text) != "" {
			pages = append(pages, text)
		}
	}
	return strings.Join(pages, "\n"), nil
}

func extractText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read text file: %w", err)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%s: %w", filepath.Base(path), ErrNotUTF8)
	}
	return string(data), nil
}
