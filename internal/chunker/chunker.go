package chunker

import (
	"errors"
	"fmt"
	"strings"
)

// Separators in preference order. The empty string is the terminal fallback: a
// hard character cut that always produces chunks within the size limit.
var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter splits raw document text into overlapping segments, preferring to
// break on paragraph, line, sentence and word boundaries before cutting
// mid-token.
type Splitter struct {
	size       int
	overlap    int
	separators []string
}

// New creates a Splitter. size must be positive and overlap must be smaller
// than size.
func New(size, overlap int) (*Splitter, error) {
	if size <= 0 {
		return nil, errors.New("chunk size must be positive")
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d)", size)
	}
	return &Splitter{
		size:       size,
		overlap:    overlap,
		separators: defaultSeparators,
	}, nil
}

// Split breaks text into segments of at most the configured size wherever a
// separator allows it, with consecutive segments sharing up to the configured
// overlap. Empty or blank input yields nil.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.split(text, s.separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	sep := ""
	var remaining []string
	for i, candidate := range separators {
		if candidate == "" {
			break
		}
		if strings.Contains(text, candidate) {
			sep = candidate
			remaining = separators[i+1:]
			break
		}
	}

	if sep == "" {
		return s.hardCut(text)
	}

	parts, joinSep := splitParts(text, sep)
	var chunks []string
	var pending []string
	for _, part := range parts {
		if part == "" {
			continue
		}
		if len(part) <= s.size {
			pending = append(pending, part)
			continue
		}
		// Oversized split: flush what we have, then descend to the next
		// separator for this piece alone.
		chunks = append(chunks, s.merge(pending, joinSep)...)
		pending = nil
		chunks = append(chunks, s.split(part, remaining)...)
	}
	return append(chunks, s.merge(pending, joinSep)...)
}

// splitParts splits text on sep and returns the separator to rejoin with.
// The sentence separator is not pure whitespace: its period is content and
// stays attached to the preceding piece, so only the space is normalized
// away on rejoin.
func splitParts(text, sep string) ([]string, string) {
	if sep == ". " {
		return splitSentences(text), " "
	}
	return strings.Split(text, sep), sep
}

// splitSentences cuts after each ". ", keeping the period on the piece it
// terminates.
func splitSentences(text string) []string {
	var parts []string
	for {
		i := strings.Index(text, ". ")
		if i < 0 {
			break
		}
		parts = append(parts, text[:i+1])
		text = text[i+2:]
	}
	if text != "" {
		parts = append(parts, text)
	}
	return parts
}

// merge packs small splits into chunks up to the size limit, rejoining them
// with their separator. When a chunk is flushed, trailing splits totalling at
// most the overlap are carried into the next chunk.
func (s *Splitter) merge(splits []string, sep string) []string {
	var chunks []string
	var current []string
	total := 0

	joinLen := func(n int) int {
		if n > 0 {
			return len(sep)
		}
		return 0
	}

	for _, split := range splits {
		if total+len(split)+joinLen(len(current)) > s.size && len(current) > 0 {
			if chunk := s.join(current, sep); chunk != "" {
				chunks = append(chunks, chunk)
			}
			// Drop leading splits until the carried tail fits inside the
			// overlap and leaves room for the incoming split.
			for total > s.overlap ||
				(total+len(split)+joinLen(len(current)) > s.size && total > 0) {
				total -= len(current[0]) + joinLen(len(current)-1)
				current = current[1:]
			}
		}
		total += len(split) + joinLen(len(current))
		current = append(current, split)
	}

	if chunk := s.join(current, sep); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

func (s *Splitter) join(splits []string, sep string) string {
	return strings.TrimSpace(strings.Join(splits, sep))
}

// hardCut slices text at exact character offsets. Last resort when no
// separator can produce small enough pieces; always terminates.
func (s *Splitter) hardCut(text string) []string {
	step := s.size - s.overlap
	var chunks []string
	for start := 0; start < len(text); start += step {
		end := start + s.size
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[start:end])
		if end == len(text) {
			break
		}
	}
	return chunks
}
