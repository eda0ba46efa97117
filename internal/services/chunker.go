package services

import (
	"strings"
	"unicode/utf8"
)

const (
	defaultChunkSize    = 1000
	defaultChunkOverlap = 200
)

type TextChunker interface {
	ChunkText(text string, maxChunkSize int, overlap int) []string
}

type textChunker struct{}

func NewTextChunker() TextChunker {
	return &textChunker{}
}

// ChunkText packs blocks of text (separated by blank lines) into chunks of at
// most maxChunkSize runes. Blocks that are too large on their own are split by
// line, then by sentence. Each chunk after the first starts with up to overlap
// runes from the end of the previous one, cut at a word boundary.
func (tc *textChunker) ChunkText(text string, maxChunkSize int, overlap int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = defaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChunkSize {
		overlap = maxChunkSize / 4
	}

	var units []string
	for _, block := range strings.Split(text, "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		units = append(units, splitUnit(block, maxChunkSize-overlap-1)...)
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	for _, unit := range units {
		unitLen := utf8.RuneCountInString(unit)
		if currentLen > 0 && currentLen+1+unitLen > maxChunkSize {
			prev := current.String()
			chunks = append(chunks, prev)

			current.Reset()
			currentLen = 0
			if tail := overlapTail(prev, overlap); tail != "" {
				current.WriteString(tail)
				currentLen = utf8.RuneCountInString(tail)
			}
		}

		if currentLen > 0 {
			current.WriteString("\n")
			currentLen++
		}
		current.WriteString(unit)
		currentLen += unitLen
	}

	if currentLen > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}

// splitUnit breaks block into pieces no longer than limit runes where the text
// allows it. A single sentence longer than limit is cut on rune boundaries.
func splitUnit(block string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(block) <= limit {
		return []string{block}
	}

	var pieces []string
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) <= limit {
			pieces = append(pieces, line)
			continue
		}
		for _, sentence := range splitIntoSentences(line) {
			pieces = append(pieces, cutRunes(sentence, limit)...)
		}
	}
	return pieces
}

// splitIntoSentences splits after '.', '!' and '?', keeping the punctuation.
func splitIntoSentences(text string) []string {
	var sentences []string
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(text[start : i+1]); s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func cutRunes(s string, limit int) []string {
	runes := []rune(s)
	var out []string
	for len(runes) > limit {
		out = append(out, string(runes[:limit]))
		runes = runes[limit:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}

// overlapTail returns at most n runes from the end of text, starting on a word.
func overlapTail(text string, n int) string {
	if n <= 0 {
		return ""
	}

	runes := []rune(text)
	if len(runes) <= n {
		return text
	}

	tail := string(runes[len(runes)-n:])
	if i := strings.IndexAny(tail, " \n"); i >= 0 {
		tail = tail[i+1:]
	}
	return strings.TrimSpace(tail)
}
