// Package text prepares scripts for synthesis: stage-cue stripping,
// whitespace normalization, and sentence-aware chunk planning.
package text

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/castforge/castforge/internal/core/domain"
)

// Chunk size constants. Generation payloads tolerate large chunks;
// synthesis sounds more natural with small ones.
const (
	CoarseChunkLen = 4000
	FineChunkLen   = 500
)

// Plan splits text into ordered chunks no longer than maxLen runes,
// breaking at sentence boundaries. A single sentence longer than
// maxLen becomes its own oversized chunk; content is never dropped.
// Non-empty input always yields at least one chunk.
func Plan(text string, maxLen int) []domain.TextChunk {
	sentences := SplitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []domain.TextChunk
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen == 0 {
			return
		}
		chunks = append(chunks, domain.TextChunk{
			Index:   len(chunks),
			Content: current.String(),
		})
		current.Reset()
		currentLen = 0
	}

	for _, s := range sentences {
		sLen := utf8.RuneCountInString(s)
		sep := 0
		if currentLen > 0 {
			sep = 1
		}
		if currentLen > 0 && currentLen+sep+sLen > maxLen {
			flush()
			sep = 0
		}
		if sep == 1 {
			current.WriteByte(' ')
		}
		current.WriteString(s)
		currentLen += sep + sLen
	}
	flush()

	if len(chunks) > 0 {
		chunks[len(chunks)-1].IsFinal = true
	}
	return chunks
}

// SplitSentences breaks text into sentence-like units on terminal
// punctuation, keeping the terminator (and any trailing closing quote)
// with its sentence. Text without terminators comes back as a single
// unit.
func SplitSentences(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)

		if !isTerminal(r) {
			continue
		}
		// Swallow runs of terminators and closing quotes ("..." , ?!).
		for i+1 < len(runes) && (isTerminal(runes[i+1]) || isClosing(runes[i+1])) {
			i++
			current.WriteRune(runes[i])
		}
		// Only end the sentence at a whitespace boundary or end of text.
		if i+1 == len(runes) || unicode.IsSpace(runes[i+1]) {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func isTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', '…':
		return true
	}
	return false
}

func isClosing(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '»', '”', '’':
		return true
	}
	return false
}
