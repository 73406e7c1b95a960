package domain

// TextChunk is a bounded slice of input text. Index defines reassembly
// order; concatenating chunk contents in index order reproduces the
// original text modulo whitespace normalization.
type TextChunk struct {
	Index   int
	Content string
	IsFinal bool
}
