package domain

import "time"

// PauseIndex marks a synthetic silence segment that belongs to no chunk.
const PauseIndex = -1

// AudioSegment is one piece of the final audio artifact: either the
// synthesized audio for a chunk or a synthetic pause between chunks.
// Reassembly is strict in-order byte concatenation of segments.
type AudioSegment struct {
	ChunkIndex   int // matches TextChunk.Index, or PauseIndex for silence
	Data         []byte
	DurationHint time.Duration
}

// Pause reports whether the segment is synthetic silence.
func (s AudioSegment) Pause() bool { return s.ChunkIndex == PauseIndex }

// CallMetadata documents how a fallback-chain call was served.
type CallMetadata struct {
	Provider         string
	OriginalProvider string
	FallbackUsed     bool
	ProcessingTime   time.Duration
}

// SynthesisResult is the externally visible artifact of a whole
// synthesis request. Once produced it is immutable.
type SynthesisResult struct {
	Success       bool
	Audio         []byte
	Error         *Classification
	Metadata      SynthesisMetadata
	EnhancedAudio bool
}

// SynthesisMetadata carries operational details of a synthesis run.
type SynthesisMetadata struct {
	CallMetadata
	Chunks        int
	AudioDuration time.Duration
}

// GenerationResult is the outcome of script generation.
type GenerationResult struct {
	Success  bool
	Script   string
	Error    *Classification
	Metadata CallMetadata
}

// ScrapeResult is the outcome of content acquisition.
type ScrapeResult struct {
	Success  bool
	Title    string
	Text     string
	Error    *Classification
	Metadata CallMetadata
}
