package synth

import (
	"strings"
	"time"

	"github.com/castforge/castforge/internal/core/domain"
)

// Pause lengths derived from the terminal punctuation of the
// preceding chunk. Exclamations breathe longest.
const (
	pauseExclamation = 650 * time.Millisecond
	pauseQuestion    = 550 * time.Millisecond
	pausePeriod      = 450 * time.Millisecond
	pauseDefault     = 300 * time.Millisecond
)

// chunkSettings derives per-chunk voice settings from position and
// content. First and last chunks favor stability for a steady open and
// close; emphatic or questioning chunks bias toward expressiveness.
func chunkSettings(chunk domain.TextChunk, total int, base domain.VoiceSettings) domain.VoiceSettings {
	s := base

	if chunk.Index == 0 || chunk.Index == total-1 {
		s.Stability = clamp(s.Stability + 0.15)
	}
	if expressive(chunk.Content) {
		s.Stability = clamp(s.Stability - 0.15)
		s.Style = clamp(s.Style + 0.2)
	}

	return s
}

// expressive reports whether a chunk carries strong-emphasis markers.
func expressive(content string) bool {
	if strings.ContainsAny(content, "!?") {
		return true
	}
	for _, w := range strings.Fields(content) {
		trimmed := strings.Trim(w, ".,;:!?\"'")
		if len(trimmed) >= 3 && trimmed == strings.ToUpper(trimmed) &&
			strings.ContainsAny(trimmed, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
			return true
		}
	}
	return false
}

// pauseAfter picks the silence duration to insert after a chunk.
func pauseAfter(content string) time.Duration {
	trimmed := strings.TrimRight(strings.TrimSpace(content), "\"')]»”’")
	if trimmed == "" {
		return pauseDefault
	}
	switch trimmed[len(trimmed)-1] {
	case '!':
		return pauseExclamation
	case '?':
		return pauseQuestion
	case '.':
		return pausePeriod
	default:
		return pauseDefault
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
