// Package tts implements speech-synthesis providers. All providers
// return 24kHz mono 16-bit PCM so that the pipeline can reassemble
// chunks by plain byte concatenation.
package tts

import (
	"context"

	"github.com/castforge/castforge/internal/core/domain"
	"github.com/castforge/castforge/internal/provider"
)

// SpeechRequest is one chunk-synthesis call.
type SpeechRequest struct {
	Text     string
	Voice    string // provider-specific voice identifier
	Settings domain.VoiceSettings
}

// Synthesizer is the speech-synthesis capability interface.
type Synthesizer interface {
	provider.Provider
	Synthesize(ctx context.Context, req SpeechRequest) ([]byte, error)
}
