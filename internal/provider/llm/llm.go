// Package llm implements script-generation providers.
package llm

import (
	"context"

	"github.com/castforge/castforge/internal/provider"
)

// Prompt is one generation call.
type Prompt struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Generator is the script-generation capability interface.
type Generator interface {
	provider.Provider
	Generate(ctx context.Context, p Prompt) (string, error)
}
