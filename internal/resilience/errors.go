package resilience

import (
	"errors"
	"fmt"
	"strings"

	"github.com/castforge/castforge/internal/core/domain"
)

// ClassifiedError wraps a raw failure together with its classification
// so callers up the stack can act on the taxonomy code.
type ClassifiedError struct {
	Classification domain.Classification
	Err            error
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s: %v", e.Classification.Code, e.Err)
}

func (e *ClassifiedError) Unwrap() error { return e.Err }

// AsClassified extracts a ClassifiedError from an error chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// ChainError is the aggregate failure returned when every provider in
// a fallback chain was skipped or exhausted. It carries the last
// observed classification and the ordered list of attempted providers.
type ChainError struct {
	Capability string
	Attempted  []string
	Last       domain.Classification
	Err        error
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("%s: all providers failed (attempted: %s): %v",
		e.Capability, strings.Join(e.Attempted, ", "), e.Err)
}

func (e *ChainError) Unwrap() error { return e.Err }
