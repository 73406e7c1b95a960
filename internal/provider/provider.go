// Package provider defines the common abstraction for interchangeable
// external services (speech synthesis, script generation, content
// acquisition) that the fallback chain walks.
package provider

import "time"

// Provider is the capability-independent surface every vendor
// implementation exposes to the orchestration core.
type Provider interface {
	// Name returns the provider identifier, unique within a chain
	// (e.g. "elevenlabs", "openai").
	Name() string

	// Available reports whether the provider can be used at all,
	// typically whether credentials are configured. It must have no
	// side effects.
	Available() bool

	// Timeout is the per-invocation deadline applied around every
	// call to this provider.
	Timeout() time.Duration
}
