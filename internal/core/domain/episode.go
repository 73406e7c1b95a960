package domain

import "time"

// EpisodeStatus tracks an episode through the synthesis pipeline.
type EpisodeStatus string

const (
	EpisodePending    EpisodeStatus = "pending"
	EpisodeProcessing EpisodeStatus = "processing"
	EpisodeCompleted  EpisodeStatus = "completed"
	EpisodeFailed     EpisodeStatus = "failed"
)

// Episode is the persisted record of one synthesis request and its
// artifact locator.
type Episode struct {
	ID           string
	Title        string
	SourceURL    string
	Script       string
	VoiceID      string
	ProviderHint string
	Enhance      bool
	Status       EpisodeStatus
	Provider     string
	FallbackUsed bool
	Chunks       int
	AudioPath    string
	DurationMS   int64
	ErrorCode    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ErrorEvent is a persisted terminal-failure classification, kept for
// operator queries beyond the in-memory ring log.
type ErrorEvent struct {
	ID         string
	EpisodeID  string
	Operation  string
	Code       ErrorCode
	Severity   Severity
	Message    string
	Suggestion string
	CreatedAt  time.Time
}
