package domain

import "time"

// ErrorCode identifies a failure category in the classification taxonomy.
type ErrorCode string

const (
	CodeNetworkError       ErrorCode = "NETWORK_ERROR"
	CodeRateLimit          ErrorCode = "RATE_LIMIT"
	CodeAuthError          ErrorCode = "AUTH_ERROR"
	CodeTimeout            ErrorCode = "TIMEOUT"
	CodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	CodeContentPolicy      ErrorCode = "CONTENT_POLICY"
	CodeValidationError    ErrorCode = "VALIDATION_ERROR"
	CodeAutomationBlocked  ErrorCode = "AUTOMATION_BLOCKED"
	CodeFilesystemError    ErrorCode = "FILESYSTEM_ERROR"
	CodeInternalError      ErrorCode = "INTERNAL_ERROR"
	CodeUnknownError       ErrorCode = "UNKNOWN_ERROR"
)

// Severity ranks how serious a classified failure is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Classification is the structured description of one observed failure.
// It is created once per observation and never mutated afterwards.
type Classification struct {
	Code       ErrorCode
	Severity   Severity
	Retryable  bool
	Suggestion string
	Context    map[string]any
	Timestamp  time.Time
}
