// Package resilience implements the failure-handling core: error
// classification against a fixed taxonomy, bounded-backoff retries,
// and fallback chains over interchangeable providers.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/castforge/castforge/internal/core/domain"
)

// OpInfo identifies the operation being classified. It travels into
// the classification context and the metrics labels.
type OpInfo struct {
	Operation  string // e.g. "synthesize_chunk"
	Capability string // e.g. "synthesis", "generation", "scrape"
	Provider   string // provider name, if known
}

type rule struct {
	code       domain.ErrorCode
	severity   domain.Severity
	retryable  bool
	suggestion string
	patterns   []string
}

// rules is the ordered classification table; the first rule with a
// matching pattern wins.
var rules = []rule{
	{
		code:       domain.CodeNetworkError,
		severity:   domain.SeverityMedium,
		retryable:  true,
		suggestion: "Check network connectivity and retry.",
		patterns: []string{
			"connection refused", "connection reset", "no such host",
			"network is unreachable", "broken pipe", "econnrefused", "eof",
		},
	},
	{
		code:       domain.CodeRateLimit,
		severity:   domain.SeverityMedium,
		retryable:  true,
		suggestion: "Provider rate limit hit; wait before retrying or switch providers.",
		patterns: []string{
			"429", "too many requests", "rate limit", "quota exceeded",
			"quota_exceeded", "plan limit",
		},
	},
	{
		code:       domain.CodeAuthError,
		severity:   domain.SeverityHigh,
		retryable:  false,
		suggestion: "Verify the provider API key and account permissions.",
		patterns: []string{
			"401", "unauthorized", "invalid api key", "invalid_api_key",
			"authentication", "forbidden", "403",
		},
	},
	{
		code:       domain.CodeTimeout,
		severity:   domain.SeverityMedium,
		retryable:  true,
		suggestion: "The provider took too long to respond; retry or raise the timeout.",
		patterns: []string{
			"timeout", "timed out", "deadline exceeded", "context deadline",
		},
	},
	{
		code:       domain.CodeServiceUnavailable,
		severity:   domain.SeverityHigh,
		retryable:  true,
		suggestion: "The provider is temporarily unavailable; retry later or use a fallback.",
		patterns: []string{
			"500", "502", "503", "504", "internal server error",
			"bad gateway", "service unavailable", "gateway timeout", "overloaded",
		},
	},
	{
		code:       domain.CodeContentPolicy,
		severity:   domain.SeverityHigh,
		retryable:  false,
		suggestion: "The input was rejected by the provider's content policy; revise the text.",
		patterns: []string{
			"content policy", "content_policy", "moderation", "flagged",
			"unsafe content", "policy violation",
		},
	},
	{
		code:       domain.CodeValidationError,
		severity:   domain.SeverityMedium,
		retryable:  false,
		suggestion: "The request was malformed; fix the input before retrying.",
		patterns: []string{
			"400", "invalid request", "invalid_request", "validation",
			"missing required", "bad request", "unprocessable",
		},
	},
	{
		code:       domain.CodeAutomationBlocked,
		severity:   domain.SeverityMedium,
		retryable:  true,
		suggestion: "The target site is blocking automated access; retry or use a different fetcher.",
		patterns: []string{
			"captcha", "cloudflare", "bot detected", "automation", "access denied",
		},
	},
	{
		code:       domain.CodeFilesystemError,
		severity:   domain.SeverityHigh,
		retryable:  false,
		suggestion: "Check disk space and directory permissions.",
		patterns: []string{
			"no space left", "permission denied", "read-only file system",
			"file exists", "is a directory", "no such file",
		},
	},
	{
		code:       domain.CodeInternalError,
		severity:   domain.SeverityHigh,
		retryable:  true,
		suggestion: "An internal error occurred; retry, and report it if it persists.",
		patterns: []string{
			"panic", "nil pointer", "internal error", "unexpected",
		},
	},
}

// unknownRule is applied when no table entry matches. Unknown failures
// are not retried.
var unknownRule = rule{
	code:       domain.CodeUnknownError,
	severity:   domain.SeverityMedium,
	retryable:  false,
	suggestion: "An unclassified error occurred; inspect the logs for details.",
}

// Classifier turns raw failures into taxonomy-coded classifications
// and appends every observation to its ring log.
type Classifier struct {
	log    *ErrorLog
	logger *slog.Logger
}

// NewClassifier creates a classifier writing to the given ring log.
func NewClassifier(log *ErrorLog) *Classifier {
	if log == nil {
		log = NewErrorLog(DefaultLogCapacity)
	}
	return &Classifier{
		log:    log,
		logger: slog.Default().With("component", "classifier"),
	}
}

// Log exposes the ring log for health queries.
func (c *Classifier) Log() *ErrorLog { return c.log }

// Classify maps a failure onto the taxonomy. It is total: any non-nil
// error yields a classification, deterministic apart from the
// timestamp. The only side effects are the ring-log append and a
// severity-mapped log line.
func (c *Classifier) Classify(err error, info OpInfo) domain.Classification {
	matched := match(err)

	cls := domain.Classification{
		Code:       matched.code,
		Severity:   matched.severity,
		Retryable:  matched.retryable,
		Suggestion: matched.suggestion,
		Context: map[string]any{
			"operation":  info.Operation,
			"capability": info.Capability,
			"provider":   info.Provider,
			"message":    errMessage(err),
		},
		Timestamp: time.Now(),
	}

	c.log.Append(cls)
	c.logger.Log(context.Background(), severityLevel(cls.Severity), "Classified failure",
		"code", string(cls.Code),
		"severity", string(cls.Severity),
		"retryable", cls.Retryable,
		"operation", info.Operation,
		"provider", info.Provider,
		"error", err,
	)

	return cls
}

func match(err error) rule {
	// Context and filesystem errors carry typed sentinels; prefer those
	// over message sniffing.
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return findRule(domain.CodeTimeout)
	case errors.Is(err, os.ErrPermission), errors.Is(err, os.ErrNotExist):
		return findRule(domain.CodeFilesystemError)
	}

	msg := strings.ToLower(errMessage(err))
	for _, r := range rules {
		for _, p := range r.patterns {
			if strings.Contains(msg, p) {
				return r
			}
		}
	}
	return unknownRule
}

func findRule(code domain.ErrorCode) rule {
	for _, r := range rules {
		if r.code == code {
			return r
		}
	}
	return unknownRule
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func severityLevel(sev domain.Severity) slog.Level {
	switch sev {
	case domain.SeverityCritical:
		return slog.LevelError
	case domain.SeverityHigh:
		return slog.LevelError
	case domain.SeverityMedium:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}
