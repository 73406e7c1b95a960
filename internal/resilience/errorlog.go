package resilience

import (
	"sync"

	"github.com/castforge/castforge/internal/core/domain"
)

// DefaultLogCapacity bounds the error ring log.
const DefaultLogCapacity = 100

// healthWindow and the thresholds below drive Healthy(): the system is
// unhealthy once the most recent window contains 3 critical or 6
// high-severity classifications.
const (
	healthWindow      = 20
	criticalThreshold = 3
	highThreshold     = 6
)

// ErrorLog is a bounded, append-only ring of failure classifications.
// It is safe for concurrent use and is constructed explicitly so tests
// can run isolated instances.
type ErrorLog struct {
	mu       sync.RWMutex
	entries  []domain.Classification
	capacity int
}

// NewErrorLog creates a ring log with the given capacity.
// A capacity of zero or less falls back to DefaultLogCapacity.
func NewErrorLog(capacity int) *ErrorLog {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &ErrorLog{
		entries:  make([]domain.Classification, 0, capacity),
		capacity: capacity,
	}
}

// Append records a classification, evicting the oldest entry when the
// log is full.
func (l *ErrorLog) Append(c domain.Classification) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.entries) == l.capacity {
		l.entries = append(l.entries[:0], l.entries[1:]...)
		l.entries[len(l.entries)-1] = c
		return
	}
	l.entries = append(l.entries, c)
}

// Recent returns up to limit classifications, newest first.
func (l *ErrorLog) Recent(limit int) []domain.Classification {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := len(l.entries)
	if limit <= 0 || limit > n {
		limit = n
	}

	out := make([]domain.Classification, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, l.entries[i])
	}
	return out
}

// BySeverity returns all logged classifications with the given
// severity, newest first.
func (l *ErrorLog) BySeverity(sev domain.Severity) []domain.Classification {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []domain.Classification
	for i := len(l.entries) - 1; i >= 0; i-- {
		if l.entries[i].Severity == sev {
			out = append(out, l.entries[i])
		}
	}
	return out
}

// Counts returns the number of logged classifications per error code.
func (l *ErrorLog) Counts() map[domain.ErrorCode]int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	counts := make(map[domain.ErrorCode]int)
	for _, e := range l.entries {
		counts[e.Code]++
	}
	return counts
}

// Len returns the number of entries currently held.
func (l *ErrorLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Healthy reports whether the recent failure history is below the
// critical/high thresholds.
func (l *ErrorLog) Healthy() bool {
	var critical, high int
	for _, e := range l.Recent(healthWindow) {
		switch e.Severity {
		case domain.SeverityCritical:
			critical++
		case domain.SeverityHigh:
			high++
		}
	}
	return critical < criticalThreshold && high < highThreshold
}
