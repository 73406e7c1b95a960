package health

import (
	"context"
	"sync"
	"time"

	"github.com/castforge/castforge/internal/core/domain"
	"github.com/castforge/castforge/internal/resilience"
)

// Pinger checks connectivity of an infrastructure dependency.
type Pinger interface {
	Health(ctx context.Context) error
}

// QueueDepther reports how many jobs are pending.
type QueueDepther interface {
	QueueDepth(ctx context.Context) (int64, error)
}

// Monitor aggregates health status from system components.
type Monitor struct {
	errorLog   *resilience.ErrorLog
	db         Pinger
	redis      Pinger
	queue      QueueDepther
	lastCheck  time.Time
	lastReport Report
	mu         sync.Mutex
}

// NewMonitor creates a new health monitor. db, redis, and queue may be
// nil when the deployment runs without that dependency.
func NewMonitor(errorLog *resilience.ErrorLog, db, redis Pinger, queue QueueDepther) *Monitor {
	return &Monitor{
		errorLog: errorLog,
		db:       db,
		redis:    redis,
		queue:    queue,
	}
}

// CheckHealth performs a health check across all components.
func (m *Monitor) CheckHealth(ctx context.Context) Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Rate limit checks to avoid hammering dependencies.
	if time.Since(m.lastCheck) < 10*time.Second && m.lastReport.Status != "" {
		return m.lastReport
	}

	report := Report{
		Status:   StatusHealthy,
		Database: "disabled",
		Redis:    "disabled",
	}

	if m.db != nil {
		if err := m.db.Health(ctx); err != nil {
			report.Database = "unreachable"
			report.Status = StatusCritical
		} else {
			report.Database = "ok"
		}
	}

	if m.redis != nil {
		if err := m.redis.Health(ctx); err != nil {
			report.Redis = "unreachable"
			if report.Status != StatusCritical {
				report.Status = StatusDegraded
			}
		} else {
			report.Redis = "ok"
		}
	}

	if m.queue != nil {
		if depth, err := m.queue.QueueDepth(ctx); err == nil {
			report.QueueDepth = depth
		}
	}

	for _, cls := range m.errorLog.Recent(0) {
		switch cls.Severity {
		case domain.SeverityCritical:
			report.RecentErrors.Critical++
		case domain.SeverityHigh:
			report.RecentErrors.High++
		case domain.SeverityMedium:
			report.RecentErrors.Medium++
		case domain.SeverityLow:
			report.RecentErrors.Low++
		}
	}

	if !m.errorLog.Healthy() && report.Status == StatusHealthy {
		report.Status = StatusDegraded
	}

	m.lastCheck = time.Now()
	m.lastReport = report
	return report
}
