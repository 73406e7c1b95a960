// Package health provides system health monitoring and the HTTP API.
package health

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
)

// Report contains the full system health report.
type Report struct {
	Status     SystemStatus `json:"status"`
	Database   string       `json:"database"`
	Redis      string       `json:"redis"`
	QueueDepth int64        `json:"queue_depth"`
	RecentErrors struct {
		Critical int `json:"critical"`
		High     int `json:"high"`
		Medium   int `json:"medium"`
		Low      int `json:"low"`
	} `json:"recent_errors"`
}
