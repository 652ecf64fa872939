// Package health provides service health monitoring and status reporting.
package health

import "time"

// Status represents the health state of the service.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
	StatusCritical Status = "critical"
)

// Report contains the service health snapshot.
type Report struct {
	Status              Status    `json:"status"`
	LastPassAt          time.Time `json:"last_pass_at"`
	LastPassOK          bool      `json:"last_pass_ok"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	TrackedOrders       int       `json:"tracked_orders"`
}
