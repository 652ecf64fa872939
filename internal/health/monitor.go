package health

import (
	"sync"
	"time"
)

// Monitor aggregates pass outcomes into a service health status.
type Monitor struct {
	interval time.Duration

	mu                  sync.RWMutex
	startedAt           time.Time
	lastPassAt          time.Time
	lastPassOK          bool
	consecutiveFailures int
	trackedOrders       int
}

// NewMonitor creates a monitor. The poll interval drives staleness
// detection; zero disables it.
func NewMonitor(pollInterval time.Duration) *Monitor {
	return &Monitor{
		interval:  pollInterval,
		startedAt: time.Now(),
	}
}

// RecordPass records one completed pass and the current tracked order count.
func (m *Monitor) RecordPass(err error, trackedOrders int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastPassAt = time.Now()
	m.lastPassOK = err == nil
	m.trackedOrders = trackedOrders
	if err != nil {
		m.consecutiveFailures++
	} else {
		m.consecutiveFailures = 0
	}
}

// Check reports the current health. A pass failure degrades the service,
// repeated failures escalate to critical, and a loop that stopped
// completing passes shows up as degraded through staleness.
func (m *Monitor) Check() Report {
	m.mu.RLock()
	defer m.mu.RUnlock()

	report := Report{
		Status:              StatusHealthy,
		LastPassAt:          m.lastPassAt,
		LastPassOK:          m.lastPassOK,
		ConsecutiveFailures: m.consecutiveFailures,
		TrackedOrders:       m.trackedOrders,
	}

	last := m.lastPassAt
	if last.IsZero() {
		last = m.startedAt
	}
	if m.interval > 0 && time.Since(last) > 3*m.interval {
		report.Status = StatusDegraded
	}
	if m.consecutiveFailures > 0 {
		report.Status = StatusDegraded
	}
	if m.consecutiveFailures >= 3 {
		report.Status = StatusCritical
	}

	return report
}
