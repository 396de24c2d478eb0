package monitoring

import (
	"fmt"
	"sync"
	"time"

	"learning-path/shared/logging"
)

// Monitor tracks the outcome of the most recent scheduled run. It is read
// by the HTTP health endpoints while the scheduler writes it.
type Monitor struct {
	mu             sync.RWMutex
	lastRunSuccess bool
	lastRunTime    time.Time
	lastSummary    string
	lastError      string
	log            *logging.Logger
}

// Status is a point-in-time view of the monitor.
type Status struct {
	Healthy     bool      `json:"healthy"`
	LastRunTime time.Time `json:"last_run_time,omitempty"`
	LastSummary string    `json:"last_summary,omitempty"`
	LastError   string    `json:"last_error,omitempty"`
	Summary     string    `json:"summary"`
}

func NewMonitor(log *logging.Logger) *Monitor {
	return &Monitor{log: log.With("service", "Monitor")}
}

func (m *Monitor) RecordSuccess(summary string, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = true
	m.lastRunTime = time.Now()
	m.lastSummary = summary
	m.lastError = ""
	m.mu.Unlock()

	m.log.Info("Run completed successfully", "summary", summary, "duration", duration.String())
}

// RecordPartialFailure logs without changing health.
func (m *Monitor) RecordPartialFailure(err error, duration time.Duration) {
	m.log.Warn("Partial failure", "error", err, "duration", duration.String())
}

func (m *Monitor) RecordCriticalFailure(err error, duration time.Duration) {
	m.mu.Lock()
	m.lastRunSuccess = false
	m.lastRunTime = time.Now()
	m.lastError = err.Error()
	m.mu.Unlock()

	m.log.Error("Critical failure", "error", err, "duration", duration.String())
}

func (m *Monitor) IsHealthy() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.healthyLocked()
}

func (m *Monitor) healthyLocked() bool {
	if m.lastRunTime.IsZero() {
		return true // No runs yet
	}
	return m.lastRunSuccess
}

func (m *Monitor) GetStatusSummary() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.summaryLocked()
}

func (m *Monitor) summaryLocked() string {
	if m.lastRunTime.IsZero() {
		return "No runs yet"
	}
	if m.lastRunSuccess {
		return fmt.Sprintf("Last run: %s", m.lastRunTime.Format("Jan 2 15:04"))
	}
	return fmt.Sprintf("Last run failed: %s", m.lastRunTime.Format("Jan 2 15:04"))
}

func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Status{
		Healthy:     m.healthyLocked(),
		LastRunTime: m.lastRunTime,
		LastSummary: m.lastSummary,
		LastError:   m.lastError,
		Summary:     m.summaryLocked(),
	}
}
