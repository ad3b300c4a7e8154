package health

import (
	"context"
	"time"
)

// Manager runs checkers one after another, in the order they were added,
// each bounded by the same timeout.
type Manager struct {
	checkers []Checker
	timeout  time.Duration
}

// NewManager creates a new health check manager with default 5-second timeout.
func NewManager() *Manager {
	return &Manager{timeout: 5 * time.Second}
}

// WithTimeout sets a custom timeout for each check.
func (m *Manager) WithTimeout(timeout time.Duration) *Manager {
	m.timeout = timeout
	return m
}

// AddChecker registers a new health checker.
func (m *Manager) AddChecker(checker Checker) {
	m.checkers = append(m.checkers, checker)
}

// NamedResult is one entry of a Report
type NamedResult struct {
	Name string `json:"name"`
	*Result
}

// Report is the outcome of running every checker
type Report struct {
	Status  Status        `json:"status"`
	Results []NamedResult `json:"checks"`
}

// Check runs every checker and aggregates the results.
func (m *Manager) Check(ctx context.Context) Report {
	report := Report{Results: make([]NamedResult, 0, len(m.checkers))}

	for _, c := range m.checkers {
		checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
		start := time.Now()
		result := c.Check(checkCtx)
		cancel()

		if result == nil {
			result = Unhealthy("check returned no result")
		}
		if result.Latency == 0 {
			result.Latency = time.Since(start)
		}
		report.Results = append(report.Results, NamedResult{Name: c.Name(), Result: result})
	}

	report.Status = OverallStatus(report.Results)
	return report
}

// OverallStatus is unhealthy if any result is unhealthy, degraded if any
// is degraded, and healthy otherwise (including when there are none).
func OverallStatus(results []NamedResult) Status {
	hasDegraded := false
	for _, r := range results {
		if r.Status == StatusUnhealthy {
			return StatusUnhealthy
		}
		if r.Status == StatusDegraded {
			hasDegraded = true
		}
	}

	if hasDegraded {
		return StatusDegraded
	}
	return StatusHealthy
}

// CheckNames returns the names of all registered checkers.
func (m *Manager) CheckNames() []string {
	names := make([]string, len(m.checkers))
	for i, checker := range m.checkers {
		names[i] = checker.Name()
	}
	return names
}
