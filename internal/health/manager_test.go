package health

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// mockChecker is a test double for health checks
type mockChecker struct {
	name   string
	result *Result
	delay  time.Duration
}

func (m *mockChecker) Name() string {
	return m.name
}

func (m *mockChecker) Check(ctx context.Context) *Result {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return Unhealthy("check cancelled").
				WithDetail("error", ctx.Err().Error())
		}
	}
	return m.result
}

func TestManagerRunsInOrder(t *testing.T) {
	m := NewManager()
	m.AddChecker(&mockChecker{name: "b", result: Healthy("ok")})
	m.AddChecker(&mockChecker{name: "a", result: Degraded("meh")})

	assert.Equal(t, []string{"b", "a"}, m.CheckNames())

	report := m.Check(context.Background())
	assert.Equal(t, StatusDegraded, report.Status)
	assert.Equal(t, "b", report.Results[0].Name)
	assert.Equal(t, "a", report.Results[1].Name)
}

func TestManagerTimeout(t *testing.T) {
	m := NewManager().WithTimeout(10 * time.Millisecond)
	m.AddChecker(&mockChecker{name: "slow", result: Healthy("late"), delay: time.Second})

	report := m.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, report.Status)
	assert.Equal(t, "check cancelled", report.Results[0].Message)
	assert.NotZero(t, report.Results[0].Latency)
}

func TestManagerNilResult(t *testing.T) {
	m := NewManager()
	m.AddChecker(&mockChecker{name: "broken"})

	report := m.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, report.Status)
}

func TestOverallStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"empty", nil, StatusHealthy},
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, StatusHealthy},
		{"one degraded", []Status{StatusHealthy, StatusDegraded}, StatusDegraded},
		{"unhealthy wins", []Status{StatusDegraded, StatusUnhealthy, StatusHealthy}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var results []NamedResult
			for i, s := range tt.statuses {
				results = append(results, NamedResult{Name: string(rune('a' + i)), Result: NewResult(s, "")})
			}
			assert.Equal(t, tt.want, OverallStatus(results))
		})
	}
}
