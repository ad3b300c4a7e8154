package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	tests := []struct {
		name   string
		metric interface{}
	}{
		{"Requests", m.Requests},
		{"RequestDuration", m.RequestDuration},
		{"Unauthorized", m.Unauthorized},
		{"TransportErrors", m.TransportErrors},
		{"SessionEvents", m.SessionEvents},
		{"CommandExecutions", m.CommandExecutions},
		{"CommandDuration", m.CommandDuration},
		{"Errors", m.Errors},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.metric)
		})
	}
}

func TestRecordRequest(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordRequest("claims", "GET", 200, 120*time.Millisecond)
	m.RecordRequest("claims", "GET", 200, 80*time.Millisecond)
	m.RecordRequest("claims", "GET", 404, 10*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues("claims", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues("claims", "GET", "404")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestDuration))
}

func TestRecordFailures(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordUnauthorized("dashboard")
	m.RecordTransportError("policies")
	m.RecordTransportError("policies")
	m.RecordError("NET-001")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Unauthorized.WithLabelValues("dashboard")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TransportErrors.WithLabelValues("policies")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Errors.WithLabelValues("NET-001")))
}

func TestRecordSessionAndCommand(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordSession("login", "employee")
	m.RecordCommand("claims list", true, time.Second)
	m.RecordCommand("claims list", false, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionEvents.WithLabelValues("login", "employee")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandExecutions.WithLabelValues("claims list", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandExecutions.WithLabelValues("claims list", "false")))
}
