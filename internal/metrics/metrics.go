package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for kavach
type Metrics struct {
	// Gateway request metrics
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Unauthorized    *prometheus.CounterVec
	TransportErrors *prometheus.CounterVec

	// Session metrics
	SessionEvents *prometheus.CounterVec

	// Command execution metrics
	CommandExecutions *prometheus.CounterVec
	CommandDuration   *prometheus.HistogramVec

	// Error metrics (by error code from structured errors)
	Errors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kavach_requests_total",
				Help: "Total number of portal API requests by response status",
			},
			[]string{"endpoint", "method", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kavach_request_duration_seconds",
				Help:    "Portal API request latency in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"endpoint", "method"},
		),
		Unauthorized: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kavach_unauthorized_total",
				Help: "Requests that ended the session with 401",
			},
			[]string{"endpoint"},
		),
		TransportErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kavach_transport_errors_total",
				Help: "Requests that failed before a response arrived",
			},
			[]string{"endpoint"},
		),

		SessionEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kavach_session_events_total",
				Help: "Session lifecycle events",
			},
			[]string{"event", "category"},
		),

		CommandExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kavach_command_executions_total",
				Help: "Total number of command executions",
			},
			[]string{"command", "success"},
		),
		CommandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kavach_command_duration_seconds",
				Help:    "Command execution duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command"},
		),

		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kavach_errors_total",
				Help: "Total number of errors by error code",
			},
			[]string{"error_code"},
		),
	}
}

// RecordRequest records a completed request and its latency
func (m *Metrics) RecordRequest(endpoint, method string, status int, duration time.Duration) {
	m.Requests.WithLabelValues(endpoint, method, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

// RecordUnauthorized records a request answered with 401
func (m *Metrics) RecordUnauthorized(endpoint string) {
	m.Unauthorized.WithLabelValues(endpoint).Inc()
}

// RecordTransportError records a request that never got a response
func (m *Metrics) RecordTransportError(endpoint string) {
	m.TransportErrors.WithLabelValues(endpoint).Inc()
}

// RecordSession records a login or logout
func (m *Metrics) RecordSession(event, category string) {
	m.SessionEvents.WithLabelValues(event, category).Inc()
}

// RecordCommand records a command execution
func (m *Metrics) RecordCommand(command string, success bool, duration time.Duration) {
	m.CommandExecutions.WithLabelValues(command, strconv.FormatBool(success)).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordError records an error by code
func (m *Metrics) RecordError(code string) {
	m.Errors.WithLabelValues(code).Inc()
}
