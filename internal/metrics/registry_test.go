package metrics

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistryIsolated(t *testing.T) {
	reg1, m1 := NewRegistry()
	_, m2 := NewRegistry()
	assert.NotSame(t, m1, m2)

	m1.RecordRequest("health", "GET", 200, time.Millisecond)

	families, err := reg1.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["kavach_requests_total"])
	assert.True(t, names["kavach_request_duration_seconds"])
}

func TestDump(t *testing.T) {
	reg, m := NewRegistry()
	m.RecordRequest("claims", "POST", 201, 50*time.Millisecond)
	m.RecordUnauthorized("claims")

	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, reg))

	out := buf.String()
	assert.Contains(t, out, "# TYPE kavach_requests_total counter")
	assert.Contains(t, out, `kavach_requests_total{endpoint="claims",method="POST",status="201"} 1`)
	assert.Contains(t, out, `kavach_unauthorized_total{endpoint="claims"} 1`)
}
