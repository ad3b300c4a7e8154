package notify

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

// recordingIndicator counts starts and stops
type recordingIndicator struct {
	log *[]string
}

func (r *recordingIndicator) Start(message string) { *r.log = append(*r.log, "start:"+message) }
func (r *recordingIndicator) Stop()                { *r.log = append(*r.log, "stop") }

func TestBusyPresentReplaces(t *testing.T) {
	var events []string
	b := newBusy(func() indicator { return &recordingIndicator{log: &events} })

	b.Present("Loading claims")
	b.Present("Uploading document")

	msg, showing := b.Showing()
	assert.True(t, showing)
	assert.Equal(t, "Uploading document", msg)
	assert.Equal(t, []string{"start:Loading claims", "stop", "start:Uploading document"}, events)
}

func TestBusyDismissIsIdempotent(t *testing.T) {
	var events []string
	b := newBusy(func() indicator { return &recordingIndicator{log: &events} })

	b.Dismiss()
	b.Present("Working")
	b.Dismiss()
	b.Dismiss()

	_, showing := b.Showing()
	assert.False(t, showing)
	assert.Equal(t, []string{"start:Working", "stop"}, events)
}

func TestBusyLineOutputInCI(t *testing.T) {
	var buf bytes.Buffer
	b := NewBusy(BusyConfig{Writer: &buf, Animate: true, IsCI: true})

	b.Present("Verifying hospital")
	b.Dismiss()

	assert.Equal(t, "… Verifying hospital\n", buf.String())
}

func TestSilentBusy(t *testing.T) {
	b := NewSilentBusy()
	b.Present("x")
	msg, showing := b.Showing()
	assert.True(t, showing)
	assert.Equal(t, "x", msg)
	b.Dismiss()
}

func TestSpinnerModel(t *testing.T) {
	m := newSpinnerModel("Loading")
	assert.NotNil(t, m.Init())
	assert.Contains(t, m.View(), "Loading")

	next, cmd := m.Update(stopSpinnerMsg{})
	assert.NotNil(t, cmd)
	assert.Equal(t, "", next.View())
}
