// Package notify renders the busy indicator and transient notifications.
//
// A notification moves through created → visible → dismissed on two timers:
// it appears ShowDelay after it is announced and disappears VisibleFor
// later. Notifications are independent; there is no queue, no dedup and no
// cap, so overlapping ones simply stack.
package notify

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Kind is the severity of a notification
type Kind string

const (
	Info    Kind = "info"
	Success Kind = "success"
	Warning Kind = "warning"
	Error   Kind = "error"
)

// State is the lifecycle state of a notification
type State int

const (
	Created State = iota
	Visible
	Dismissed
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Visible:
		return "visible"
	case Dismissed:
		return "dismissed"
	default:
		return "unknown"
	}
}

// Default timings
const (
	DefaultShowDelay  = 100 * time.Millisecond
	DefaultVisibleFor = 3 * time.Second
)

// Timer is a pending callback that can be cancelled
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. The real clock uses time.AfterFunc.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock returns the wall clock
func RealClock() Clock { return realClock{} }

// Toast is a snapshot of one notification
type Toast struct {
	ID      int
	Message string
	Kind    Kind
	State   State
}

type toast struct {
	Toast
	timer Timer
}

// Config holds notifier timings
type Config struct {
	ShowDelay  time.Duration
	VisibleFor time.Duration
}

// DefaultConfig returns the standard timings
func DefaultConfig() Config {
	return Config{ShowDelay: DefaultShowDelay, VisibleFor: DefaultVisibleFor}
}

// Notifier announces transient notifications
type Notifier struct {
	mu     sync.Mutex
	cfg    Config
	clock  Clock
	out    io.Writer
	styles Styles
	busy   *Busy
	nextID int
	active map[int]*toast
}

// Option configures a Notifier
type Option func(*Notifier)

// WithClock replaces the wall clock
func WithClock(c Clock) Option {
	return func(n *Notifier) { n.clock = c }
}

// WithBusy dismisses b before a notification is drawn, so a toast never
// lands on the spinner line
func WithBusy(b *Busy) Option {
	return func(n *Notifier) { n.busy = b }
}

// NewNotifier creates a notifier that renders visible notifications to out.
// A nil out renders nothing.
func NewNotifier(cfg Config, out io.Writer, opts ...Option) *Notifier {
	if cfg.ShowDelay < 0 {
		cfg.ShowDelay = 0
	}
	if cfg.VisibleFor <= 0 {
		cfg.VisibleFor = DefaultVisibleFor
	}
	n := &Notifier{
		cfg:    cfg,
		clock:  RealClock(),
		out:    out,
		styles: DefaultStyles(),
		active: make(map[int]*toast),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Announce creates a notification and returns its id
func (n *Notifier) Announce(message string, kind Kind) int {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.nextID++
	t := &toast{Toast: Toast{ID: n.nextID, Message: message, Kind: kind, State: Created}}
	n.active[t.ID] = t
	t.timer = n.clock.AfterFunc(n.cfg.ShowDelay, func() { n.show(t.ID) })
	return t.ID
}

func (n *Notifier) show(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	t, ok := n.active[id]
	if !ok || t.State != Created {
		return
	}
	n.showLocked(t)
}

func (n *Notifier) showLocked(t *toast) {
	t.State = Visible
	if n.busy != nil {
		n.busy.Dismiss()
	}
	if n.out != nil {
		fmt.Fprintln(n.out, n.styles.Render(t.Kind, t.Message))
	}
	t.timer = n.clock.AfterFunc(n.cfg.VisibleFor, func() { n.dismiss(t.ID) })
}

func (n *Notifier) dismiss(id int) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if t, ok := n.active[id]; ok && t.State == Visible {
		t.State = Dismissed
		delete(n.active, id)
	}
}

// State reports the state of a notification. Unknown ids and removed
// notifications report Dismissed.
func (n *Notifier) State(id int) State {
	n.mu.Lock()
	defer n.mu.Unlock()

	if t, ok := n.active[id]; ok {
		return t.State
	}
	return Dismissed
}

// Active returns the notifications not yet dismissed, oldest first
func (n *Notifier) Active() []Toast {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]Toast, 0, len(n.active))
	for _, t := range n.active {
		out = append(out, t.Toast)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Flush shows every notification still waiting for its delay. A CLI calls
// it before exiting so announcements are not lost with the process.
func (n *Notifier) Flush() {
	n.mu.Lock()
	defer n.mu.Unlock()

	ids := make([]int, 0, len(n.active))
	for id, t := range n.active {
		if t.State == Created {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)

	for _, id := range ids {
		t := n.active[id]
		t.timer.Stop()
		n.showLocked(t)
	}
}

// Styles contains lipgloss styles per notification kind
type Styles struct {
	Info    lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
}

// DefaultStyles returns the default lipgloss styles
func DefaultStyles() Styles {
	return Styles{
		Info: lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")), // Cyan
		Success: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("46")), // Green
		Warning: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("226")), // Yellow
		Error: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196")), // Red
	}
}

// Render formats a message for its kind
func (s Styles) Render(kind Kind, message string) string {
	switch kind {
	case Success:
		return s.Success.Render("✓ " + message)
	case Warning:
		return s.Warning.Render("⚠ " + message)
	case Error:
		return s.Error.Render("✗ " + message)
	default:
		return s.Info.Render("ℹ " + message)
	}
}
