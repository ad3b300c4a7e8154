package notify

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// indicator is one shown busy indicator
type indicator interface {
	Start(message string)
	Stop()
}

// Busy is the single busy indicator. Presenting while one is shown
// replaces it; there is never more than one.
type Busy struct {
	mu      sync.Mutex
	newInd  func() indicator
	current indicator
	message string
}

// BusyConfig holds configuration for the busy indicator
type BusyConfig struct {
	Writer io.Writer
	// Animate draws a spinner; otherwise the message is printed once
	Animate bool
	// IsCI disables animation in CI/CD environments
	IsCI bool
}

// NewBusy creates a busy indicator
func NewBusy(cfg BusyConfig) *Busy {
	if cfg.Writer == nil {
		cfg.Writer = os.Stderr
	}

	// Auto-detect CI environment
	if !cfg.IsCI {
		cfg.IsCI = os.Getenv("CI") == "true" || os.Getenv("GITHUB_ACTIONS") == "true"
	}

	w := cfg.Writer
	if cfg.Animate && !cfg.IsCI {
		return newBusy(func() indicator { return &spinnerIndicator{w: w} })
	}
	return newBusy(func() indicator { return &lineIndicator{w: w} })
}

// NewSilentBusy returns an indicator that draws nothing
func NewSilentBusy() *Busy {
	return newBusy(func() indicator { return silentIndicator{} })
}

func newBusy(f func() indicator) *Busy {
	return &Busy{newInd: f}
}

// Present shows message, replacing any indicator already shown
func (b *Busy) Present(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current != nil {
		b.current.Stop()
	}
	b.current = b.newInd()
	b.message = message
	b.current.Start(message)
}

// Dismiss hides the indicator. Safe to call when nothing is shown.
func (b *Busy) Dismiss() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current == nil {
		return
	}
	b.current.Stop()
	b.current = nil
	b.message = ""
}

// Showing returns the message of the shown indicator
func (b *Busy) Showing() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.message, b.current != nil
}

type silentIndicator struct{}

func (silentIndicator) Start(string) {}
func (silentIndicator) Stop()        {}

// lineIndicator prints the message once, for logs and CI output
type lineIndicator struct {
	w io.Writer
}

func (l *lineIndicator) Start(message string) {
	fmt.Fprintf(l.w, "… %s\n", message)
}

func (l *lineIndicator) Stop() {}

// spinnerIndicator runs a Bubble Tea program that animates a spinner
type spinnerIndicator struct {
	w        io.Writer
	program  *tea.Program
	done     chan struct{}
	stopOnce sync.Once
}

func (s *spinnerIndicator) Start(message string) {
	s.program = tea.NewProgram(
		newSpinnerModel(message),
		tea.WithOutput(s.w),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		_, _ = s.program.Run()
	}()
}

func (s *spinnerIndicator) Stop() {
	s.stopOnce.Do(func() {
		// the model clears its line before quitting
		s.program.Send(stopSpinnerMsg{})
		<-s.done
	})
}

type stopSpinnerMsg struct{}

type spinnerModel struct {
	spinner  spinner.Model
	message  string
	quitting bool
}

func newSpinnerModel(message string) spinnerModel {
	sp := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("63"))),
	)
	return spinnerModel{spinner: sp, message: message}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stopSpinnerMsg:
		m.quitting = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.quitting {
		return ""
	}
	return fmt.Sprintf("%s %s", m.spinner.View(), m.message)
}
