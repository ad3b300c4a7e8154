package session

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Destination is a page of the portal, addressed by path
type Destination string

// Fixed destinations
const (
	Landing           Destination = "/"
	CustomerLogin     Destination = "/customer/login"
	EmployeeLogin     Destination = "/employee/login"
	CustomerDashboard Destination = "/customer/dashboard"
	EmployeeDashboard Destination = "/employee/dashboard"
)

// LoginFor returns the login page of a category
func LoginFor(c Category) Destination {
	if c == Employee {
		return EmployeeLogin
	}
	return CustomerLogin
}

// DashboardFor returns the dashboard page of a category
func DashboardFor(c Category) Destination {
	if c == Employee {
		return EmployeeDashboard
	}
	return CustomerDashboard
}

// ClaimPage returns the claim detail page for a category
func ClaimPage(c Category, claimID string) Destination {
	return Destination(fmt.Sprintf("/%s/claims/%s", c, claimID))
}

// Navigator moves the user to a destination. Navigation does not stop the
// caller; code after a navigation keeps running.
type Navigator interface {
	Navigate(dest Destination)
}

// NavigatorFunc adapts a function to Navigator
type NavigatorFunc func(dest Destination)

func (f NavigatorFunc) Navigate(dest Destination) { f(dest) }

// TerminalNavigator tells the user which command reaches a destination.
type TerminalNavigator struct {
	w io.Writer
}

// NewTerminalNavigator writes navigation hints to w
func NewTerminalNavigator(w io.Writer) *TerminalNavigator {
	return &TerminalNavigator{w: w}
}

func (n *TerminalNavigator) Navigate(dest Destination) {
	fmt.Fprintf(n.w, "→ %s\n", dest)
	if hint := Hint(dest); hint != "" {
		fmt.Fprintf(n.w, "  %s\n", hint)
	}
}

// Hint returns the command that opens dest, or "" when none applies.
func Hint(dest Destination) string {
	switch dest {
	case Landing:
		return "Run 'kavach auth login' to sign in."
	case CustomerLogin:
		return "Run 'kavach auth login --as customer'."
	case EmployeeLogin:
		return "Run 'kavach auth login --as employee'."
	case CustomerDashboard, EmployeeDashboard:
		return "Run 'kavach dashboard'."
	}

	parts := strings.Split(strings.Trim(string(dest), "/"), "/")
	if len(parts) == 3 && parts[1] == "claims" {
		return fmt.Sprintf("Run 'kavach claims show %s'.", parts[2])
	}
	return ""
}

// Recorder remembers every navigation. Used when output is machine-readable
// and in tests.
type Recorder struct {
	mu      sync.Mutex
	visited []Destination
}

func (r *Recorder) Navigate(dest Destination) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visited = append(r.visited, dest)
}

// Visited returns every destination in navigation order
func (r *Recorder) Visited() []Destination {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Destination(nil), r.visited...)
}

// Last returns the most recent destination, or "" if none
func (r *Recorder) Last() Destination {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.visited) == 0 {
		return ""
	}
	return r.visited[len(r.visited)-1]
}
