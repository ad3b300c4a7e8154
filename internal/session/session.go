// Package session owns the authenticated-session lifecycle of the portal
// client: token storage, user category, cached profile, the post-login
// redirect target and logout.
//
// A Manager has two states. Anonymous means no token is stored;
// Authenticated means a token is stored together with its category.
// Token and category are always written and removed together.
package session

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/felixgeelhaar/kavach/internal/errors"
	"github.com/felixgeelhaar/kavach/internal/log"
)

// Category distinguishes the two client roles
type Category string

const (
	Customer Category = "customer"
	Employee Category = "employee"
)

// ParseCategory validates a category name
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case Customer, Employee:
		return Category(s), nil
	default:
		return "", errors.NewUnknownCategoryError(s)
	}
}

// Profile is the cached record of the signed-in user
type Profile struct {
	ID         string   `json:"id"`
	Name       string   `json:"name,omitempty"`
	Email      string   `json:"email,omitempty"`
	Phone      string   `json:"phone,omitempty"`
	UserType   Category `json:"user_type,omitempty"`
	EmployeeID string   `json:"employee_id,omitempty"`
	Department string   `json:"department,omitempty"`
	Role       string   `json:"role,omitempty"`
}

// DisplayName returns the best available label for the user
func (p *Profile) DisplayName() string {
	switch {
	case p.Name != "":
		return p.Name
	case p.Email != "":
		return p.Email
	default:
		return p.ID
	}
}

// Manager is an explicitly owned session over a Store
type Manager struct {
	store  Store
	nav    Navigator
	logger *log.Logger
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the logger used for store diagnostics
func WithLogger(l *log.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// NewManager creates a session manager over store that navigates with nav
func NewManager(store Store, nav Navigator, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		nav:    nav,
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// get reads a key; backend errors are logged and reported as absent
func (m *Manager) get(ctx context.Context, key string) (string, bool) {
	v, ok, err := m.store.Get(ctx, key)
	if err != nil {
		m.logger.WithError(err).WarnContext(ctx, "session store read failed", "key", key)
		return "", false
	}
	return v, ok
}

// StartSession stores token and category, replacing any prior session.
func (m *Manager) StartSession(ctx context.Context, token string, category Category) error {
	if token == "" {
		return errors.New(errors.ErrCodeAuthLoginFailed, "empty token")
	}
	if _, err := ParseCategory(string(category)); err != nil {
		return err
	}

	if err := m.store.Set(ctx, KeyToken, token); err != nil {
		return err
	}
	if err := m.store.Set(ctx, KeyCategory, string(category)); err != nil {
		// keep token and category paired
		if derr := m.store.Delete(ctx, KeyToken); derr != nil {
			m.logger.WithError(derr).ErrorContext(ctx, "failed to roll back token")
		}
		return err
	}

	m.logger.DebugContext(ctx, "session started", "category", category)
	return nil
}

// IsAuthenticated reports whether a token is present
func (m *Manager) IsAuthenticated(ctx context.Context) bool {
	token, ok := m.get(ctx, KeyToken)
	return ok && token != ""
}

// CurrentCategory returns the stored category, or Customer when unset.
// The default applies while Anonymous too; gate on IsAuthenticated first.
func (m *Manager) CurrentCategory(ctx context.Context) Category {
	v, ok := m.get(ctx, KeyCategory)
	if !ok {
		return Customer
	}
	c, err := ParseCategory(v)
	if err != nil {
		return Customer
	}
	return c
}

// Token returns the bearer token, or "" when Anonymous
func (m *Manager) Token(ctx context.Context) string {
	v, _ := m.get(ctx, KeyToken)
	return v
}

// AttachProfile caches the user profile alongside the session. A nil
// profile clears the cached one.
func (m *Manager) AttachProfile(ctx context.Context, p *Profile) error {
	if p == nil {
		return m.store.Delete(ctx, KeyProfile)
	}
	data, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStoreWrite, "failed to encode profile", err)
	}
	return m.store.Set(ctx, KeyProfile, string(data))
}

// CurrentProfile returns the cached profile, or nil if absent or corrupt.
func (m *Manager) CurrentProfile(ctx context.Context) *Profile {
	v, ok := m.get(ctx, KeyProfile)
	v = strings.TrimSpace(v)
	if !ok || v == "" || v == "null" {
		return nil
	}

	var p Profile
	if err := json.Unmarshal([]byte(v), &p); err != nil {
		m.logger.DebugContext(ctx, "ignoring malformed stored profile", "error", err.Error())
		return nil
	}
	return &p
}

// EndSession clears token, category and profile, then navigates to the
// landing page. It is safe to call when already Anonymous. The pending
// redirect target survives.
func (m *Manager) EndSession(ctx context.Context) error {
	err := m.store.Delete(ctx, KeyToken, KeyCategory, KeyProfile)
	if err != nil {
		m.logger.WithError(err).ErrorContext(ctx, "failed to clear session")
	}
	m.nav.Navigate(Landing)
	return err
}

// AuthorizationHeader returns an empty header when Anonymous, otherwise a
// single bearer Authorization header.
func (m *Manager) AuthorizationHeader(ctx context.Context) http.Header {
	h := http.Header{}
	if token := m.Token(ctx); token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

// RequireSession gates access. When Anonymous it remembers intended (if
// non-empty), navigates to the login page of the current category and
// returns false; callers must stop on false. When Authenticated it returns
// true without navigating.
func (m *Manager) RequireSession(ctx context.Context, intended Destination) bool {
	if m.IsAuthenticated(ctx) {
		return true
	}

	if intended != "" {
		if err := m.store.Set(ctx, KeyRedirect, string(intended)); err != nil {
			m.logger.WithError(err).WarnContext(ctx, "failed to remember redirect target", "target", intended)
		}
	}
	m.nav.Navigate(LoginFor(m.CurrentCategory(ctx)))
	return false
}

// PendingRedirect returns the remembered post-login target without clearing it
func (m *Manager) PendingRedirect(ctx context.Context) (Destination, bool) {
	v, ok := m.get(ctx, KeyRedirect)
	if !ok || v == "" {
		return "", false
	}
	return Destination(v), true
}

// ConsumePostLoginRedirect navigates to the remembered target and clears
// it, or navigates to def when none is remembered. It always navigates
// exactly once and returns the destination used.
func (m *Manager) ConsumePostLoginRedirect(ctx context.Context, def Destination) Destination {
	dest := def
	if target, ok := m.PendingRedirect(ctx); ok {
		if err := m.store.Delete(ctx, KeyRedirect); err != nil {
			m.logger.WithError(err).WarnContext(ctx, "failed to clear redirect target")
		}
		dest = target
	}
	m.nav.Navigate(dest)
	return dest
}
