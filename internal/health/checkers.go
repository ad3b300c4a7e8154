package health

import (
	"context"
	"time"

	"github.com/felixgeelhaar/kavach/internal/session"
)

// PortalProbe calls the backend health endpoint and returns its status
type PortalProbe func(ctx context.Context) (status string, err error)

type portalChecker struct {
	probe PortalProbe
}

// NewPortalChecker checks that the portal answers its health endpoint
func NewPortalChecker(probe PortalProbe) Checker {
	return &portalChecker{probe: probe}
}

func (c *portalChecker) Name() string { return "portal-api" }

func (c *portalChecker) Check(ctx context.Context) *Result {
	status, err := c.probe(ctx)
	if err != nil {
		return Unhealthy("portal unreachable").WithDetail("error", err.Error())
	}
	switch status {
	case "healthy", "ok", "up":
		return Healthy("portal is up").WithDetail("status", status)
	default:
		return Degraded("portal reports " + status).WithDetail("status", status)
	}
}

type storeChecker struct {
	store session.Store
}

// NewStoreChecker checks that the session store can be read. A decrypt
// failure surfaces here rather than as a silent logout.
func NewStoreChecker(store session.Store) Checker {
	return &storeChecker{store: store}
}

func (c *storeChecker) Name() string { return "session-store" }

func (c *storeChecker) Check(ctx context.Context) *Result {
	_, ok, err := c.store.Get(ctx, session.KeyToken)
	if err != nil {
		return Unhealthy("session store unreadable").WithDetail("error", err.Error())
	}
	if !ok {
		return Healthy("no session stored").WithDetail("session", "none")
	}
	return Healthy("session stored").WithDetail("session", "active")
}

type tokenChecker struct {
	manager *session.Manager
	now     func() time.Time
}

// NewTokenChecker reports a stored JWT whose expiry has passed. Opaque
// tokens and anonymous sessions are healthy.
func NewTokenChecker(m *session.Manager, now func() time.Time) Checker {
	if now == nil {
		now = time.Now
	}
	return &tokenChecker{manager: m, now: now}
}

func (c *tokenChecker) Name() string { return "session-token" }

func (c *tokenChecker) Check(ctx context.Context) *Result {
	if !c.manager.IsAuthenticated(ctx) {
		return Healthy("not logged in")
	}
	info, ok := c.manager.InspectToken(ctx)
	if !ok || info.ExpiresAt.IsZero() {
		return Healthy("token has no readable expiry")
	}
	if info.Expired(c.now()) {
		return Degraded("token expired; log in again").
			WithDetail("expires_at", info.ExpiresAt.Format(time.RFC3339))
	}
	return Healthy("token valid").
		WithDetail("expires_at", info.ExpiresAt.Format(time.RFC3339))
}
