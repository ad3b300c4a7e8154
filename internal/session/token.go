package session

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what can be read from a bearer token without verifying it.
// Tokens are opaque to the client; these fields are informational only.
type TokenInfo struct {
	Subject   string    `json:"subject,omitempty"`
	IssuedAt  time.Time `json:"issued_at,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Expired reports whether the token carries an expiry in the past
func (t TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}

// InspectToken decodes the stored token if it is a JWT. ok is false when
// Anonymous or when the token is not a JWT.
func (m *Manager) InspectToken(ctx context.Context) (TokenInfo, bool) {
	token := m.Token(ctx)
	if token == "" {
		return TokenInfo{}, false
	}
	return parseTokenInfo(token)
}

func parseTokenInfo(token string) (TokenInfo, bool) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}, false
	}

	info := TokenInfo{Subject: claims.Subject}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, true
}
