package ux

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"

	kerrors "github.com/felixgeelhaar/kavach/internal/errors"
	"github.com/felixgeelhaar/kavach/internal/gateway"
)

func TestEnhanceError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantTip string
	}{
		{"forbidden", &gateway.APIError{Status: 403, Message: "Forbidden"}, "--as employee"},
		{"not found", &gateway.APIError{Status: 404, Message: "Claim not found"}, "kavach claims list"},
		{"validation", &gateway.APIError{Status: 422, Message: "field required"}, "--help"},
		{"server", &gateway.APIError{Status: 503, Message: "down"}, "kavach health"},
		{"refused", stderrors.New("dial tcp 127.0.0.1:8000: connect: connection refused"), "api.base_url"},
		{"tls", stderrors.New("x509: certificate signed by unknown authority"), "certificate"},
		{"permission", stderrors.New("open /root/.kavach/session.json: permission denied"), "session.path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enhanced := EnhanceError(tt.err)

			var ews *ErrorWithSuggestion
			assert.True(t, stderrors.As(enhanced, &ews))
			assert.Contains(t, ews.Suggestion, tt.wantTip)
			assert.True(t, stderrors.Is(enhanced, tt.err))
		})
	}
}

func TestEnhanceErrorPassThrough(t *testing.T) {
	assert.Nil(t, EnhanceError(nil))

	coded := kerrors.NewAuthExpiredError()
	assert.Same(t, coded, EnhanceError(coded))

	plain := &gateway.APIError{Status: 400, Message: "Invalid claim"}
	assert.Equal(t, error(plain), EnhanceError(plain))

	other := stderrors.New("something else")
	assert.Equal(t, other, EnhanceError(other))
}

func TestErrorWithSuggestion(t *testing.T) {
	assert.Nil(t, NewErrorWithSuggestion(nil, "x"))

	base := stderrors.New("base")
	err := NewErrorWithSuggestion(base, "do this")
	assert.Equal(t, "base\n\n💡 Suggestion: do this", err.Error())
	assert.Equal(t, "base", NewErrorWithSuggestion(base, "").Error())
}
