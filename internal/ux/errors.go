package ux

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	kerrors "github.com/felixgeelhaar/kavach/internal/errors"
	"github.com/felixgeelhaar/kavach/internal/gateway"
)

// ErrorWithSuggestion wraps an error with helpful recovery suggestions
type ErrorWithSuggestion struct {
	Err        error
	Suggestion string
}

func (e *ErrorWithSuggestion) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%v\n\n💡 Suggestion: %s", e.Err, e.Suggestion)
	}
	return e.Err.Error()
}

func (e *ErrorWithSuggestion) Unwrap() error {
	return e.Err
}

// NewErrorWithSuggestion creates a new error with a suggestion
func NewErrorWithSuggestion(err error, suggestion string) error {
	if err == nil {
		return nil
	}
	return &ErrorWithSuggestion{
		Err:        err,
		Suggestion: suggestion,
	}
}

// EnhanceError adds a recovery suggestion based on what failed. Coded
// errors already carry their own suggestions and are returned unchanged.
func EnhanceError(err error) error {
	if err == nil {
		return nil
	}

	var kerr *kerrors.KavachError
	if stderrors.As(err, &kerr) && len(kerr.Suggestions) > 0 {
		return err
	}

	var apiErr *gateway.APIError
	if stderrors.As(err, &apiErr) {
		switch {
		case apiErr.Status == http.StatusForbidden:
			return NewErrorWithSuggestion(err,
				"This action needs a different role; log in with 'kavach auth login --as employee'")
		case apiErr.Status == http.StatusNotFound:
			return NewErrorWithSuggestion(err,
				"Check the id, or list what exists with 'kavach claims list'")
		case apiErr.Status == http.StatusUnprocessableEntity:
			return NewErrorWithSuggestion(err,
				"The server rejected the request fields; run the command with --help to see required flags")
		case apiErr.Status >= 500:
			return NewErrorWithSuggestion(err,
				"The portal backend failed; run 'kavach health' and try again later")
		}
		return err
	}

	errMsg := err.Error()

	if strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "no such host") {
		return NewErrorWithSuggestion(err,
			"Check api.base_url with 'kavach config get api.base_url'")
	}

	if strings.Contains(errMsg, "x509") || strings.Contains(errMsg, "tls:") {
		return NewErrorWithSuggestion(err,
			"The portal certificate was rejected; verify api.base_url uses the right host")
	}

	if strings.Contains(errMsg, "permission denied") {
		return NewErrorWithSuggestion(err,
			"Check permissions on ~/.kavach or set session.path to a writable location")
	}

	return err
}
