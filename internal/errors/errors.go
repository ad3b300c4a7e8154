package errors

import (
	"fmt"
	"strings"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

// Error categories
const (
	// Authentication errors (AUTH-001 to AUTH-099)
	ErrCodeAuthRequired       ErrorCode = "AUTH-001"
	ErrCodeAuthExpired        ErrorCode = "AUTH-002"
	ErrCodeAuthLoginFailed    ErrorCode = "AUTH-003"
	ErrCodeAuthCategory       ErrorCode = "AUTH-004"
	ErrCodeAuthTokenMalformed ErrorCode = "AUTH-005"

	// Backend API errors (API-001 to API-099)
	ErrCodeAPIRequest         ErrorCode = "API-001"
	ErrCodeAPIResponse        ErrorCode = "API-002"
	ErrCodeAPIDecode          ErrorCode = "API-003"
	ErrCodeAPIUnknownEndpoint ErrorCode = "API-004"
	ErrCodeAPIContractDrift   ErrorCode = "API-005"

	// Network errors (NET-001 to NET-099)
	ErrCodeNetTransport ErrorCode = "NET-001"

	// Session store errors (STORE-001 to STORE-099)
	ErrCodeStoreRead    ErrorCode = "STORE-001"
	ErrCodeStoreWrite   ErrorCode = "STORE-002"
	ErrCodeStoreDecrypt ErrorCode = "STORE-003"
	ErrCodeStoreBackend ErrorCode = "STORE-004"

	// Configuration errors (CONFIG-001 to CONFIG-099)
	ErrCodeConfigInvalid ErrorCode = "CONFIG-001"
	ErrCodeConfigKey     ErrorCode = "CONFIG-002"

	// File I/O errors (IO-001 to IO-099)
	ErrCodeFileNotFound   ErrorCode = "IO-001"
	ErrCodeFileReadFailed ErrorCode = "IO-002"
	ErrCodeFileUnmarshal  ErrorCode = "IO-005"
)

// KavachError represents an enhanced error with code, suggestions, and documentation
type KavachError struct {
	Code        ErrorCode
	Message     string
	Suggestions []string
	DocsURL     string
	Cause       error
}

// Error implements the error interface
func (e *KavachError) Error() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf(": %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nSuggestions:")
		for _, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  • %s", suggestion))
		}
	}

	if e.DocsURL != "" {
		b.WriteString(fmt.Sprintf("\n\nDocumentation: %s", e.DocsURL))
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is and errors.As
func (e *KavachError) Unwrap() error {
	return e.Cause
}

// New creates a new KavachError
func New(code ErrorCode, message string) *KavachError {
	return &KavachError{
		Code:    code,
		Message: message,
	}
}

// Wrap creates a new KavachError wrapping an existing error
func Wrap(code ErrorCode, message string, cause error) *KavachError {
	return &KavachError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WithSuggestion adds a suggestion to the error
func (e *KavachError) WithSuggestion(suggestion string) *KavachError {
	e.Suggestions = append(e.Suggestions, suggestion)
	return e
}

// WithSuggestions adds multiple suggestions to the error
func (e *KavachError) WithSuggestions(suggestions ...string) *KavachError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// WithDocs adds a documentation URL to the error
func (e *KavachError) WithDocs(url string) *KavachError {
	e.DocsURL = url
	return e
}

// Common error constructors for frequently used errors

// NewAuthRequiredError is returned when a command needs a session and none exists.
func NewAuthRequiredError(category string) *KavachError {
	return New(ErrCodeAuthRequired, "not logged in").
		WithSuggestion(fmt.Sprintf("Run 'kavach auth login --as %s' to start a session", category))
}

// NewAuthExpiredError is returned after the backend rejected the stored token.
func NewAuthExpiredError() *KavachError {
	return New(ErrCodeAuthExpired, "session expired").
		WithSuggestion("Run 'kavach auth login' to authenticate again")
}

// NewUnknownCategoryError creates an error for an unsupported user category
func NewUnknownCategoryError(category string) *KavachError {
	return New(ErrCodeAuthCategory, fmt.Sprintf("unknown user category: %s", category)).
		WithSuggestion("Use one of: customer, employee")
}

// NewUnknownEndpointError creates an error for an unregistered endpoint name
func NewUnknownEndpointError(name string) *KavachError {
	return New(ErrCodeAPIUnknownEndpoint, fmt.Sprintf("unknown endpoint: %s", name)).
		WithSuggestion("Run 'kavach endpoints list' to see registered endpoints")
}

// NewTransportError wraps a network failure
func NewTransportError(url string, cause error) *KavachError {
	return Wrap(ErrCodeNetTransport, fmt.Sprintf("request to %s failed", url), cause).
		WithSuggestion("Check that the portal API is reachable (api.base_url)").
		WithSuggestion("Run 'kavach health' to probe the backend")
}

// NewStoreDecryptError is returned when the session file cannot be decrypted
func NewStoreDecryptError(path string, cause error) *KavachError {
	return Wrap(ErrCodeStoreDecrypt, fmt.Sprintf("failed to decrypt session store: %s", path), cause).
		WithSuggestion("Check KAVACH_SESSION_PASSPHRASE matches the one used at login").
		WithSuggestion("Delete the session file and log in again")
}

// NewConfigKeyError is returned for unknown configuration keys
func NewConfigKeyError(key string) *KavachError {
	return New(ErrCodeConfigKey, fmt.Sprintf("unknown configuration key: %s", key)).
		WithSuggestion("Run 'kavach config view' to list configuration keys")
}

// NewFileNotFoundError creates a file not found error
func NewFileNotFoundError(path string) *KavachError {
	return New(ErrCodeFileNotFound, fmt.Sprintf("file not found: %s", path)).
		WithSuggestion("Check if the file path is correct").
		WithSuggestion("Verify the file exists and you have read permissions")
}

// NewFileUnmarshalError creates an unmarshal error
func NewFileUnmarshalError(path string, format string, cause error) *KavachError {
	return Wrap(ErrCodeFileUnmarshal, fmt.Sprintf("failed to parse %s file: %s", format, path), cause).
		WithSuggestion("Check the file syntax and format").
		WithSuggestion(fmt.Sprintf("Ensure the file is valid %s", format))
}
