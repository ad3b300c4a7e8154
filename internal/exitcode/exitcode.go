package exitcode

import (
	stderrors "errors"
	"os"
	"strings"

	"github.com/felixgeelhaar/kavach/internal/errors"
)

// Exit codes for consistent error handling across the CLI
const (
	// Success indicates successful execution
	Success = 0

	// GeneralError indicates a general error condition
	GeneralError = 1

	// UsageError indicates invalid command usage (bad flags, missing args, etc.)
	UsageError = 2

	// APIError indicates the portal backend rejected the request
	APIError = 3

	// ContractDrift indicates the backend OpenAPI document disagrees with the endpoint registry
	ContractDrift = 4

	// AuthError indicates an authentication or authorization failure
	AuthError = 5

	// NetworkError indicates a network connectivity issue
	NetworkError = 6

	// Interrupted indicates the user cancelled the operation
	Interrupted = 130
)

// Exit terminates the program with the given exit code
func Exit(code int) {
	os.Exit(code)
}

// ExitWithError exits with an appropriate code based on error type
func ExitWithError(err error) {
	Exit(DetermineExitCode(err))
}

// DetermineExitCode maps an error to an exit code. Coded errors are mapped
// by code family; anything else falls back to message heuristics.
func DetermineExitCode(err error) int {
	if err == nil {
		return Success
	}

	var kerr *errors.KavachError
	if stderrors.As(err, &kerr) {
		code := string(kerr.Code)
		switch {
		case strings.HasPrefix(code, "AUTH-"):
			return AuthError
		case strings.HasPrefix(code, "NET-"):
			return NetworkError
		case kerr.Code == errors.ErrCodeAPIContractDrift:
			return ContractDrift
		case strings.HasPrefix(code, "API-"):
			return APIError
		case strings.HasPrefix(code, "CONFIG-"):
			return UsageError
		}
		return GeneralError
	}

	errMsg := strings.ToLower(err.Error())

	if strings.Contains(errMsg, "unauthorized") || strings.Contains(errMsg, "not logged in") {
		return AuthError
	}
	if strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "no such host") ||
		strings.Contains(errMsg, "timeout") {
		return NetworkError
	}
	if strings.Contains(errMsg, "unknown flag") || strings.Contains(errMsg, "unknown command") ||
		strings.Contains(errMsg, "required flag") || strings.Contains(errMsg, "accepts ") {
		return UsageError
	}

	return GeneralError
}

// GetExitCodeDescription returns a human-readable description of an exit code
func GetExitCodeDescription(code int) string {
	switch code {
	case Success:
		return "Success"
	case GeneralError:
		return "General error"
	case UsageError:
		return "Usage error (invalid flags, arguments or configuration)"
	case APIError:
		return "Portal API error"
	case ContractDrift:
		return "Endpoint registry drift"
	case AuthError:
		return "Authentication error"
	case NetworkError:
		return "Network error"
	case Interrupted:
		return "Interrupted"
	default:
		return "Unknown error"
	}
}
