package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error codes for the extraction pipeline taxonomy.
const (
	CodeValidation   = "VALIDATION"
	CodeFetch        = "FETCH"
	CodePhaseTimeout = "PHASE_TIMEOUT"
	CodeProvider     = "PROVIDER"
	CodeStructuring  = "STRUCTURING"
	CodeTransport    = "TRANSPORT"
	CodeWatchdog     = "WATCHDOG"
)

// Common application errors
var (
	ErrValidation   = errors.New("validation failed")
	ErrFetch        = errors.New("source content unreachable")
	ErrPhaseTimeout = errors.New("phase timed out")
	ErrProvider     = errors.New("provider error")
	ErrStructuring  = errors.New("final structuring failed")
	ErrTransport    = errors.New("transport error")
	ErrWatchdog     = errors.New("watchdog timeout")
	ErrCancelled    = errors.New("job cancelled")
	ErrInternal     = errors.New("internal error")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

func ValidationError(message string) error {
	return NewAppError(CodeValidation, message, ErrValidation)
}

func FetchError(message string, cause error) error {
	if cause == nil {
		return NewAppError(CodeFetch, message, ErrFetch)
	}
	return NewAppError(CodeFetch, message, fmt.Errorf("%w: %w", ErrFetch, cause))
}

func ProviderError(message string, cause error) error {
	if cause == nil {
		return NewAppError(CodeProvider, message, ErrProvider)
	}
	return NewAppError(CodeProvider, message, fmt.Errorf("%w: %w", ErrProvider, cause))
}

func TransportError(message string, cause error) error {
	if cause == nil {
		return NewAppError(CodeTransport, message, ErrTransport)
	}
	return NewAppError(CodeTransport, message, fmt.Errorf("%w: %w", ErrTransport, cause))
}

// ErrorFromCode rebuilds an AppError from its wire form, reattaching the
// sentinel for the code so errors.Is works on reconstructed errors.
func ErrorFromCode(code, message string) error {
	var sentinel error
	switch code {
	case CodeValidation:
		sentinel = ErrValidation
	case CodeFetch:
		sentinel = ErrFetch
	case CodePhaseTimeout:
		sentinel = ErrPhaseTimeout
	case CodeProvider:
		sentinel = ErrProvider
	case CodeStructuring:
		sentinel = ErrStructuring
	case CodeTransport:
		sentinel = ErrTransport
	case CodeWatchdog:
		sentinel = ErrWatchdog
	default:
		sentinel = ErrInternal
	}
	return NewAppError(code, message, sentinel)
}

// IsValidation reports whether err is a fail-fast validation error.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsFetch reports whether err came from the source content fetch.
func IsFetch(err error) bool { return errors.Is(err, ErrFetch) }

// IsTransport reports whether err is a transport-level failure eligible
// for the retry/fallback path.
func IsTransport(err error) bool { return errors.Is(err, ErrTransport) }

// Code extracts the AppError code, or "" for plain errors.
func Code(err error) string {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}
