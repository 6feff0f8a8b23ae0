package types

import "fmt"

// ErrorCode represents a unified error code across flowgate.
type ErrorCode string

// Workflow error codes
const (
	ErrNotFound          ErrorCode = "NOT_FOUND"
	ErrInvalidState      ErrorCode = "INVALID_STATE"
	ErrUnknownStepType   ErrorCode = "UNKNOWN_STEP_TYPE"
	ErrDependencyCycle   ErrorCode = "DEPENDENCY_CYCLE"
	ErrInvalidDefinition ErrorCode = "INVALID_DEFINITION"
)

// LLM dispatch error codes
const (
	ErrProviderUnavailable  ErrorCode = "PROVIDER_UNAVAILABLE"
	ErrAllProvidersFailed   ErrorCode = "ALL_PROVIDERS_FAILED"
	ErrNoProvidersAvailable ErrorCode = "NO_PROVIDERS_AVAILABLE"
	ErrUpstreamError        ErrorCode = "UPSTREAM_ERROR"
	ErrInvalidRequest       ErrorCode = "INVALID_REQUEST"
	ErrUnauthorized         ErrorCode = "UNAUTHORIZED"
	ErrRateLimited          ErrorCode = "RATE_LIMITED"
	ErrQuotaExceeded        ErrorCode = "QUOTA_EXCEEDED"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Provider   string    `json:"provider,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewErrorf creates a new Error with a formatted message.
func NewErrorf(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithProvider sets the provider name.
func (e *Error) WithProvider(provider string) *Error {
	e.Provider = provider
	return e
}

// IsCode reports whether err is a *Error carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	for err != nil {
		if fe, ok := err.(*Error); ok && fe.Code == code {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if fe, ok := err.(*Error); ok {
		return fe.Retryable
	}
	return false
}
