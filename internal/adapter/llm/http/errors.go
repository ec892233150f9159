package http

import "fmt"

// ErrorType categorizes a provider transport failure.
type ErrorType int

const (
	ErrTypeAuthentication ErrorType = iota
	ErrTypeRateLimit
	ErrTypeServiceUnavailable
	ErrTypeInvalidRequest
	ErrTypeTimeout
	ErrTypeBadResponse
	ErrTypeUnknown
)

// String returns a human-readable description of the error type.
func (e ErrorType) String() string {
	switch e {
	case ErrTypeAuthentication:
		return "authentication error"
	case ErrTypeRateLimit:
		return "rate limit exceeded"
	case ErrTypeServiceUnavailable:
		return "service unavailable"
	case ErrTypeInvalidRequest:
		return "invalid request"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeBadResponse:
		return "unparseable response"
	default:
		return "unknown error"
	}
}

// Error is a provider transport error with retry classification.
type Error struct {
	Provider   string
	Type       ErrorType
	Message    string
	StatusCode int
	Retryable  bool
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %s (status: %d)", e.Provider, e.Type.String(), e.Message, e.StatusCode)
}

// Is matches errors of the same type, so callers can check categories
// with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// IsRetryable reports whether retrying the call may succeed.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// ClassifyStatus maps an HTTP status code to a typed error. Rate limits
// and server-side failures are retryable; client mistakes are not.
func ClassifyStatus(provider string, status int, message string) *Error {
	err := &Error{Provider: provider, StatusCode: status, Message: message}
	switch {
	case status == 401 || status == 403:
		err.Type = ErrTypeAuthentication
	case status == 429:
		err.Type = ErrTypeRateLimit
		err.Retryable = true
	case status >= 500:
		err.Type = ErrTypeServiceUnavailable
		err.Retryable = true
	case status >= 400:
		err.Type = ErrTypeInvalidRequest
	default:
		err.Type = ErrTypeUnknown
	}
	return err
}

// NewTimeoutError creates a retryable timeout error.
func NewTimeoutError(provider, message string) *Error {
	return &Error{Provider: provider, Type: ErrTypeTimeout, Message: message, Retryable: true}
}

// NewBadResponseError marks a response that did not decode against the
// expected schema. Not retryable: the provider answered, just badly.
func NewBadResponseError(provider, message string) *Error {
	return &Error{Provider: provider, Type: ErrTypeBadResponse, Message: message}
}
