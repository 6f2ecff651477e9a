package store

import (
	"fmt"
	"net/http"
)

// Error is a store error carrying the HTTP status the API layer should use.
type Error struct {
	Code    int    // HTTP status code
	Message string // User-facing message
	Err     error  // Underlying error (optional)
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same code and message, so wrapped
// copies made by WithCause still satisfy errors.Is against the sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// HTTPCode returns the HTTP status code associated with this error.
func (e *Error) HTTPCode() int { return e.Code }

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Err:     err,
	}
}

// Sentinel errors.
var (
	ErrInstanceNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "Instance not found",
	}

	ErrCommentNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "Comment not found",
	}

	ErrClosed = &Error{
		Code:    http.StatusServiceUnavailable,
		Message: "store is closed",
	}
)
