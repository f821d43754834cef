package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for every way a request can fail
type ErrorCode string

const (
	// MalformedRequest indicates no recognized GET request line was read
	MalformedRequest ErrorCode = "MALFORMED_REQUEST"
	// MissingParameter indicates a required query key is absent or empty
	MissingParameter ErrorCode = "MISSING_PARAMETER"
	// TypeMismatch indicates a query value failed to parse as the expected type
	TypeMismatch ErrorCode = "TYPE_MISMATCH"
	// NotFound indicates a file or external query yielded nothing
	NotFound ErrorCode = "NOT_FOUND"
	// Forbidden indicates an external query failed its format precondition
	Forbidden ErrorCode = "FORBIDDEN"
	// UnrecognizedRoute indicates no route matched the path
	UnrecognizedRoute ErrorCode = "UNRECOGNIZED_ROUTE"
	// ExternalFetchFailure indicates the outbound API call failed
	ExternalFetchFailure ErrorCode = "EXTERNAL_FETCH_FAILURE"
	// InternalError indicates an unexpected failure (filesystem, storage, panic)
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// Usage describes the correct way to call a route
type Usage struct {
	Example     string `json:"example"`
	Explanation string `json:"explanation,omitempty"`
}

// RouteError is the error type returned by handlers. The dispatcher turns it
// into a response; handlers never build error pages themselves.
type RouteError struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Causes  []string    `json:"causes,omitempty"`
	Usage   *Usage      `json:"usage,omitempty"`
	cause   error       // Underlying error (not exported to JSON)
}

// NewRouteError creates a new RouteError
func NewRouteError(code ErrorCode, message string, cause error) *RouteError {
	return &RouteError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Error implements the error interface
func (e *RouteError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *RouteError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *RouteError) WithDetails(details interface{}) *RouteError {
	e.Details = details
	return e
}

// WithCauses sets the list of possible causes shown to the client
func (e *RouteError) WithCauses(causes ...string) *RouteError {
	e.Causes = causes
	return e
}

// WithUsage attaches the route's correct-use hint
func (e *RouteError) WithUsage(u *Usage) *RouteError {
	e.Usage = u
	return e
}

// As extracts a *RouteError from err's chain.
func As(err error) (*RouteError, bool) {
	var re *RouteError
	if stderrors.As(err, &re) {
		return re, true
	}
	return nil, false
}

// CodeOf returns the code of the first RouteError in err's chain, or
// InternalError for any other non-nil error.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	if re, ok := As(err); ok {
		return re.Code
	}
	return InternalError
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	return err != nil && CodeOf(err) == code
}
