// Package errors provides error types and handling for Cytomine client
// operations. It extends Go's standard error handling with operation
// context and a closed set of failure kinds so callers can branch on
// what went wrong rather than on message text.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a client operation error with context about the
// operation that failed. It wraps the underlying error with the request
// path for better debugging.
type Error struct {
	// Op is the operation that failed (e.g., "fetch", "save", "delete")
	Op string

	// Path is the request path relative to the API root (if applicable)
	Path string

	// Err is the underlying error
	Err error
}

// Error implements the error interface by providing a formatted error message.
func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("cytomine.%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("cytomine.%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error chaining support.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithPath adds request path context to an existing error.
func (e *Error) WithPath(path string) *Error {
	e.Path = path
	return e
}

// WithMessage wraps the underlying error with a custom message.
func (e *Error) WithMessage(message string) *Error {
	e.Err = fmt.Errorf("%s: %w", message, e.Err)
	return e
}

// NewError creates a new Error with the given operation and underlying error.
func NewError(op string, err error) *Error {
	return &Error{
		Op:  op,
		Err: err,
	}
}

// NewPathError creates a new Error with request path context.
func NewPathError(op, path string, err error) *Error {
	return &Error{
		Op:   op,
		Path: path,
		Err:  err,
	}
}

// Sentinel errors for the failure kinds the client distinguishes.
// These can be used with errors.Is() for error checking.
var (
	// ErrMissingIdentifier indicates that a resource verb was invoked on an
	// instance whose identifying attributes are not all present
	ErrMissingIdentifier = errors.New("cytomine: missing identifier")

	// ErrNotSupported indicates that the operation is not supported for the
	// resource kind, such as updating an immutable association
	ErrNotSupported = errors.New("cytomine: operation not supported")

	// ErrFilterNotAllowed indicates that a collection filter is outside the
	// kind's allowed filter set
	ErrFilterNotAllowed = errors.New("cytomine: filter not allowed")

	// ErrFilterRequired indicates that a collection kind cannot be fetched
	// without a filter
	ErrFilterRequired = errors.New("cytomine: filter required")

	// ErrUnresolvedPlaceholder indicates that a destination pattern references
	// an attribute the item does not carry
	ErrUnresolvedPlaceholder = errors.New("cytomine: unresolved destination placeholder")

	// ErrTransferFailed indicates that one or more items of a bulk transfer
	// could not be completed
	ErrTransferFailed = errors.New("cytomine: transfer failed")

	// ErrOwnerNotPersisted indicates that a domain-attached resource was
	// constructed over an owner that has never been saved or fetched
	ErrOwnerNotPersisted = errors.New("cytomine: owner not persisted")

	// ErrInvalidHost indicates that the configured host is empty or malformed
	ErrInvalidHost = errors.New("cytomine: invalid host")

	// ErrMissingCredentials indicates that the public or private key is empty
	ErrMissingCredentials = errors.New("cytomine: missing credentials")
)

// HTTPError represents a non-2xx response from the server. The status and
// message are surfaced unchanged; the client performs no retries and no
// translation of server failures.
type HTTPError struct {
	// StatusCode is the HTTP status returned by the server
	StatusCode int

	// Message is the response body or server-provided error message
	Message string
}

// Error implements the error interface by providing a formatted error message.
func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("cytomine: server returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("cytomine: server returned %d", e.StatusCode)
}

// NewHTTPError creates an HTTPError for the given status code and message.
func NewHTTPError(statusCode int, message string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
	}
}

// IsMissingIdentifier checks if an error indicates a verb was invoked
// without a resolvable identity.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsMissingIdentifier(err error) bool {
	return errors.Is(err, ErrMissingIdentifier)
}

// IsNotSupported checks if an error indicates an operation unsupported for
// the resource kind.
// This is a convenience function that handles both sentinel errors and wrapped errors.
func IsNotSupported(err error) bool {
	return errors.Is(err, ErrNotSupported)
}

// IsFilterNotAllowed checks if an error indicates a rejected collection filter.
func IsFilterNotAllowed(err error) bool {
	return errors.Is(err, ErrFilterNotAllowed)
}

// IsTransferFailed checks if an error indicates a partially or fully failed
// bulk transfer.
func IsTransferFailed(err error) bool {
	return errors.Is(err, ErrTransferFailed)
}

// IsNotFound checks if an error is a server response with status 404.
func IsNotFound(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.StatusCode == http.StatusNotFound
}

// IsUnauthorized checks if an error is a server response with status 401 or 403.
func IsUnauthorized(err error) bool {
	var he *HTTPError
	if !errors.As(err, &he) {
		return false
	}
	return he.StatusCode == http.StatusUnauthorized || he.StatusCode == http.StatusForbidden
}

// IsServerError checks if an error is a server response with a 5xx status.
func IsServerError(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.StatusCode >= http.StatusInternalServerError
}
