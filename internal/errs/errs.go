// Package errs defines BioGuard's typed error-kind taxonomy. It collapses
// the exception hierarchy of the original implementation into a single
// tagged-variant error type that controllers map to status-coded
// responses.
package errs

import (
	"errors"
	"fmt"
)

// Kind identifies the category of a BioGuard error.
type Kind string

const (
	InvalidFormat Kind = "InvalidFormat"
	Validation    Kind = "Validation"
	NotFound      Kind = "NotFound"
	Conflict      Kind = "Conflict"
	CorruptedData Kind = "CorruptedData"
	Persistence   Kind = "Persistence"
	RouteNotFound Kind = "RouteNotFound"
	MalformedReq  Kind = "MalformedRequest"
	Unexpected    Kind = "Unexpected"
)

// categoryByKind names the TCP response category for each kind.
var categoryByKind = map[Kind]string{
	InvalidFormat: "InvalidFormat",
	Validation:    "ValidationError",
	NotFound:      "NotFound",
	Conflict:      "Conflict",
	CorruptedData: "InternalError",
	Persistence:   "InternalError",
	RouteNotFound: "RouteNotFound",
	MalformedReq:  "MalformedRequest",
	Unexpected:    "InternalError",
}

// statusByKind names the numeric status for each kind.
var statusByKind = map[Kind]int{
	InvalidFormat: 400,
	Validation:    400,
	NotFound:      404,
	Conflict:      409,
	CorruptedData: 500,
	Persistence:   500,
	RouteNotFound: 404,
	MalformedReq:  400,
	Unexpected:    500,
}

// Error is BioGuard's single error type. Message is the detail surfaced
// to the client for all kinds except CorruptedData/Persistence/Unexpected,
// which never leak detail (per the error handling design).
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Status returns the numeric status code associated with e's kind.
func (e *Error) Status() int { return statusByKind[e.Kind] }

// Category returns the response category associated with e's kind.
func (e *Error) Category() string { return categoryByKind[e.Kind] }

// StatusLine renders the standardized "[TCP][code][Category] msg" prefix.
// Detail-leaking kinds are replaced with the generic internal-error text.
func (e *Error) StatusLine() string {
	if e.Kind == CorruptedData || e.Kind == Persistence || e.Kind == Unexpected {
		return InternalErrorLine()
	}
	return fmt.Sprintf("[TCP][%d][%s] %s", e.Status(), e.Category(), e.Message)
}

// InternalErrorLine is the generic response line that never leaks detail.
func InternalErrorLine() string {
	return "[TCP][500][InternalError] Error interno del servidor"
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// As reports whether err is (or wraps) a *Error, returning it if so.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is reports whether err is (or wraps) a *Error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}
