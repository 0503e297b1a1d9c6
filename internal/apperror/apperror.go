// Package apperror carries typed, transport-agnostic errors through the
// service layer. The HTTP boundary maps a Kind to a status code; services
// never import echo.
package apperror

import (
	"errors"
	"net/http"
)

type Kind int

const (
	Validation Kind = iota
	Unauthenticated
	Forbidden
	NotFound
	Conflict
	Internal
)

func (k Kind) Status() int {
	switch k {
	case Validation:
		return http.StatusBadRequest
	case Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type Error struct {
	Kind    Kind
	Message string
	Errs    []string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// From extracts an *Error from err's chain; unknown errors collapse to
// Internal so that no database detail leaks to a client.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return &Error{Kind: Internal, Message: "internal server error", cause: err}
}
