package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an operational error so the HTTP layer can map it to
// a status code without inspecting message text.
type Kind int

const (
	Unknown Kind = iota
	NotFound
	Forbidden
	Conflict
	Validation
	BadRequest
)

// Error is an expected, client-facing failure. It propagates unmodified
// from the services to the HTTP boundary.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func NotFoundf(format string, args ...any) *Error {
	return &Error{Kind: NotFound, Msg: fmt.Sprintf(format, args...)}
}

func Forbiddenf(format string, args ...any) *Error {
	return &Error{Kind: Forbidden, Msg: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) *Error {
	return &Error{Kind: Conflict, Msg: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: Validation, Msg: fmt.Sprintf(format, args...)}
}

func BadRequestf(format string, args ...any) *Error {
	return &Error{Kind: BadRequest, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or Unknown for anything that is not
// an *Error (storage failures, context cancellation and the like).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Unknown
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
