package services

import (
	"errors"
	"fmt"

	"reflection-garden/repository"
)

// Kind classifies a failure for the caller.
type Kind string

const (
	KindValidation    Kind = "validation"
	KindAuthorization Kind = "authorization"
	KindNotFound      Kind = "not_found"
	// KindPersistence marks a failed commit; the action left no trace and
	// the caller may retry.
	KindPersistence Kind = "persistence"
)

// Error is the typed failure returned by every service action.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err carries kind.
func IsKind(err error, kind Kind) bool {
	var se *Error
	return errors.As(err, &se) && se.Kind == kind
}

func validationErr(op, msg string) error {
	return &Error{Kind: KindValidation, Op: op, Msg: msg}
}

func forbidden(op, msg string) error {
	return &Error{Kind: KindAuthorization, Op: op, Msg: msg}
}

func notFoundErr(op, msg string, err error) error {
	return &Error{Kind: KindNotFound, Op: op, Msg: msg, Err: err}
}

// classify turns a repository error into a typed one. Errors that are
// already typed pass through.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	if errors.Is(err, repository.ErrNotFound) {
		return &Error{Kind: KindNotFound, Op: op, Msg: "not found", Err: err}
	}
	return &Error{Kind: KindPersistence, Op: op, Msg: "storage failure", Err: err}
}
