// Package errhandling defines the error taxonomy shared by every view operation.
// Each failure carries a Kind so callers (and the HTTP layer) can react to the
// category without parsing messages.
package errhandling

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	KindUnknown             Kind = "Unknown"
	KindNoDataLoaded        Kind = "NoDataLoaded"
	KindColumnNotFound      Kind = "ColumnNotFound"
	KindCastError           Kind = "CastError"
	KindUnsupportedOperator Kind = "UnsupportedOperator"
	KindLockError           Kind = "LockError"
	KindLoadError           Kind = "LoadError"
	KindInvalidRequest      Kind = "InvalidRequest"
)

// Sentinels for errors.Is. Any *Error of the same kind matches.
var (
	ErrNoDataLoaded        = &Error{Kind: KindNoDataLoaded, Message: "no data loaded"}
	ErrColumnNotFound      = &Error{Kind: KindColumnNotFound, Message: "column not found"}
	ErrCastError           = &Error{Kind: KindCastError, Message: "cast failed"}
	ErrUnsupportedOperator = &Error{Kind: KindUnsupportedOperator, Message: "unsupported operator"}
	ErrLockError           = &Error{Kind: KindLockError, Message: "lock unavailable"}
	ErrLoadError           = &Error{Kind: KindLoadError, Message: "load failed"}
	ErrInvalidRequest      = &Error{Kind: KindInvalidRequest, Message: "invalid request"}
)

// Error is a classified failure with a human-readable message.
type Error struct {
	// Kind is the failure category.
	Kind Kind
	// Op names the operation that failed (sort, filter, group, load, ...). May be empty.
	Op string
	// Message is the human-readable description.
	Message string
	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg = msg + ": " + e.Err.Error()
		}
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports kind equality, so errors.Is(err, ErrColumnNotFound) matches any
// ColumnNotFound error regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// New creates a classified error with a formatted message.
func New(kind Kind, op string, format string, args ...any) *Error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{Kind: kind, Op: op, Message: msg}
}

// Wrap classifies err under kind. A nil err returns nil. An err that is already
// classified keeps its kind and only gains the op when it had none.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Op == "" && op != "" {
			cp := *e
			cp.Op = op
			return &cp
		}
		return e
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// ColumnNotFound is the common "no such column" failure.
func ColumnNotFound(op, column string) *Error {
	return New(KindColumnNotFound, op, "column %q not found", column)
}

// NoDataLoaded is returned by every operation that needs a table.
func NoDataLoaded(op string) *Error {
	return New(KindNoDataLoaded, op, "no data loaded")
}

// KindOf returns the kind of err, or KindUnknown when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
