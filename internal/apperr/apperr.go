// Package apperr defines the error kinds surfaced by the testing engine.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that need to map it to a transport
// status or a user-facing message.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindInvalidState
	KindValidation
	KindTransientStorage
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidState:
		return "invalid_state"
	case KindValidation:
		return "validation"
	case KindTransientStorage:
		return "transient_storage"
	}
	return "unknown"
}

// Sentinels for errors.Is matching. Any *Error of the same kind matches.
var (
	ErrNotFound         = &Error{Kind: KindNotFound, Msg: "not found"}
	ErrInvalidState     = &Error{Kind: KindInvalidState, Msg: "invalid state"}
	ErrValidation       = &Error{Kind: KindValidation, Msg: "validation failed"}
	ErrTransientStorage = &Error{Kind: KindTransientStorage, Msg: "transient storage error"}
)

// Error is a classified error. Op names the operation that failed, Msg is a
// client-safe description, and Err is the optional underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NotFound returns a KindNotFound error.
func NotFound(op, format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// InvalidState returns a KindInvalidState error.
func InvalidState(op, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidState, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Validation returns a KindValidation error.
func Validation(op, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Transient wraps err as a retryable storage failure.
func Transient(op string, err error) *Error {
	return &Error{Kind: KindTransientStorage, Op: op, Msg: "storage temporarily unavailable", Err: err}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether a caller may safely retry the operation.
func IsRetryable(err error) bool {
	return KindOf(err) == KindTransientStorage
}
