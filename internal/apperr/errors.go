// Package apperr defines the error kinds surfaced to bot users and operators.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an application error.
type Kind string

const (
	// Unauthorized is returned when a non-admin invokes an admin operation.
	Unauthorized Kind = "unauthorized"
	// NotFound is returned when a requested record does not exist.
	NotFound Kind = "not_found"
	// MalformedInput is returned when a command is missing or has a bad argument.
	MalformedInput Kind = "malformed_input"
	// TransportFailure is returned when an outbound Telegram call fails.
	TransportFailure Kind = "transport_failure"
)

// Error is a classified error carrying the failing operation name.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

// New builds an error of the given kind.
func New(kind Kind, op, msg string) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg}
}

// Wrap classifies err under kind. A nil err yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	detail := e.Msg
	if e.Err != nil {
		if detail != "" {
			detail += ": "
		}
		detail += e.Err.Error()
	}
	if detail == "" {
		detail = string(e.Kind)
	}
	if e.Op == "" {
		return detail
	}
	return fmt.Sprintf("%s: %s", e.Op, detail)
}

// Unwrap exposes the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Code reports the kind in the upper snake case used by handler logs.
func (e *Error) Code() string {
	switch e.Kind {
	case Unauthorized:
		return "UNAUTHORIZED"
	case NotFound:
		return "NOT_FOUND"
	case MalformedInput:
		return "MALFORMED_INPUT"
	case TransportFailure:
		return "TRANSPORT_FAILURE"
	}
	return "UNKNOWN_ERROR"
}

// KindOf extracts the kind of err, or "" when err is not classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// UserMessage converts err into the plain text shown to the user.
func UserMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return "An error occurred. Please try again or contact support."
	}
	switch e.Kind {
	case Unauthorized:
		return "Unauthorized access."
	case NotFound:
		if e.Msg != "" {
			return e.Msg
		}
		return "Record not found."
	case MalformedInput:
		if e.Msg != "" {
			return e.Msg
		}
		return "Invalid command arguments."
	case TransportFailure:
		return "Could not deliver the message. Please try again later."
	}
	return "An error occurred. Please try again or contact support."
}
