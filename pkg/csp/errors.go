package csp

import (
	"errors"
	"fmt"
)

// Error is a protocol failure tagged with an error Status.
type Error struct {
	Status Status
	Info   string
	Err    error
}

// NewError creates an Error for an error status. It panics when status is
// not an error, since a successful status has nothing to report.
func NewError(status Status, info string) *Error {
	if !status.IsError() {
		panic(fmt.Sprintf("csp: %s is not an error status", status))
	}
	return &Error{Status: status, Info: info}
}

// Errorf creates an Error with a formatted info string.
func Errorf(status Status, format string, args ...any) *Error {
	return NewError(status, fmt.Sprintf(format, args...))
}

// WrapError creates an Error that wraps err.
func WrapError(status Status, err error, info string) *Error {
	e := NewError(status, info)
	e.Err = err
	return e
}

func (e *Error) Error() string {
	msg := e.Status.String()
	if e.Info != "" {
		msg += ": " + e.Info
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error carrying the same status.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Status == e.Status
}

// StatusOf extracts the Status from err. A nil error yields NoError and an
// error without a CSP status yields Internal.
func StatusOf(err error) Status {
	if err == nil {
		return NoError
	}
	var cspErr *Error
	if errors.As(err, &cspErr) {
		return cspErr.Status
	}
	return Internal
}
