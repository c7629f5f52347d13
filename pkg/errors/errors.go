// Copyright © 2018 One Concern

// Package errors augments the standard errors
// provided by fmt (https://golang.org/src/fmt/errors.go)
// with a Wrap() method to wrap errors without resorting
// to fmt.Errorf("%w", err).
package errors

import (
	stderr "errors"
	"fmt"

	"go.uber.org/zap"
)

var _ error = New("")

// New Error
func New(msg string) *Error {
	return &Error{msg: msg}
}

// Error augments the standard error interface with a Wrap method.
//
// The main difference with github.com/pkg/errors is that we are wrapping
// errors from errors, not from text.
//
// Wrapping never mutates the receiver: sentinel errors may be wrapped
// concurrently and still match with Is.
type Error struct {
	msg  string
	err  error
	base *Error
}

// Error message, followed by the nested error if any
func (e *Error) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

// Unwrap nested error
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.err
}

func (e *Error) root() *Error {
	if e.base != nil {
		return e.base
	}
	return e
}

// Wrap a nested error
func (e *Error) Wrap(err error) *Error {
	return &Error{msg: e.msg, err: err, base: e.root()}
}

// WrapMessage adds some formatted context to the error message
func (e *Error) WrapMessage(format string, args ...interface{}) *Error {
	return &Error{
		msg:  e.msg + ": " + fmt.Sprintf(format, args...),
		err:  e.err,
		base: e.root(),
	}
}

// WrapWithLog wraps a nested error and logs it as a warning with some extra fields
func (e *Error) WrapWithLog(l *zap.Logger, err error, fields ...zap.Field) *Error {
	if l != nil {
		if err != nil {
			fields = append(fields, zap.Error(err))
		}
		l.Warn(e.msg, fields...)
	}
	return e.Wrap(err)
}

// Is of some error type?
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e == t || e.root() == t
}

// As finds the first error in err's chain that matches target, and if so, sets target to that error value and returns true.
// (a shortcut to standard lib errors.As)
func As(err error, target interface{}) bool {
	return stderr.As(err, target)
}

// Is reports whether any error in err's chain matches target
// (a shortcut to standard lib errors.Is)
func Is(err, target error) bool {
	return stderr.Is(err, target)
}
