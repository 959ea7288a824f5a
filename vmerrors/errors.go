// Package vmerrors defines the error taxonomy of spec.md §7. Every fatal
// condition the interpreter can hit is reported as a *VMError carrying one
// of these kinds, following the teacher's own convention of plain
// errors.New/fmt.Errorf chains rather than a panic/recover or exception
// style — there is no in-band exception object because the exception
// subsystem is out of scope (spec.md §7).
package vmerrors

import (
	"errors"
	"fmt"
)

// Kind enumerates the fatal error categories the interpreter can surface.
type Kind string

const (
	ClassNotFound       Kind = "ClassNotFound"
	MalformedClassFile  Kind = "MalformedClassFile"
	ClassNameMismatch   Kind = "ClassNameMismatch"
	MalformedConstPool  Kind = "MalformedConstantPool"
	MalformedMethod     Kind = "MalformedMethod"
	NoSuchField         Kind = "NoSuchField"
	NoSuchMethod        Kind = "NoSuchMethod"
	AmbiguousMethod     Kind = "AmbiguousMethod"
	TypeMismatch        Kind = "TypeMismatch"
	NullReference       Kind = "NullReference"
	OutOfBoundsIndex    Kind = "OutOfBoundsIndex"
	StackUnderflow      Kind = "StackUnderflow"
	FrameUnderflow      Kind = "FrameUnderflow"
	UnimplementedOpcode Kind = "UnimplementedOpcode"
	UnsupportedFeature  Kind = "UnsupportedFeature"
	InitializationFail  Kind = "InitializationFailed"
	DivisionByZero      Kind = "DivisionByZero"
)

// VMError is the concrete error type returned by every fallible operation
// in the interpreter.
type VMError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *VMError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *VMError) Unwrap() error { return e.Cause }

// New builds a VMError with no wrapped cause.
func New(kind Kind, format string, args ...any) *VMError {
	return &VMError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds a VMError that wraps an underlying cause.
func Wrap(kind Kind, cause error, format string, args ...any) *VMError {
	return &VMError{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether err is a *VMError of the given kind, unwrapping as
// needed (so a wrapped VMError still matches).
func Is(err error, kind Kind) bool {
	var ve *VMError
	if errors.As(err, &ve) {
		return ve.Kind == kind
	}
	return false
}
