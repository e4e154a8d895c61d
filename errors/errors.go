// Package errors defines the error taxonomy shared by the class-file reader,
// writer and stack-map engine. Every failure is reported as a single *Error
// carrying the accumulated location context in which it happened.
package errors

import (
	goerrors "errors"
	"fmt"
	"strings"
)

// Kind is the broad category of a failure.
type Kind int

const (
	// MalformedInput covers truncated streams, bad magic numbers, unsupported
	// versions, invalid modified UTF-8, bad constant tags and attribute length
	// mismatches.
	MalformedInput Kind = iota
	// ReferenceError indicates a constant-pool index that does not resolve to
	// the expected entry kind.
	ReferenceError
	// UnsupportedConstruct indicates an operand, jump or value that cannot be
	// encoded under the writer's rules.
	UnsupportedConstruct
	// VerifierConflict indicates incompatible stack-map frames at a
	// control-flow join.
	VerifierConflict
)

// String returns the string representation of the error kind.
func (k Kind) String() string {
	switch k {
	case MalformedInput:
		return "malformed input"
	case ReferenceError:
		return "reference error"
	case UnsupportedConstruct:
		return "unsupported construct"
	case VerifierConflict:
		return "verifier conflict"
	default:
		return "error"
	}
}

// Error is the single error type produced by this module. Where holds the
// human-readable location frames, outermost first, e.g.
// "reading class 'Foo' version 52.0", "method 'bar'", "method body".
type Error struct {
	Code    ErrorCode
	Message string
	Where   []string
	Cause   error
}

// New creates an error with the given code and formatted message.
func New(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Kind returns the category of the error, derived from its code.
func (e *Error) Kind() Kind {
	return e.Code.Kind()
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind().String())
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	if len(e.Where) > 0 {
		b.WriteString("\n\nwhere: ")
		b.WriteString(strings.Join(e.Where, " > "))
	}
	return b.String()
}

// Unwrap returns the underlying cause of the error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Location returns the location frames joined into a single string.
func (e *Error) Location() string {
	return strings.Join(e.Where, " > ")
}

// WithCause attaches an underlying cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// Wrapf pushes an outer location frame onto err. Errors that are not already
// an *Error are treated as malformed input, which is what a failing reader
// amounts to. A nil err yields nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	frame := fmt.Sprintf(format, args...)
	var e *Error
	if !goerrors.As(err, &e) {
		e = &Error{Code: E1001, Message: "read failed", Cause: err}
	}
	e.Where = append([]string{frame}, e.Where...)
	return e
}

// As reports whether err is, or wraps, an *Error.
func As(err error) (*Error, bool) {
	var e *Error
	if goerrors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err if it is, or wraps, an *Error.
func KindOf(err error) (Kind, bool) {
	if e, ok := As(err); ok {
		return e.Kind(), true
	}
	return 0, false
}

// HasCode reports whether err is, or wraps, an *Error with the given code.
func HasCode(err error, code ErrorCode) bool {
	e, ok := As(err)
	return ok && e.Code == code
}
