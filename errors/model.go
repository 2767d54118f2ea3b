package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode classifies a component model error.
type ErrorCode string

const (
	// ErrInvalidLiteral indicates a boolean or enumeration attribute value
	// that is not one of the declared literals.
	ErrInvalidLiteral ErrorCode = "invalid-literal"
	// ErrInvalidInteger indicates a non-numeric integer attribute value.
	ErrInvalidInteger ErrorCode = "invalid-integer"
	// ErrShapeMismatch indicates a typed value written to an attribute of a
	// different shape.
	ErrShapeMismatch ErrorCode = "shape-mismatch"
	// ErrUnknownAttribute indicates an attribute missing from the metadata table.
	ErrUnknownAttribute ErrorCode = "unknown-attribute"
	// ErrInvalidFacetValue indicates a facet value outside its allowed range.
	ErrInvalidFacetValue ErrorCode = "invalid-facet-value"
	// ErrNotInTransaction indicates a mutation outside a model transaction.
	ErrNotInTransaction ErrorCode = "not-in-transaction"
	// ErrChildNotAllowed indicates a child kind that cannot appear under the parent.
	ErrChildNotAllowed ErrorCode = "child-not-allowed"
	// ErrNotAChild indicates a removal of a component that is not a child.
	ErrNotAChild ErrorCode = "not-a-child"
	// ErrForeignComponent indicates a component created by another model.
	ErrForeignComponent ErrorCode = "foreign-component"
	// ErrModelClosed indicates use of a discarded model.
	ErrModelClosed ErrorCode = "model-closed"
	// ErrNotWellFormed indicates a document that failed to parse.
	ErrNotWellFormed ErrorCode = "not-well-formed"
)

// Error describes a component model failure with the offending component
// kind, attribute and value when known.
type Error struct {
	Code      ErrorCode
	Kind      string
	Attribute string
	Value     string
	Message   string
	Err       error
}

// Error formats the error for display, including code and context.
func (e *Error) Error() string {
	if e == nil {
		return "model error <nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Kind != "" {
		fmt.Fprintf(&b, " (kind: %s)", e.Kind)
	}
	if e.Attribute != "" {
		fmt.Fprintf(&b, " (attribute: %s)", e.Attribute)
	}
	if e.Value != "" {
		fmt.Fprintf(&b, " (value: %q)", e.Value)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another *Error with the same code, so callers can test with
// errors.Is(err, &Error{Code: ErrInvalidLiteral}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return t.Code == e.Code
}

// New builds an Error with a code and message.
func New(code ErrorCode, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Newf formats a message and builds an Error.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// AsError extracts the first *Error in err's chain.
func AsError(err error) (*Error, bool) {
	if err == nil {
		return nil, false
	}
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e, true
	}
	return nil, false
}

// HasCode reports whether err carries code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	e, ok := AsError(err)
	return ok && e.Code == code
}
