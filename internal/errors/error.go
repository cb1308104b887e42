package errors

import (
	"fmt"
	"strings"
)

// Category represents the type of error.
type Category string

const (
	CategoryReconcile Category = "reconcile"
	CategoryApply     Category = "apply"
	CategoryProtocol  Category = "protocol"
	CategoryServer    Category = "server"
	CategoryConfig    Category = "config"
	CategoryCLI       Category = "cli"
)

// WeftError is a structured error with a stable code, an optional tree
// path and a fix suggestion.
type WeftError struct {
	// Code is a unique error identifier (e.g., "E001").
	Code string

	// Category is the error type (reconcile, protocol, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Path locates the error in the tree, as child indexes from the
	// root. Nil when the error has no tree location.
	Path []int

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *WeftError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *WeftError) Unwrap() error {
	return e.Wrapped
}

// PathString renders the tree path as "/1/0/4", or "" without one.
func (e *WeftError) PathString() string {
	if e.Path == nil {
		return ""
	}
	if len(e.Path) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, idx := range e.Path {
		fmt.Fprintf(&b, "/%d", idx)
	}
	return b.String()
}

// WithPath locates the error in the tree.
func (e *WeftError) WithPath(path []int) *WeftError {
	e.Path = path
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *WeftError) WithSuggestion(s string) *WeftError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *WeftError) WithDetail(d string) *WeftError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *WeftError) Wrap(err error) *WeftError {
	e.Wrapped = err
	return e
}

// New creates a WeftError from a registered error code.
func New(code string) *WeftError {
	template, ok := registry[code]
	if !ok {
		return &WeftError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &WeftError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
	}
}

// Newf creates a new WeftError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *WeftError {
	return &WeftError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a WeftError.
func FromError(err error, code string) *WeftError {
	if err == nil {
		return nil
	}
	if we, ok := err.(*WeftError); ok {
		return we
	}
	return New(code).Wrap(err)
}
