package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/vango-dev/evalboard/pkg/router"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig     Category = "config"
	CategoryNavigation Category = "navigation"
	CategoryCLI        Category = "cli"
)

// Error is a structured error with a code, hint and documentation link.
type Error struct {
	// Code is a unique error identifier (e.g., "E101").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// File is the configuration file involved, if any.
	File string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Wrapped
}

// WithFile records the file the error relates to.
func (e *Error) WithFile(path string) *Error {
	e.File = path
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *Error) WithSuggestion(s string) *Error {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *Error) WithDetail(d string) *Error {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *Error) Wrap(err error) *Error {
	e.Wrapped = err
	return e
}

// New creates an Error from a registered error code.
func New(code string) *Error {
	template, ok := registry[code]
	if !ok {
		return &Error{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &Error{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
	}
}

// Newf creates an Error with a formatted message and no code.
func Newf(category Category, format string, args ...any) *Error {
	return &Error{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps err in an Error with the given code.
// An err that already is an *Error is returned unchanged.
func FromError(err error, code string) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	return New(code).Wrap(err)
}

// FromNavigation maps a router error to its registered code.
func FromNavigation(err error) *Error {
	if err == nil {
		return nil
	}

	code := "E202"
	switch {
	case stderrors.Is(err, router.ErrInvalidConfig):
		code = "E104"
	case stderrors.Is(err, router.ErrRouteNotFound):
		code = "E200"
	case stderrors.Is(err, router.ErrRedirectLoop):
		code = "E201"
	case stderrors.Is(err, router.ErrGuardTimeout):
		code = "E203"
	}
	return New(code).WithDetail(err.Error()).Wrap(err)
}
