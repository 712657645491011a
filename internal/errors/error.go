// Package errors provides the structured error registry for the strand
// runtime. Every diagnostic the engine can raise has a stable E-code, a
// category, and a remediation hint, so embedders and the CLI can print
// actionable messages instead of bare strings.
package errors

import "fmt"

// Category represents the type of error.
type Category string

const (
	CategoryData      Category = "data"
	CategoryScheduler Category = "scheduler"
	CategoryEvent     Category = "event"
	CategoryConfig    Category = "config"
	CategoryCLI       Category = "cli"
)

// EngineError is a structured error with a registered code, category,
// and remediation hint.
type EngineError struct {
	// Code is a unique error identifier (e.g., "E001").
	Code string

	// Category is the error type (data, scheduler, ...).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *EngineError) Unwrap() error {
	return e.Wrapped
}

// WithSuggestion adds a fix suggestion to the error.
func (e *EngineError) WithSuggestion(s string) *EngineError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *EngineError) WithDetail(d string) *EngineError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *EngineError) Wrap(err error) *EngineError {
	e.Wrapped = err
	return e
}

// New creates an EngineError from a registered error code.
func New(code string) *EngineError {
	template, ok := registry[code]
	if !ok {
		return &EngineError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &EngineError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a new EngineError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *EngineError {
	return &EngineError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in an EngineError.
func FromError(err error, code string) *EngineError {
	if err == nil {
		return nil
	}
	if ee, ok := err.(*EngineError); ok {
		return ee
	}
	return New(code).Wrap(err)
}
