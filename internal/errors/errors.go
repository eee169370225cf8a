// Package errors provides a lightweight structured error type (SitePressError)
// for category-based classification across the build pipeline and CLI.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a SitePress error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig ErrorCategory = "config"

	// Content pipeline errors
	CategoryContent ErrorCategory = "content"
	CategoryPlugin  ErrorCategory = "plugin"

	// Build and post-build errors
	CategoryBundler    ErrorCategory = "bundler"
	CategoryPublish    ErrorCategory = "publish"
	CategoryFileSystem ErrorCategory = "filesystem"

	// Runtime and infrastructure errors
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
)

// SitePressError is a structured error with category, severity, and context
type SitePressError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for SitePressError
type ContextFields map[string]any

// Error implements the error interface
func (e *SitePressError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *SitePressError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *SitePressError) WithContext(key string, value any) *SitePressError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new SitePressError
func New(category ErrorCategory, severity ErrorSeverity, message string) *SitePressError {
	return &SitePressError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new SitePressError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *SitePressError {
	return &SitePressError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// ConfigError creates a fatal configuration error. Config errors abort the
// build before the bundler is ever invoked.
func ConfigError(message string) *SitePressError {
	return &SitePressError{
		Category: CategoryConfig,
		Severity: SeverityFatal,
		Message:  message,
	}
}

// BundlerError wraps a fatal compiler error reported by the bundler.
func BundlerError(err error, message string) *SitePressError {
	return &SitePressError{
		Category: CategoryBundler,
		Severity: SeverityFatal,
		Message:  message,
		Cause:    err,
	}
}

// PublishError wraps a hosting-push failure. The compile already succeeded at
// this point, so publish errors are reported but never abort the run.
func PublishError(err error, message string) *SitePressError {
	return &SitePressError{
		Category: CategoryPublish,
		Severity: SeverityError,
		Message:  message,
		Cause:    err,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if spe, ok := err.(*SitePressError); ok {
		return spe.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a SitePressError
func GetCategory(err error) ErrorCategory {
	if spe, ok := err.(*SitePressError); ok {
		return spe.Category
	}
	return CategoryInternal
}
