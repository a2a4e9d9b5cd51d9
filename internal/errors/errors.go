// Package errors provides a lightweight structured error type (SiteError)
// for category-based classification and retry semantics across the generation
// pipeline, its HTTP adapters, and the CLI.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of a pipeline error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Tenant resolution errors
	CategoryTenant ErrorCategory = "tenant"

	// Upstream backend API errors
	CategoryUpstream ErrorCategory = "upstream"
	CategoryNetwork  ErrorCategory = "network"

	// Generation and serving errors
	CategoryContent ErrorCategory = "content"
	CategorySitemap ErrorCategory = "sitemap"
	CategoryStore   ErrorCategory = "store"

	// Runtime and infrastructure errors
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorCode identifies the specific failure condition within a category.
type ErrorCode string

const (
	CodeUnresolvedHost  ErrorCode = "UNRESOLVED_HOST"
	CodeUpstreamTimeout ErrorCode = "UPSTREAM_TIMEOUT"
	CodeUpstream5xx     ErrorCode = "UPSTREAM_5XX"
	CodeUpstream4xx     ErrorCode = "UPSTREAM_4XX"
	CodeMissingProfile  ErrorCode = "MISSING_PROFILE"
	CodeDegradedCatalog ErrorCode = "DEGRADED_CATALOG"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// SiteError is a structured error with category, code, retryability, and context
type SiteError struct {
	Category  ErrorCategory `json:"category"`
	Code      ErrorCode     `json:"code,omitempty"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for SiteError
type ContextFields map[string]any

// Error implements the error interface
func (e *SiteError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *SiteError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *SiteError) WithContext(key string, value any) *SiteError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// WithCode sets the error code.
func (e *SiteError) WithCode(code ErrorCode) *SiteError {
	e.Code = code
	return e
}

// New creates a new SiteError
func New(category ErrorCategory, severity ErrorSeverity, message string) *SiteError {
	return &SiteError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: false,
	}
}

// Wrap creates a new SiteError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *SiteError {
	return &SiteError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}

// Retryable creates a new retryable SiteError
func Retryable(category ErrorCategory, severity ErrorSeverity, message string) *SiteError {
	return &SiteError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: true,
	}
}

// WrapRetryable creates a new retryable SiteError that wraps an existing error
func WrapRetryable(err error, category ErrorCategory, severity ErrorSeverity, message string) *SiteError {
	return &SiteError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: true,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if se, ok := err.(*SiteError); ok {
		return se.Category == category
	}
	return false
}

// IsCode checks if an error carries a specific pipeline code.
func IsCode(err error, code ErrorCode) bool {
	if se, ok := err.(*SiteError); ok {
		return se.Code == code
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if se, ok := err.(*SiteError); ok {
		return se.Retryable
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not a SiteError
func GetCategory(err error) ErrorCategory {
	if se, ok := err.(*SiteError); ok {
		return se.Category
	}
	return CategoryInternal
}

// GetCode extracts the pipeline code from an error, empty when unclassified.
func GetCode(err error) ErrorCode {
	if se, ok := err.(*SiteError); ok {
		return se.Code
	}
	return ""
}
