package core

import (
	"errors"
	"fmt"
)

// SiteError represents a structured error with category and details
type SiteError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: bundle_exists, corrupt_metadata, etc.
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context (paths, variable names)
	Cause    error                  // Underlying error
}

// Error implements the error interface
func (e *SiteError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *SiteError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a SiteError with the same code, so derived
// copies still match the predefined sentinel they came from.
func (e *SiteError) Is(target error) bool {
	t, ok := target.(*SiteError)
	if !ok {
		return false
	}
	return e.Code != "" && e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause
func (e *SiteError) WithCause(cause error) *SiteError {
	return &SiteError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *SiteError) WithMessage(msg string) *SiteError {
	return &SiteError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// WithDetails returns a copy of the error with additional details
func (e *SiteError) WithDetails(details map[string]interface{}) *SiteError {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &SiteError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  merged,
		Cause:    e.Cause,
	}
}

// CategoryOf returns the category of the first SiteError in err's chain.
func CategoryOf(err error) ErrorCategory {
	var se *SiteError
	if errors.As(err, &se) {
		return se.Category
	}
	return ErrCategoryNone
}

// Predefined errors
var (
	// Config errors
	ErrMissingRequired = NewSiteError(ErrCategoryConfig, "missing_required", "missing required input")
	ErrInvalidConfig   = NewSiteError(ErrCategoryConfig, "invalid_config", "invalid configuration")
	ErrPageRootNotDir  = NewSiteError(ErrCategoryConfig, "page_root_not_dir", "page root is not a directory")
	ErrTemplateMissing = NewSiteError(ErrCategoryConfig, "template_missing", "landing page template does not exist")

	// Conflict errors
	ErrBundleExists = NewSiteError(ErrCategoryConflict, "bundle_exists", "report directory already exists")

	// I/O errors
	ErrSourceMissing = NewSiteError(ErrCategoryIO, "source_missing", "test report source is not a readable directory")
	ErrCopyFailed    = NewSiteError(ErrCategoryIO, "copy_failed", "copy test report")
	ErrReadFailed    = NewSiteError(ErrCategoryIO, "read_failed", "read page file")
	ErrWriteFailed   = NewSiteError(ErrCategoryIO, "write_failed", "write page file")

	// Corrupt-state errors
	ErrCorruptMetadata = NewSiteError(ErrCategoryCorrupt, "corrupt_metadata", "bundle metadata is not valid")
)

// NewSiteError creates a new SiteError with the given parameters
func NewSiteError(category ErrorCategory, code, message string) *SiteError {
	return &SiteError{
		Category: category,
		Code:     code,
		Message:  message,
	}
}
