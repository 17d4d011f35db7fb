package errors

import (
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeInteraction          ErrorType = "INTERACTION"
	ErrTypeDownloadTimeout      ErrorType = "DOWNLOAD_TIMEOUT"
	ErrTypeEnumerationExhausted ErrorType = "ENUMERATION_EXHAUSTED"
	ErrTypeEmptyResult          ErrorType = "EMPTY_RESULT"
	ErrTypeParsing              ErrorType = "PARSING"
	ErrTypeStorage              ErrorType = "STORAGE"
	ErrTypeValidation           ErrorType = "VALIDATION"
	ErrTypeConfig               ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any AppError of the same type, so the sentinels below
// work with errors.Is regardless of message or cause.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// Sentinels for errors.Is checks
var (
	ErrInteraction          = &AppError{Type: ErrTypeInteraction, Message: "dashboard interaction failed"}
	ErrDownloadTimeout      = &AppError{Type: ErrTypeDownloadTimeout, Message: "export download timed out"}
	ErrEnumerationExhausted = &AppError{Type: ErrTypeEnumerationExhausted, Message: "funding agency selection failed permanently"}
	ErrEmptyResult          = &AppError{Type: ErrTypeEmptyResult, Message: "no data collected"}
)

// NewInteractionError creates a transient dashboard interaction error
func NewInteractionError(action string, cause error) *AppError {
	return NewAppError(ErrTypeInteraction, action, cause).WithContext("action", action)
}

// NewDownloadTimeoutError creates a download timeout error for one export
func NewDownloadTimeoutError(path string) *AppError {
	return NewAppError(ErrTypeDownloadTimeout, fmt.Sprintf("export %s did not complete", path), nil).
		WithContext("path", path)
}

// NewEnumerationExhaustedError wraps the last interaction failure once the retry budget is spent
func NewEnumerationExhaustedError(attempts int, cause error) *AppError {
	return NewAppError(ErrTypeEnumerationExhausted,
		fmt.Sprintf("funding agency selection failed after %d attempts", attempts), cause).
		WithContext("attempts", attempts)
}

// NewEmptyResultError creates the zero-record finalize error
func NewEmptyResultError(combinations int) *AppError {
	return NewAppError(ErrTypeEmptyResult,
		fmt.Sprintf("no data collected across %d combinations", combinations), nil).
		WithContext("combinations", combinations)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// IsType reports whether err is, or wraps, an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && appErr.Type == errType {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
