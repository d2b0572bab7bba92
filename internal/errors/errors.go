package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeInternal   = "INTERNAL_ERROR"
	ErrCodeBadRequest = "BAD_REQUEST"
	ErrCodeFormat     = "FORMAT_ERROR"
	ErrCodeSchema     = "SCHEMA_ERROR"
	ErrCodeCapacity   = "CAPACITY_ERROR"
	ErrCodeEmptyRun   = "EMPTY_RUN"
	ErrCodeIO         = "IO_ERROR"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	Code    string // Error code (e.g., "SCHEMA_ERROR", "EMPTY_RUN")
	Message string // Human-readable error message
	Status  int    // HTTP status code
	Err     error  // Wrapped underlying error (optional)
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error wrapping support
func (e *AppError) Unwrap() error {
	return e.Err
}

// As extracts an *AppError from err's chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}

// NewNotFoundError creates a new NOT_FOUND error
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", resource, id),
		Status:  http.StatusNotFound,
	}
}

// NewValidationError creates a new VALIDATION_ERROR
func NewValidationError(field string, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("validation failed for %s: %s", field, reason),
		Status:  http.StatusBadRequest,
	}
}

// NewInternalError creates a new INTERNAL_ERROR
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "internal server error",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// NewBadRequestError creates a new BAD_REQUEST error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// NewFormatError reports a bank that is not a JSON array of questions.
func NewFormatError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeFormat,
		Message: messageOf(err, "file is not a valid question bank"),
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

// NewSchemaError reports a malformed question entry.
func NewSchemaError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeSchema,
		Message: messageOf(err, "question bank entry is invalid"),
		Status:  http.StatusUnprocessableEntity,
		Err:     err,
	}
}

// NewCapacityError reports a file rejected before it was parsed.
func NewCapacityError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeCapacity,
		Message: messageOf(err, "file rejected"),
		Status:  http.StatusRequestEntityTooLarge,
		Err:     err,
	}
}

// NewEmptyRunError reports a start request with nothing to ask.
func NewEmptyRunError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeEmptyRun,
		Message: "no questions configured, load a question bank first",
		Status:  http.StatusConflict,
		Err:     err,
	}
}

// NewIOError reports an upload that could not be read.
func NewIOError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeIO,
		Message: "file could not be read",
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

func messageOf(err error, fallback string) string {
	if err == nil {
		return fallback
	}
	return err.Error()
}
