package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrUnauthorized indicates that the caller is not authenticated.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden indicates that the caller is authenticated but lacks permission for the action
// or the record is outside the caller's visibility scope.
var ErrForbidden = errors.New("forbidden")

// AppError is a generic error carrying an HTTP-ish status code and an optional cause.
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

// NewAppError wraps err with a status code and message.
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// ValidationError holds one or more human readable validation messages.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationFailedError builds a ValidationError from the given messages.
func NewValidationFailedError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

// ConflictError reports a uniqueness violation on a single field.
type ConflictError struct {
	Field   string
	Message string
}

func (e *ConflictError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Field + " already in use"
}

// Is lets errors.Is(err, ErrDuplicate) match any ConflictError.
func (e *ConflictError) Is(target error) bool { return target == ErrDuplicate }

// NewConflictError creates a ConflictError with a free-form message.
func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

// NewFieldConflictError creates a ConflictError naming the duplicated field.
func NewFieldConflictError(field string) *ConflictError {
	return &ConflictError{Field: field, Message: field + " already in use"}
}

// NewNotFoundError wraps ErrNotFound with the name of the missing resource.
func NewNotFoundError(resource string) error {
	return fmt.Errorf("%s: %w", resource, ErrNotFound)
}

// NewForbiddenError wraps ErrForbidden with a reason.
func NewForbiddenError(reason string) error {
	return fmt.Errorf("%s: %w", reason, ErrForbidden)
}
