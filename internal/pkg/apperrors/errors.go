package apperrors

import (
	"errors"
	"fmt"

	"github.com/yigit/enrollhub/internal/pkg/validation"
)

// Common errors
var (
	// Resource errors
	ErrResourceNotFound = errors.New("resource not found")

	// Authentication errors
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenInvalid     = errors.New("invalid token")
	ErrInvalidFormat    = errors.New("invalid token format")
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
)

// Lifecycle outcomes
var (
	// ErrDuplicateKey marks an attempt to create an enrollment whose key already exists.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrIntegrityDenied marks a parent delete blocked by dependent enrollments.
	ErrIntegrityDenied = errors.New("integrity denial")
	// ErrStaleState marks an update against a record changed or removed since it was read.
	ErrStaleState = errors.New("stale state")
	// ErrStoreUnavailable marks a persistence layer that could not be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Student Errors
var (
	ErrStudentNotFound = fmt.Errorf("student not found: %w", ErrResourceNotFound)
)

// Course Errors
var (
	ErrCourseNotFound = fmt.Errorf("course not found: %w", ErrResourceNotFound)
)

// Enrollment Errors
var (
	ErrEnrollmentNotFound = fmt.Errorf("enrollment not found: %w", ErrResourceNotFound)
)

// ValidationError carries every failed rule for a candidate record.
type ValidationError struct {
	Violations validation.Violations
	// Duplicate is set when the failure is a duplicate enrollment key,
	// whether caught by the pre-check or by the store.
	Duplicate bool
}

// NewValidationError wraps violations. Duplicate is derived from the violation rules.
func NewValidationError(violations validation.Violations) *ValidationError {
	return &ValidationError{
		Violations: violations,
		Duplicate:  violations.HasRule(validation.RuleDuplicate),
	}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidationFailed, e.Violations.Error())
}

// Unwrap exposes ErrValidationFailed, plus ErrDuplicateKey for duplicates.
func (e *ValidationError) Unwrap() []error {
	if e.Duplicate {
		return []error{ErrValidationFailed, ErrDuplicateKey}
	}
	return []error{ErrValidationFailed}
}

// IntegrityDenial reports a blocked delete of a student or course.
type IntegrityDenial struct {
	Entity      string
	ID          int64
	Enrollments int
	Reason      string
}

func (e *IntegrityDenial) Error() string {
	return fmt.Sprintf("cannot delete %s %d: %s", e.Entity, e.ID, e.Reason)
}

func (e *IntegrityDenial) Unwrap() error {
	return ErrIntegrityDenied
}

// Is returns whether target matches any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// NewPermissionDeniedError reports a caller whose role does not allow the operation
func NewPermissionDeniedError(message string) *CustomError {
	return NewCustomError(ErrPermissionDenied, message)
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// NewStaleStateError wraps ErrStaleState with the record it concerns.
func NewStaleStateError(message string) error {
	return &CustomError{
		Err:     ErrStaleState,
		Message: message,
	}
}
