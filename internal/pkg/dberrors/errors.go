package dberrors

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn" // Import pgconn for PgError
)

// PostgreSQL SQLSTATE codes the store reacts to
const (
	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
	CodeCheckViolation      = "23514"
)

// Constraint names declared by the schema
const (
	ConstraintEnrollmentsPK      = "pk_enrollments"
	ConstraintEnrollmentsStudent = "fk_enrollments_student"
	ConstraintEnrollmentsCourse  = "fk_enrollments_course"
	ConstraintStudentsEmail      = "uq_students_email"
)

// Store level error kinds
var (
	ErrUniqueViolation     = errors.New("unique constraint violation")
	ErrForeignKeyViolation = errors.New("foreign key violation")
	ErrCheckViolation      = errors.New("check constraint violation")
	ErrUnavailable         = errors.New("database unavailable")
	ErrVersionConflict     = errors.New("row version conflict")
)

// ConstraintError reports a write rejected by a named constraint.
type ConstraintError struct {
	Kind       error
	Constraint string
	Err        error
}

// NewConstraintError builds a constraint error without an underlying driver error.
// The in-memory store uses it to mimic PostgreSQL.
func NewConstraintError(kind error, constraint string) *ConstraintError {
	return &ConstraintError{Kind: kind, Constraint: constraint}
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Constraint)
}

// Unwrap exposes the kind and, when present, the driver error.
func (e *ConstraintError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Classify maps a driver error onto the store level kinds. Errors it does
// not recognize are returned unchanged; nil stays nil.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var classified *ConstraintError
	if errors.As(err, &classified) || errors.Is(err, ErrUnavailable) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case CodeUniqueViolation:
			return &ConstraintError{Kind: ErrUniqueViolation, Constraint: pgErr.ConstraintName, Err: err}
		case CodeForeignKeyViolation:
			return &ConstraintError{Kind: ErrForeignKeyViolation, Constraint: pgErr.ConstraintName, Err: err}
		case CodeCheckViolation:
			return &ConstraintError{Kind: ErrCheckViolation, Constraint: pgErr.ConstraintName, Err: err}
		}
		return err
	}

	if IsUnavailable(err) {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}

// IsUnavailable reports whether err means the database could not be reached.
// Context cancellation by the caller is not treated as unavailability.
func IsUnavailable(err error) bool {
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// IsConstraint reports whether err is a violation of the named constraint.
func IsConstraint(err error, kind error, constraintName string) bool {
	var cErr *ConstraintError
	return errors.As(err, &cErr) && errors.Is(cErr.Kind, kind) && cErr.Constraint == constraintName
}

// IsDuplicateConstraintError checks if the error is a unique violation
// for a specific constraint.
func IsDuplicateConstraintError(err error, constraintName string) bool {
	if IsConstraint(err, ErrUniqueViolation, constraintName) {
		return true
	}
	var pgErr *pgconn.PgError
	// Check if the error is a PgError, if the code is unique_violation (23505),
	// and if the constraint name matches the provided one.
	return errors.As(err, &pgErr) && pgErr.Code == CodeUniqueViolation && pgErr.ConstraintName == constraintName
}
