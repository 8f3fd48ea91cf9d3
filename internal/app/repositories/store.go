package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/yigit/enrollhub/internal/app/models"
)

// DBTX is the query surface shared by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// StudentStore persists students.
//
// Missing rows are reported as apperrors.ErrStudentNotFound. Constraint
// failures come back as *dberrors.ConstraintError.
type StudentStore interface {
	Create(ctx context.Context, student *models.Student) error
	GetByID(ctx context.Context, id int64) (*models.Student, error)
	List(ctx context.Context, filter models.StudentFilter) ([]*models.Student, error)
	Update(ctx context.Context, student *models.Student) error
	// EmailInUse reports whether a student other than excludeID owns email,
	// compared case-insensitively.
	EmailInUse(ctx context.Context, email string, excludeID int64) (bool, error)
	// LockForDelete locks the student row for the rest of the transaction
	// and returns how many enrollments reference it.
	LockForDelete(ctx context.Context, id int64) (int, error)
	Delete(ctx context.Context, id int64) error
}

// CourseStore persists courses. It follows the StudentStore conventions
// with apperrors.ErrCourseNotFound for missing rows.
type CourseStore interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id int64) (*models.Course, error)
	List(ctx context.Context, filter models.CourseFilter) ([]*models.Course, error)
	Update(ctx context.Context, course *models.Course) error
	LockForDelete(ctx context.Context, id int64) (int, error)
	Delete(ctx context.Context, id int64) error
}

// EnrollmentStore persists enrollments keyed by (student, course).
type EnrollmentStore interface {
	// Create inserts the enrollment with version 1.
	Create(ctx context.Context, enrollment *models.Enrollment) error
	// Get returns apperrors.ErrEnrollmentNotFound when the key is absent.
	Get(ctx context.Context, key models.EnrollmentKey) (*models.Enrollment, error)
	// List orders by enrollment date, then student name.
	List(ctx context.Context, filter models.EnrollmentFilter) ([]*models.Enrollment, error)
	ListByStudent(ctx context.Context, studentID int64) ([]*models.Enrollment, error)
	ListByCourse(ctx context.Context, courseID int64) ([]*models.Enrollment, error)
	// Update writes the enrollment only if its stored version still equals
	// expectedVersion, otherwise dberrors.ErrVersionConflict. On success the
	// new version is set on enrollment.
	Update(ctx context.Context, enrollment *models.Enrollment, expectedVersion int64) error
	// Delete reports whether a row was removed.
	Delete(ctx context.Context, key models.EnrollmentKey) (bool, error)
}

// Store groups the entity stores over one connection or transaction.
type Store interface {
	Students() StudentStore
	Courses() CourseStore
	Enrollments() EnrollmentStore
	// WithinTx runs fn in a transaction. The Store handed to fn is bound to
	// it; returning an error rolls everything back. Nested calls join the
	// outer transaction.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
	Stats(ctx context.Context) (models.Stats, error)
	Ping(ctx context.Context) error
}
