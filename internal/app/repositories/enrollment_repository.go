package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/enrollhub/internal/app/models"
	"github.com/yigit/enrollhub/internal/pkg/apperrors"
	"github.com/yigit/enrollhub/internal/pkg/dberrors"
)

// EnrollmentRepository handles database operations for enrollments
type EnrollmentRepository struct {
	db DBTX
}

// NewEnrollmentRepository creates a new EnrollmentRepository
func NewEnrollmentRepository(db DBTX) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Common select query for enrollments joined with student and course summaries
func (r *EnrollmentRepository) selectEnrollmentQuery() squirrel.SelectBuilder {
	return sb.Select(
		"e.student_id", "e.course_id", "e.enrolled_at", "e.price_paid", "e.status",
		"e.progress", "e.final_grade", "e.version",
		"s.name", "s.email", "c.title", "c.base_price",
	).From("enrollments e").
		Join("students s ON s.id = e.student_id").
		Join("courses c ON c.id = e.course_id")
}

func scanEnrollment(row pgx.Row) (*models.Enrollment, error) {
	var (
		e       models.Enrollment
		student models.Student
		course  models.Course
	)
	err := row.Scan(
		&e.StudentID, &e.CourseID, &e.EnrolledAt, &e.PricePaid, &e.Status,
		&e.Progress, &e.FinalGrade, &e.Version,
		&student.Name, &student.Email, &course.Title, &course.BasePrice,
	)
	if err != nil {
		return nil, err
	}
	student.ID = e.StudentID
	course.ID = e.CourseID
	e.EnrolledAt = e.EnrolledAt.UTC()
	e.Student = &student
	e.Course = &course
	return &e, nil
}

func keyWhere(key models.EnrollmentKey) squirrel.Eq {
	return squirrel.Eq{"student_id": key.StudentID, "course_id": key.CourseID}
}

// Create inserts a new enrollment with version 1
func (r *EnrollmentRepository) Create(ctx context.Context, e *models.Enrollment) error {
	sql, args, err := sb.Insert("enrollments").
		Columns("student_id", "course_id", "enrolled_at", "price_paid", "status", "progress", "final_grade", "version").
		Values(e.StudentID, e.CourseID, e.EnrolledAt, e.PricePaid, e.Status, e.Progress, e.FinalGrade, 1).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building create enrollment SQL: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return dberrors.Classify(err)
	}
	e.Version = 1
	return nil
}

// Get retrieves one enrollment by its composite key
func (r *EnrollmentRepository) Get(ctx context.Context, key models.EnrollmentKey) (*models.Enrollment, error) {
	sql, args, err := r.selectEnrollmentQuery().
		Where(squirrel.Eq{"e.student_id": key.StudentID, "e.course_id": key.CourseID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building get enrollment SQL: %w", err)
	}

	e, err := scanEnrollment(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrEnrollmentNotFound
		}
		return nil, dberrors.Classify(err)
	}
	return e, nil
}

// List retrieves enrollments ordered by date and student name
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]*models.Enrollment, error) {
	query := r.selectEnrollmentQuery()
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where(squirrel.Or{
			squirrel.ILike{"s.name": pattern},
			squirrel.ILike{"c.title": pattern},
		})
	}
	if filter.Status != nil {
		query = query.Where(squirrel.Eq{"e.status": *filter.Status})
	}
	return r.query(ctx, query)
}

// ListByStudent retrieves the enrollments of one student
func (r *EnrollmentRepository) ListByStudent(ctx context.Context, studentID int64) ([]*models.Enrollment, error) {
	return r.query(ctx, r.selectEnrollmentQuery().Where(squirrel.Eq{"e.student_id": studentID}))
}

// ListByCourse retrieves the enrollments of one course
func (r *EnrollmentRepository) ListByCourse(ctx context.Context, courseID int64) ([]*models.Enrollment, error) {
	return r.query(ctx, r.selectEnrollmentQuery().Where(squirrel.Eq{"e.course_id": courseID}))
}

func (r *EnrollmentRepository) query(ctx context.Context, query squirrel.SelectBuilder) ([]*models.Enrollment, error) {
	sql, args, err := query.OrderBy("e.enrolled_at", "s.name", "e.student_id", "e.course_id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building list enrollments SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, dberrors.Classify(err)
	}
	defer rows.Close()

	enrollments := []*models.Enrollment{}
	for rows.Next() {
		e, err := scanEnrollment(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning enrollment row: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	if err := rows.Err(); err != nil {
		return nil, dberrors.Classify(err)
	}
	return enrollments, nil
}

// Update writes the mutable attributes when the stored version matches
func (r *EnrollmentRepository) Update(ctx context.Context, e *models.Enrollment, expectedVersion int64) error {
	where := keyWhere(e.Key())
	where["version"] = expectedVersion

	sql, args, err := sb.Update("enrollments").
		Set("enrolled_at", e.EnrolledAt).
		Set("price_paid", e.PricePaid).
		Set("status", e.Status).
		Set("progress", e.Progress).
		Set("final_grade", e.FinalGrade).
		Set("version", squirrel.Expr("version + 1")).
		Where(where).
		Suffix("RETURNING version").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building update enrollment SQL: %w", err)
	}

	var version int64
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&version); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return dberrors.ErrVersionConflict
		}
		return dberrors.Classify(err)
	}
	e.Version = version
	return nil
}

// Delete removes the enrollment if it exists
func (r *EnrollmentRepository) Delete(ctx context.Context, key models.EnrollmentKey) (bool, error) {
	sql, args, err := sb.Delete("enrollments").Where(keyWhere(key)).ToSql()
	if err != nil {
		return false, fmt.Errorf("error building delete enrollment SQL: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return false, dberrors.Classify(err)
	}
	return cmdTag.RowsAffected() > 0, nil
}
