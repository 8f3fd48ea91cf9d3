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
	"github.com/yigit/enrollhub/internal/pkg/logger"
)

// StudentRepository handles database operations for students
type StudentRepository struct {
	db DBTX
}

// NewStudentRepository creates a new StudentRepository
func NewStudentRepository(db DBTX) *StudentRepository {
	return &StudentRepository{db: db}
}

// Common select query for students with their enrollment count
func (r *StudentRepository) selectStudentQuery() squirrel.SelectBuilder {
	return sb.Select(
		"s.id", "s.name", "s.email", "s.phone",
		"(SELECT COUNT(*) FROM enrollments e WHERE e.student_id = s.id) AS enrollment_count",
	).From("students s")
}

func scanStudent(row pgx.Row) (*models.Student, error) {
	var student models.Student
	if err := row.Scan(&student.ID, &student.Name, &student.Email, &student.Phone, &student.EnrollmentCount); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create inserts a new student and sets its ID
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	sql, args, err := sb.Insert("students").
		Columns("name", "email", "phone").
		Values(student.Name, student.Email, student.Phone).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building create student SQL: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&student.ID); err != nil {
		return dberrors.Classify(err)
	}
	return nil
}

// GetByID retrieves a student by ID
func (r *StudentRepository) GetByID(ctx context.Context, id int64) (*models.Student, error) {
	sql, args, err := r.selectStudentQuery().Where(squirrel.Eq{"s.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building get student SQL: %w", err)
	}

	student, err := scanStudent(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, dberrors.Classify(err)
	}
	return student, nil
}

// List retrieves students ordered by name, optionally filtered on name or email
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]*models.Student, error) {
	query := r.selectStudentQuery().OrderBy("s.name", "s.id")
	if filter.Search != "" {
		pattern := likePattern(filter.Search)
		query = query.Where(squirrel.Or{
			squirrel.ILike{"s.name": pattern},
			squirrel.ILike{"s.email": pattern},
		})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building list students SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, dberrors.Classify(err)
	}
	defer rows.Close()

	students := []*models.Student{}
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning student row: %w", err)
		}
		students = append(students, student)
	}
	if err := rows.Err(); err != nil {
		return nil, dberrors.Classify(err)
	}
	return students, nil
}

// Update overwrites the editable student fields
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	sql, args, err := sb.Update("students").
		Set("name", student.Name).
		Set("email", student.Email).
		Set("phone", student.Phone).
		Where(squirrel.Eq{"id": student.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building update student SQL: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return dberrors.Classify(err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrStudentNotFound
	}
	return nil
}

// EmailInUse checks the case-insensitive email uniqueness among other students
func (r *StudentRepository) EmailInUse(ctx context.Context, email string, excludeID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM students WHERE lower(email) = lower($1) AND id <> $2)`,
		email, excludeID).Scan(&exists)
	if err != nil {
		return false, dberrors.Classify(err)
	}
	return exists, nil
}

// LockForDelete locks the student row and counts its enrollments
func (r *StudentRepository) LockForDelete(ctx context.Context, id int64) (int, error) {
	return lockParent(ctx, r.db, "students", "student_id", id, apperrors.ErrStudentNotFound)
}

// Delete removes a student. Referencing enrollments make the store reject it.
func (r *StudentRepository) Delete(ctx context.Context, id int64) error {
	return deleteParent(ctx, r.db, "students", id, apperrors.ErrStudentNotFound)
}

// lockParent takes a row lock on a parent table so that no enrollment can
// be attached to it before the transaction ends, then counts the children.
func lockParent(ctx context.Context, db DBTX, table, fkColumn string, id int64, notFound error) (int, error) {
	sql, args, err := sb.Select("id").From(table).Where(squirrel.Eq{"id": id}).Suffix("FOR UPDATE").ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building lock %s SQL: %w", table, err)
	}

	var locked int64
	if err := db.QueryRow(ctx, sql, args...).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, notFound
		}
		return 0, dberrors.Classify(err)
	}

	sql, args, err = sb.Select("COUNT(*)").From("enrollments").Where(squirrel.Eq{fkColumn: id}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("error building count enrollments SQL: %w", err)
	}

	var count int
	if err := db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, dberrors.Classify(err)
	}
	return count, nil
}

func deleteParent(ctx context.Context, db DBTX, table string, id int64, notFound error) error {
	sql, args, err := sb.Delete(table).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("error building delete %s SQL: %w", table, err)
	}

	cmdTag, err := db.Exec(ctx, sql, args...)
	if err != nil {
		logger.Debug().Err(err).Str("table", table).Int64("id", id).Msg("Delete rejected by store")
		return dberrors.Classify(err)
	}
	if cmdTag.RowsAffected() == 0 {
		return notFound
	}
	return nil
}
