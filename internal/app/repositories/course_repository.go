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

// CourseRepository handles database operations for courses
type CourseRepository struct {
	db DBTX
}

// NewCourseRepository creates a new CourseRepository
func NewCourseRepository(db DBTX) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) selectCourseQuery() squirrel.SelectBuilder {
	return sb.Select(
		"c.id", "c.title", "c.description", "c.base_price", "c.duration_hours",
		"(SELECT COUNT(*) FROM enrollments e WHERE e.course_id = c.id) AS enrollment_count",
	).From("courses c")
}

func scanCourse(row pgx.Row) (*models.Course, error) {
	var course models.Course
	err := row.Scan(
		&course.ID,
		&course.Title,
		&course.Description,
		&course.BasePrice,
		&course.DurationHours,
		&course.EnrollmentCount,
	)
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// Create inserts a new course and sets its ID
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	sql, args, err := sb.Insert("courses").
		Columns("title", "description", "base_price", "duration_hours").
		Values(course.Title, course.Description, course.BasePrice, course.DurationHours).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("error building create course SQL: %w", err)
	}

	if err := r.db.QueryRow(ctx, sql, args...).Scan(&course.ID); err != nil {
		return dberrors.Classify(err)
	}
	return nil
}

// GetByID retrieves a course by ID
func (r *CourseRepository) GetByID(ctx context.Context, id int64) (*models.Course, error) {
	sql, args, err := r.selectCourseQuery().Where(squirrel.Eq{"c.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building get course SQL: %w", err)
	}

	course, err := scanCourse(r.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCourseNotFound
		}
		return nil, dberrors.Classify(err)
	}
	return course, nil
}

// List retrieves courses ordered by title, optionally filtered on the title
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]*models.Course, error) {
	query := r.selectCourseQuery().OrderBy("c.title", "c.id")
	if filter.Search != "" {
		query = query.Where(squirrel.ILike{"c.title": likePattern(filter.Search)})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building list courses SQL: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, dberrors.Classify(err)
	}
	defer rows.Close()

	courses := []*models.Course{}
	for rows.Next() {
		course, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning course row: %w", err)
		}
		courses = append(courses, course)
	}
	if err := rows.Err(); err != nil {
		return nil, dberrors.Classify(err)
	}
	return courses, nil
}

// Update overwrites the editable course fields
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	sql, args, err := sb.Update("courses").
		Set("title", course.Title).
		Set("description", course.Description).
		Set("base_price", course.BasePrice).
		Set("duration_hours", course.DurationHours).
		Where(squirrel.Eq{"id": course.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("error building update course SQL: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return dberrors.Classify(err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrCourseNotFound
	}
	return nil
}

// LockForDelete locks the course row and counts its enrollments
func (r *CourseRepository) LockForDelete(ctx context.Context, id int64) (int, error) {
	return lockParent(ctx, r.db, "courses", "course_id", id, apperrors.ErrCourseNotFound)
}

// Delete removes a course. Referencing enrollments make the store reject it.
func (r *CourseRepository) Delete(ctx context.Context, id int64) error {
	return deleteParent(ctx, r.db, "courses", id, apperrors.ErrCourseNotFound)
}
