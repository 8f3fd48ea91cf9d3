package repositories

import (
	"context"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/enrollhub/internal/app/models"
	"github.com/yigit/enrollhub/internal/db"
	"github.com/yigit/enrollhub/internal/pkg/dberrors"
)

// sb builds PostgreSQL flavored statements
var sb = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// likeEscaper escapes the LIKE wildcards of user supplied search text
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func likePattern(search string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(search)) + "%"
}

// Repositories holds all the repository instances
type Repositories struct {
	pg   *db.PostgresDB // nil when bound to a transaction
	conn DBTX

	StudentRepository    *StudentRepository
	CourseRepository     *CourseRepository
	EnrollmentRepository *EnrollmentRepository
}

var _ Store = (*Repositories)(nil)

// NewRepositories initializes all repositories on the connection pool
func NewRepositories(pg *db.PostgresDB) *Repositories {
	r := newRepositories(pg.Pool)
	r.pg = pg
	return r
}

func newRepositories(conn DBTX) *Repositories {
	return &Repositories{
		conn:                 conn,
		StudentRepository:    NewStudentRepository(conn),
		CourseRepository:     NewCourseRepository(conn),
		EnrollmentRepository: NewEnrollmentRepository(conn),
	}
}

func (r *Repositories) Students() StudentStore       { return r.StudentRepository }
func (r *Repositories) Courses() CourseStore         { return r.CourseRepository }
func (r *Repositories) Enrollments() EnrollmentStore { return r.EnrollmentRepository }

// WithinTx runs fn with repositories bound to a single transaction
func (r *Repositories) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if r.pg == nil {
		return fn(ctx, r)
	}
	err := r.pg.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, newRepositories(tx))
	})
	return dberrors.Classify(err)
}

// Stats counts rows per table for diagnostics
func (r *Repositories) Stats(ctx context.Context) (models.Stats, error) {
	stats := models.Stats{}
	err := r.conn.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM students),
			(SELECT COUNT(*) FROM courses),
			(SELECT COUNT(*) FROM enrollments)`,
	).Scan(&stats.Students, &stats.Courses, &stats.Enrollments)
	if err != nil {
		return stats, dberrors.Classify(err)
	}
	stats.ConnectionOK = true
	return stats, nil
}

// Ping checks the database connection
func (r *Repositories) Ping(ctx context.Context) error {
	if r.pg == nil {
		return nil
	}
	return dberrors.Classify(r.pg.Pool.Ping(ctx))
}
