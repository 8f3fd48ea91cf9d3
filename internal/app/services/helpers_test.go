package services

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/yigit/enrollhub/internal/app/models"
	"github.com/yigit/enrollhub/internal/app/repositories"
	"github.com/yigit/enrollhub/internal/app/repositories/memory"
	"github.com/yigit/enrollhub/internal/app/rules"
	"github.com/yigit/enrollhub/internal/pkg/apperrors"
)

func newTestServices(t *testing.T, store repositories.Store, opts rules.Options) *Services {
	t.Helper()
	return NewServices(store, rules.NewEngine(opts), zerolog.Nop())
}

func mustStudent(t *testing.T, svc *Services, name, email string) *models.Student {
	t.Helper()
	s := &models.Student{Name: name, Email: email}
	if err := svc.StudentService.Create(context.Background(), s); err != nil {
		t.Fatalf("create student %s: %v", name, err)
	}
	return s
}

func mustCourse(t *testing.T, svc *Services, title, price string) *models.Course {
	t.Helper()
	c := &models.Course{Title: title, BasePrice: decimal.RequireFromString(price), DurationHours: 40}
	if err := svc.CourseService.Create(context.Background(), c); err != nil {
		t.Fatalf("create course %s: %v", title, err)
	}
	return c
}

func dec(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

// validationError asserts err is a ValidationError and returns it.
func validationError(t *testing.T, err error) *apperrors.ValidationError {
	t.Helper()
	var vErr *apperrors.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	return vErr
}

func fresh(t *testing.T) (*Services, *memory.Store) {
	t.Helper()
	store := memory.New()
	return newTestServices(t, store, rules.Options{}), store
}

// blindEnrollments never sees an existing enrollment, as if a concurrent
// insert committed right after the read.
type blindEnrollments struct{ repositories.EnrollmentStore }

func (blindEnrollments) Get(context.Context, models.EnrollmentKey) (*models.Enrollment, error) {
	return nil, apperrors.ErrEnrollmentNotFound
}

// ghostStudents resolves every student id, as if the student was deleted
// right after the read.
type ghostStudents struct{ repositories.StudentStore }

func (ghostStudents) GetByID(_ context.Context, id int64) (*models.Student, error) {
	return &models.Student{ID: id, Name: "Ghost", Email: "ghost@example.com"}, nil
}

// staleEnrollments always returns the snapshot it was built with.
type staleEnrollments struct {
	repositories.EnrollmentStore
	snapshot models.Enrollment
}

func (s staleEnrollments) Get(context.Context, models.EnrollmentKey) (*models.Enrollment, error) {
	cp := s.snapshot
	return &cp, nil
}

// uncountedStudents reports zero enrollments when locking a parent, leaving
// the store's foreign keys as the last line of defense.
type uncountedStudents struct{ repositories.StudentStore }

func (uncountedStudents) LockForDelete(context.Context, int64) (int, error) { return 0, nil }

// racyStore swaps in the wrappers above, including inside transactions.
type racyStore struct {
	repositories.Store
	students    func(repositories.StudentStore) repositories.StudentStore
	enrollments func(repositories.EnrollmentStore) repositories.EnrollmentStore
}

func (r racyStore) Students() repositories.StudentStore {
	if r.students == nil {
		return r.Store.Students()
	}
	return r.students(r.Store.Students())
}

func (r racyStore) Enrollments() repositories.EnrollmentStore {
	if r.enrollments == nil {
		return r.Store.Enrollments()
	}
	return r.enrollments(r.Store.Enrollments())
}

func (r racyStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repositories.Store) error) error {
	return r.Store.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		return fn(ctx, racyStore{Store: tx, students: r.students, enrollments: r.enrollments})
	})
}
