package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yigit/enrollhub/internal/app/models"
	"github.com/yigit/enrollhub/internal/app/repositories"
	"github.com/yigit/enrollhub/internal/pkg/apperrors"
	"github.com/yigit/enrollhub/internal/pkg/dberrors"
)

func seed(t *testing.T, s *Store) (models.Student, models.Course) {
	t.Helper()
	ctx := context.Background()

	student := models.Student{Name: "Ana Souza", Email: "ana@example.com"}
	if err := s.Students().Create(ctx, &student); err != nil {
		t.Fatalf("create student: %v", err)
	}
	course := models.Course{Title: "Go Basics", BasePrice: decimal.RequireFromString("199.90"), DurationHours: 20}
	if err := s.Courses().Create(ctx, &course); err != nil {
		t.Fatalf("create course: %v", err)
	}
	return student, course
}

func enroll(studentID, courseID int64, at time.Time) *models.Enrollment {
	return &models.Enrollment{
		StudentID:  studentID,
		CourseID:   courseID,
		EnrolledAt: at,
		PricePaid:  decimal.RequireFromString("100"),
		Status:     models.EnrollmentStatusActive,
	}
}

func TestStudentEmailUniqueCaseInsensitive(t *testing.T) {
	s := New()
	seed(t, s)

	dup := models.Student{Name: "Other", Email: "ANA@Example.com"}
	err := s.Students().Create(context.Background(), &dup)
	if !dberrors.IsDuplicateConstraintError(err, dberrors.ConstraintStudentsEmail) {
		t.Fatalf("expected email constraint violation, got %v", err)
	}

	inUse, err := s.Students().EmailInUse(context.Background(), "Ana@example.COM", 0)
	if err != nil || !inUse {
		t.Fatalf("expected email in use, got %v %v", inUse, err)
	}
}

func TestEnrollmentConstraints(t *testing.T) {
	ctx := context.Background()
	s := New()
	student, course := seed(t, s)

	e := enroll(student.ID, course.ID, time.Now())
	if err := s.Enrollments().Create(ctx, e); err != nil {
		t.Fatalf("create: %v", err)
	}
	if e.Version != 1 {
		t.Fatalf("expected version 1, got %d", e.Version)
	}

	err := s.Enrollments().Create(ctx, enroll(student.ID, course.ID, time.Now()))
	if !dberrors.IsConstraint(err, dberrors.ErrUniqueViolation, dberrors.ConstraintEnrollmentsPK) {
		t.Fatalf("expected primary key violation, got %v", err)
	}

	err = s.Enrollments().Create(ctx, enroll(999, course.ID, time.Now()))
	if !dberrors.IsConstraint(err, dberrors.ErrForeignKeyViolation, dberrors.ConstraintEnrollmentsStudent) {
		t.Fatalf("expected student foreign key violation, got %v", err)
	}

	err = s.Courses().Delete(ctx, course.ID)
	if !dberrors.IsConstraint(err, dberrors.ErrForeignKeyViolation, dberrors.ConstraintEnrollmentsCourse) {
		t.Fatalf("expected restrict on course delete, got %v", err)
	}
}

func TestEnrollmentUpdateComparesVersion(t *testing.T) {
	ctx := context.Background()
	s := New()
	student, course := seed(t, s)

	e := enroll(student.ID, course.ID, time.Now())
	if err := s.Enrollments().Create(ctx, e); err != nil {
		t.Fatalf("create: %v", err)
	}

	e.Progress = 50
	if err := s.Enrollments().Update(ctx, e, 1); err != nil {
		t.Fatalf("update: %v", err)
	}
	if e.Version != 2 {
		t.Fatalf("expected version 2, got %d", e.Version)
	}

	e.Progress = 60
	if err := s.Enrollments().Update(ctx, e, 1); !errors.Is(err, dberrors.ErrVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}

	got, err := s.Enrollments().Get(ctx, e.Key())
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Progress != 50 || got.Student == nil || got.Course == nil {
		t.Fatalf("unexpected stored enrollment %+v", got)
	}
}

func TestTransactionRollback(t *testing.T) {
	ctx := context.Background()
	s := New()
	student, course := seed(t, s)

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(ctx context.Context, tx repositories.Store) error {
		if err := tx.Enrollments().Create(ctx, enroll(student.ID, course.ID, time.Now())); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}

	if _, err := s.Enrollments().Get(ctx, models.EnrollmentKey{StudentID: student.ID, CourseID: course.ID}); !errors.Is(err, apperrors.ErrEnrollmentNotFound) {
		t.Fatalf("rolled back enrollment should be absent, got %v", err)
	}
}

func TestListOrderingAndSearch(t *testing.T) {
	ctx := context.Background()
	s := New()
	ana, goCourse := seed(t, s)

	bruno := models.Student{Name: "Bruno Lima", Email: "bruno@example.com"}
	if err := s.Students().Create(ctx, &bruno); err != nil {
		t.Fatal(err)
	}
	sql := models.Course{Title: "SQL Essentials", DurationHours: 10}
	if err := s.Courses().Create(ctx, &sql); err != nil {
		t.Fatal(err)
	}

	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for _, e := range []*models.Enrollment{
		enroll(bruno.ID, goCourse.ID, day),
		enroll(ana.ID, goCourse.ID, day),
		enroll(ana.ID, sql.ID, day.Add(-time.Hour)),
	} {
		if err := s.Enrollments().Create(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	all, err := s.Enrollments().List(ctx, models.EnrollmentFilter{})
	if err != nil {
		t.Fatal(err)
	}
	want := []models.EnrollmentKey{
		{StudentID: ana.ID, CourseID: sql.ID},
		{StudentID: ana.ID, CourseID: goCourse.ID},
		{StudentID: bruno.ID, CourseID: goCourse.ID},
	}
	for i, key := range want {
		if all[i].Key() != key {
			t.Fatalf("position %d: expected %v, got %v", i, key, all[i].Key())
		}
	}

	found, err := s.Enrollments().List(ctx, models.EnrollmentFilter{Search: "sql"})
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 || found[0].CourseID != sql.ID {
		t.Fatalf("search by course title failed: %+v", found)
	}

	students, err := s.Students().List(ctx, models.StudentFilter{Search: "BRUNO@"})
	if err != nil {
		t.Fatal(err)
	}
	if len(students) != 1 || students[0].EnrollmentCount != 1 {
		t.Fatalf("search by email failed: %+v", students)
	}

	padded, err := s.Enrollments().List(ctx, models.EnrollmentFilter{Search: "  sql  "})
	if err != nil {
		t.Fatal(err)
	}
	if len(padded) != 1 {
		t.Fatalf("surrounding spaces should be ignored, got %d enrollments", len(padded))
	}
	courses, err := s.Courses().List(ctx, models.CourseFilter{Search: " Essentials "})
	if err != nil {
		t.Fatal(err)
	}
	if len(courses) != 1 || courses[0].ID != sql.ID {
		t.Fatalf("padded course search failed: %+v", courses)
	}
	students, err = s.Students().List(ctx, models.StudentFilter{Search: " bruno "})
	if err != nil {
		t.Fatal(err)
	}
	if len(students) != 1 {
		t.Fatalf("padded student search failed: %+v", students)
	}
}

func TestFailWith(t *testing.T) {
	s := New()
	s.FailWith(dberrors.ErrUnavailable)

	if _, err := s.Stats(context.Background()); !errors.Is(err, dberrors.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
	s.FailWith(nil)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
}
