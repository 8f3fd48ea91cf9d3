package services

import (
	"context"
	"errors"
	"testing"

	"github.com/yigit/enrollhub/internal/app/models"
	"github.com/yigit/enrollhub/internal/app/repositories"
	"github.com/yigit/enrollhub/internal/app/rules"
	"github.com/yigit/enrollhub/internal/pkg/apperrors"
	"github.com/yigit/enrollhub/internal/pkg/validation"
)

// blindEmails never sees a taken email, as if a concurrent insert won.
type blindEmails struct{ repositories.StudentStore }

func (blindEmails) EmailInUse(context.Context, string, int64) (bool, error) { return false, nil }

func TestStudentDuplicateEmail(t *testing.T) {
	svc, _ := fresh(t)
	mustStudent(t, svc, "Ana Souza", "ana@example.com")

	err := svc.StudentService.Create(context.Background(), &models.Student{Name: "Ana Clone", Email: " ANA@example.com "})
	vErr := validationError(t, err)
	if !vErr.Violations.OnField(rules.FieldEmail).HasRule(validation.RuleUnique) {
		t.Fatalf("expected unique violation on email, got %v", vErr.Violations)
	}
}

func TestStudentDuplicateEmailRaceTranslated(t *testing.T) {
	base, store := fresh(t)
	mustStudent(t, base, "Ana Souza", "ana@example.com")

	racy := newTestServices(t, racyStore{
		Store:    store,
		students: func(s repositories.StudentStore) repositories.StudentStore { return blindEmails{s} },
	}, rules.Options{})

	err := racy.StudentService.Create(context.Background(), &models.Student{Name: "Ana Clone", Email: "ana@example.com"})
	vErr := validationError(t, err)
	if len(vErr.Violations.OnField(rules.FieldEmail)) != 1 {
		t.Fatalf("expected email violation from store constraint, got %v", vErr.Violations)
	}
}

func TestStudentUpdateKeepsOwnEmail(t *testing.T) {
	svc, _ := fresh(t)
	s := mustStudent(t, svc, "Ana Souza", "ana@example.com")

	s.Name = "Ana S. Souza"
	s.Email = "Ana@Example.com"
	if err := svc.StudentService.Update(context.Background(), s); err != nil {
		t.Fatalf("update with own email: %v", err)
	}
}

func TestStudentFieldRules(t *testing.T) {
	svc, _ := fresh(t)
	err := svc.StudentService.Create(context.Background(), &models.Student{Name: "  ", Email: "not-an-email", Phone: strPtr("abc")})
	vErr := validationError(t, err)
	for _, field := range []string{"name", "email", "phone"} {
		if len(vErr.Violations.OnField(field)) == 0 {
			t.Fatalf("missing violation on %s: %v", field, vErr.Violations)
		}
	}
}

func TestStudentGetIncludesEnrollments(t *testing.T) {
	ctx := context.Background()
	svc, _ := fresh(t)
	s := mustStudent(t, svc, "Ana Souza", "ana@example.com")
	c := mustCourse(t, svc, "Go Basics", "10")
	if _, err := svc.EnrollmentService.Create(ctx, models.EnrollmentDraft{StudentID: s.ID, CourseID: c.ID}); err != nil {
		t.Fatal(err)
	}

	got, err := svc.StudentService.Get(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.EnrollmentCount != 1 || len(got.Enrollments) != 1 || got.Enrollments[0].Course.Title != "Go Basics" {
		t.Fatalf("unexpected detail %+v", got)
	}

	if _, err := svc.StudentService.Get(ctx, 404); !errors.Is(err, apperrors.ErrStudentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStudentCanDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := fresh(t)
	s := mustStudent(t, svc, "Ana Souza", "ana@example.com")
	c := mustCourse(t, svc, "Go Basics", "10")

	decision, err := svc.StudentService.CanDelete(ctx, s.ID)
	if err != nil || !decision.Allowed {
		t.Fatalf("expected allowed, got %+v %v", decision, err)
	}

	if _, err := svc.EnrollmentService.Create(ctx, models.EnrollmentDraft{StudentID: s.ID, CourseID: c.ID}); err != nil {
		t.Fatal(err)
	}
	decision, err = svc.StudentService.CanDelete(ctx, s.ID)
	if err != nil || decision.Allowed || decision.Enrollments != 1 {
		t.Fatalf("expected denied, got %+v %v", decision, err)
	}
}

func TestStudentDeleteLateForeignKey(t *testing.T) {
	ctx := context.Background()
	base, store := fresh(t)
	s := mustStudent(t, base, "Ana Souza", "ana@example.com")
	c := mustCourse(t, base, "Go Basics", "10")
	if _, err := base.EnrollmentService.Create(ctx, models.EnrollmentDraft{StudentID: s.ID, CourseID: c.ID}); err != nil {
		t.Fatal(err)
	}

	racy := newTestServices(t, racyStore{
		Store:    store,
		students: func(st repositories.StudentStore) repositories.StudentStore { return uncountedStudents{st} },
	}, rules.Options{})

	err := racy.StudentService.Delete(ctx, s.ID)
	var denial *apperrors.IntegrityDenial
	if !errors.As(err, &denial) || denial.Entity != "student" || denial.ID != s.ID {
		t.Fatalf("expected integrity denial from foreign key, got %v", err)
	}
	if _, err := base.StudentService.Get(ctx, s.ID); err != nil {
		t.Fatalf("student must survive the refused delete: %v", err)
	}
}

func TestDeleteMissingStudent(t *testing.T) {
	svc, _ := fresh(t)
	if err := svc.StudentService.Delete(context.Background(), 99); !errors.Is(err, apperrors.ErrStudentNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
