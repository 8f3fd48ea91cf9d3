package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/yigit/enrollhub/internal/app/models"
	"github.com/yigit/enrollhub/internal/app/rules"
	"github.com/yigit/enrollhub/internal/pkg/apperrors"
)

func TestCourseRules(t *testing.T) {
	svc, _ := fresh(t)
	err := svc.CourseService.Create(context.Background(), &models.Course{
		Title:         "",
		BasePrice:     decimal.NewFromInt(1000000),
		DurationHours: 0,
	})
	vErr := validationError(t, err)
	for _, field := range []string{"title", rules.FieldBasePrice, "durationHours"} {
		if len(vErr.Violations.OnField(field)) == 0 {
			t.Fatalf("missing violation on %s: %v", field, vErr.Violations)
		}
	}
}

func TestCourseDeleteGuarded(t *testing.T) {
	ctx := context.Background()
	svc, _ := fresh(t)
	s := mustStudent(t, svc, "Ana Souza", "ana@example.com")
	c := mustCourse(t, svc, "Go Basics", "10")
	key := models.EnrollmentKey{StudentID: s.ID, CourseID: c.ID}
	if _, err := svc.EnrollmentService.Create(ctx, models.EnrollmentDraft{StudentID: s.ID, CourseID: c.ID}); err != nil {
		t.Fatal(err)
	}

	if err := svc.CourseService.Delete(ctx, c.ID); !errors.Is(err, apperrors.ErrIntegrityDenied) {
		t.Fatalf("expected denial, got %v", err)
	}
	if err := svc.EnrollmentService.Delete(ctx, key); err != nil {
		t.Fatal(err)
	}
	if err := svc.CourseService.Delete(ctx, c.ID); err != nil {
		t.Fatalf("expected delete after enrollments are gone: %v", err)
	}
	if _, err := svc.CourseService.Get(ctx, c.ID); !errors.Is(err, apperrors.ErrCourseNotFound) {
		t.Fatalf("expected course gone, got %v", err)
	}
}

func TestCourseListSearch(t *testing.T) {
	ctx := context.Background()
	svc, _ := fresh(t)
	mustCourse(t, svc, "Go Basics", "10")
	mustCourse(t, svc, "Advanced SQL", "20")

	list, err := svc.CourseService.List(ctx, models.CourseFilter{Search: "sql"})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Title != "Advanced SQL" {
		t.Fatalf("unexpected search result %+v", list)
	}
}
