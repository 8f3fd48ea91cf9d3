package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	appModels "github.com/yigit/enrollhub/internal/app/models"
	"github.com/yigit/enrollhub/internal/app/services"
	"github.com/yigit/enrollhub/internal/pkg/helpers"
)

type demoEnrollment struct {
	student, course int
	daysAgo         int
	status          appModels.EnrollmentStatus
	progress        int
	grade           string
}

func strPtr(s string) *string { return &s }

// CreateDefaultData fills an empty store with demo students, courses and
// enrollments. Everything goes through the services so the demo data obeys
// the same rules as API writes. A store that already holds students is left
// untouched.
func CreateDefaultData(ctx context.Context, svcs *services.Services, lgr zerolog.Logger) error {
	stats := svcs.DiagnosticsService.Check(ctx)
	if !stats.ConnectionOK {
		return fmt.Errorf("store is not reachable: %s", stats.Error)
	}
	if stats.Students > 0 || stats.Courses > 0 {
		lgr.Info().Int64("students", stats.Students).Int64("courses", stats.Courses).Msg("Store already has data, skipping seed")
		return nil
	}

	lgr.Info().Msg("Creating demo data (Students/Courses/Enrollments)...")
	var finalErr error // To collect potential errors without stopping the process

	students := []*appModels.Student{
		{Name: "João Silva", Email: "joao@example.com", Phone: strPtr("(11) 99999-1111")},
		{Name: "Maria Santos", Email: "maria@example.com", Phone: strPtr("(11) 99999-2222")},
		{Name: "Pedro Oliveira", Email: "pedro@example.com", Phone: strPtr("(11) 99999-3333")},
		{Name: "Ana Costa", Email: "ana@example.com", Phone: strPtr("(11) 99999-4444")},
	}
	for _, s := range students {
		if err := svcs.StudentService.Create(ctx, s); err != nil {
			lgr.Error().Err(err).Str("email", s.Email).Msg("Error creating demo student")
			finalErr = errors.Join(finalErr, err)
		}
	}

	courses := []*appModels.Course{
		{Title: "Go Fundamentals", Description: strPtr("Types, interfaces, errors and the standard library"), BasePrice: decimal.RequireFromString("299.90"), DurationHours: 40},
		{Title: "Building HTTP APIs with Gin", Description: strPtr("Routing, middleware and JSON APIs"), BasePrice: decimal.RequireFromString("399.90"), DurationHours: 60},
		{Title: "PostgreSQL for Go Developers", Description: strPtr("pgx, transactions and schema migrations"), BasePrice: decimal.RequireFromString("199.90"), DurationHours: 30},
		{Title: "Concurrency Patterns in Go", Description: strPtr("Goroutines, channels and errgroup"), BasePrice: decimal.RequireFromString("349.90"), DurationHours: 45},
	}
	for _, c := range courses {
		if err := svcs.CourseService.Create(ctx, c); err != nil {
			lgr.Error().Err(err).Str("title", c.Title).Msg("Error creating demo course")
			finalErr = errors.Join(finalErr, err)
		}
	}
	if finalErr != nil {
		return finalErr
	}

	today := helpers.StartOfDayUTC(time.Now())
	demo := []demoEnrollment{
		{student: 0, course: 0, daysAgo: 30, status: appModels.EnrollmentStatusActive, progress: 75},
		{student: 1, course: 1, daysAgo: 15, status: appModels.EnrollmentStatusCompleted, progress: 100, grade: "9.5"},
		{student: 2, course: 2, daysAgo: 5, status: appModels.EnrollmentStatusActive, progress: 25},
		{student: 0, course: 1, daysAgo: 20, status: appModels.EnrollmentStatusActive, progress: 50},
		{student: 3, course: 3, daysAgo: 2, status: appModels.EnrollmentStatusActive, progress: 10},
	}
	for _, d := range demo {
		enrolledAt := today.AddDate(0, 0, -d.daysAgo)
		draft := appModels.EnrollmentDraft{
			StudentID:  students[d.student].ID,
			CourseID:   courses[d.course].ID,
			EnrolledAt: &enrolledAt,
			Status:     string(d.status),
			Progress:   d.progress,
		}
		if d.grade != "" {
			grade := decimal.RequireFromString(d.grade)
			draft.FinalGrade = &grade
		}
		if _, err := svcs.EnrollmentService.Create(ctx, draft); err != nil {
			lgr.Error().Err(err).Stringer("key", draft.Key()).Msg("Error creating demo enrollment")
			finalErr = errors.Join(finalErr, fmt.Errorf("enrollment %s: %w", draft.Key(), err))
		}
	}

	if finalErr == nil {
		lgr.Info().Int("students", len(students)).Int("courses", len(courses)).Int("enrollments", len(demo)).Msg("Demo data created")
	}
	return finalErr
}
