package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/yigit/enrollhub/internal/app/models"
	"github.com/yigit/enrollhub/internal/app/repositories"
	"github.com/yigit/enrollhub/internal/app/rules"
	"github.com/yigit/enrollhub/internal/pkg/apperrors"
	"github.com/yigit/enrollhub/internal/pkg/dberrors"
	"github.com/yigit/enrollhub/internal/pkg/tracing"
	"github.com/yigit/enrollhub/internal/pkg/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// EnrollmentService coordinates enrollment creation, updates and removal.
// It keeps no state between calls; conflicts between concurrent writers
// are settled by the store's keys and the version column.
type EnrollmentService struct {
	store  repositories.Store
	rules  *rules.Engine
	logger zerolog.Logger
	tracer trace.Tracer
	now    func() time.Time

	publisher Publisher
}

// NewEnrollmentService creates a new enrollment service instance
func NewEnrollmentService(store repositories.Store, engine *rules.Engine, logger zerolog.Logger) *EnrollmentService {
	return &EnrollmentService{
		store:  store,
		rules:  engine,
		logger: logger.With().Str("component", "enrollments").Logger(),
		tracer: tracing.Tracer("enrollhub/services/enrollments"),
		now:    func() time.Time { return time.Now().UTC() },

		publisher: discardPublisher{},
	}
}

func keyAttrs(key models.EnrollmentKey) trace.SpanStartOption {
	return trace.WithAttributes(
		attribute.Int64("enrollment.student_id", key.StudentID),
		attribute.Int64("enrollment.course_id", key.CourseID),
	)
}

func outcomeAttr(err error) attribute.KeyValue {
	outcome := "error"
	switch {
	case errors.Is(err, apperrors.ErrDuplicateKey):
		outcome = "duplicate"
	case errors.Is(err, apperrors.ErrValidationFailed):
		outcome = "invalid"
	case errors.Is(err, apperrors.ErrResourceNotFound):
		outcome = "not_found"
	case errors.Is(err, apperrors.ErrIntegrityDenied):
		outcome = "denied"
	case errors.Is(err, apperrors.ErrStaleState):
		outcome = "stale"
	}
	return attribute.String("outcome", outcome)
}

// List returns the enrollments matching filter, oldest first.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]*models.Enrollment, error) {
	ctx, span := s.tracer.Start(ctx, "enrollment.list")
	defer span.End()

	enrollments, err := s.store.Enrollments().List(ctx, filter)
	if err != nil {
		err = storeError(err)
		recordSpanError(span, err)
		return nil, err
	}
	return enrollments, nil
}

// Get returns one enrollment or apperrors.ErrEnrollmentNotFound.
func (s *EnrollmentService) Get(ctx context.Context, key models.EnrollmentKey) (*models.Enrollment, error) {
	ctx, span := s.tracer.Start(ctx, "enrollment.get", keyAttrs(key))
	defer span.End()

	enrollment, err := s.store.Enrollments().Get(ctx, key)
	if err != nil {
		err = storeError(err)
		recordSpanError(span, err)
		return nil, err
	}
	return enrollment, nil
}

// lookup is what the store knows about a draft's key before the insert.
type lookup struct {
	student  *models.Student
	course   *models.Course
	existing []models.Enrollment
}

// resolve reads the student, the course and any enrollment already holding
// the key in parallel.
func (s *EnrollmentService) resolve(ctx context.Context, key models.EnrollmentKey) (lookup, error) {
	var found lookup
	g, gctx := errgroup.WithContext(ctx)

	if key.StudentID > 0 {
		g.Go(func() error {
			student, err := s.store.Students().GetByID(gctx, key.StudentID)
			if errors.Is(err, apperrors.ErrStudentNotFound) {
				return nil
			}
			found.student = student
			return err
		})
	}
	if key.CourseID > 0 {
		g.Go(func() error {
			course, err := s.store.Courses().GetByID(gctx, key.CourseID)
			if errors.Is(err, apperrors.ErrCourseNotFound) {
				return nil
			}
			found.course = course
			return err
		})
	}
	if key.StudentID > 0 && key.CourseID > 0 {
		g.Go(func() error {
			existing, err := s.store.Enrollments().Get(gctx, key)
			if errors.Is(err, apperrors.ErrEnrollmentNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			found.existing = []models.Enrollment{*existing}
			return nil
		})
	}

	return found, g.Wait()
}

// Create validates a draft against the live store and inserts it.
//
// Every rule is evaluated and all failures are returned together in an
// *apperrors.ValidationError. A second enrollment for the same key fails
// with a duplicate ValidationError, whether the pre-check sees the first
// one or the store rejects the insert.
func (s *EnrollmentService) Create(ctx context.Context, draft models.EnrollmentDraft) (enrollment *models.Enrollment, err error) {
	key := draft.Key()
	ctx, span := s.tracer.Start(ctx, "enrollment.create", keyAttrs(key))
	defer func() {
		recordSpanError(span, err)
		span.End()
	}()

	found, err := s.resolve(ctx, key)
	if err != nil {
		return nil, storeError(err)
	}

	candidate := models.Enrollment{
		StudentID:  draft.StudentID,
		CourseID:   draft.CourseID,
		EnrolledAt: s.now(),
		Status:     models.EnrollmentStatus(draft.Status),
		Progress:   draft.Progress,
		FinalGrade: draft.FinalGrade,
	}
	if draft.EnrolledAt != nil {
		candidate.EnrolledAt = draft.EnrolledAt.UTC()
	}
	switch {
	case draft.PricePaid != nil:
		candidate.PricePaid = *draft.PricePaid
	case found.course != nil:
		candidate.PricePaid = found.course.BasePrice
	}

	res := s.rules.CheckEnrollment(rules.EnrollmentInput{
		Candidate:    candidate,
		Existing:     found.existing,
		StudentFound: found.student != nil,
		CourseFound:  found.course != nil,
		Mode:         rules.ModeCreate,
	})
	if res.StatusDefaulted {
		s.logger.Warn().Str("status", draft.Status).Stringer("key", key).Msg("Unrecognized enrollment status, defaulting to Active")
	}
	if !res.Valid() {
		s.logger.Debug().Stringer("key", key).Str("violations", res.Violations.Error()).Msg("Enrollment rejected")
		return nil, apperrors.NewValidationError(res.Violations)
	}

	created := res.Enrollment
	if err := s.store.Enrollments().Create(ctx, &created); err != nil {
		err = s.translateWrite(key, err)
		if !errors.Is(err, apperrors.ErrValidationFailed) {
			s.logger.Error().Err(err).Stringer("key", key).Msg("Failed to create enrollment")
		} else {
			s.logger.Info().Stringer("key", key).Msg("Enrollment insert rejected by store constraints")
		}
		return nil, err
	}

	created.Student = summarizeStudent(found.student)
	created.Course = summarizeCourse(found.course)
	s.logger.Info().Stringer("key", key).Str("status", string(created.Status)).Msg("Enrollment created")
	s.publisher.Publish(enrollmentChange(models.ChangeCreated, &created))
	return &created, nil
}

// translateWrite maps constraint failures raised by the store on an
// enrollment write onto the errors the pre-checks would have produced.
func (s *EnrollmentService) translateWrite(key models.EnrollmentKey, err error) error {
	switch {
	case dberrors.IsConstraint(err, dberrors.ErrUniqueViolation, dberrors.ConstraintEnrollmentsPK):
		return apperrors.NewValidationError(validation.Violations{rules.DuplicateEnrollment()})
	case dberrors.IsConstraint(err, dberrors.ErrForeignKeyViolation, dberrors.ConstraintEnrollmentsStudent):
		return apperrors.NewValidationError(validation.Violations{rules.MissingParent(rules.FieldStudentID, key.StudentID)})
	case dberrors.IsConstraint(err, dberrors.ErrForeignKeyViolation, dberrors.ConstraintEnrollmentsCourse):
		return apperrors.NewValidationError(validation.Violations{rules.MissingParent(rules.FieldCourseID, key.CourseID)})
	}
	return storeError(err)
}

func staleError(key models.EnrollmentKey) error {
	return apperrors.NewStaleStateError(fmt.Sprintf("enrollment %s was changed or removed since it was read", key))
}

// Update applies changes to an existing enrollment. The key itself can't
// change. When changes carry an expected version that no longer matches,
// or a concurrent writer wins the race, the update fails with
// apperrors.ErrStaleState.
func (s *EnrollmentService) Update(ctx context.Context, key models.EnrollmentKey, changes models.EnrollmentChanges) (enrollment *models.Enrollment, err error) {
	ctx, span := s.tracer.Start(ctx, "enrollment.update", keyAttrs(key))
	defer func() {
		recordSpanError(span, err)
		span.End()
	}()

	current, err := s.store.Enrollments().Get(ctx, key)
	if err != nil {
		return nil, storeError(err)
	}
	if changes.ExpectedVersion != nil && *changes.ExpectedVersion != current.Version {
		return nil, staleError(key)
	}

	merged := changes.Apply(*current)
	res := s.rules.CheckEnrollment(rules.EnrollmentInput{
		Candidate:    merged,
		StudentFound: true,
		CourseFound:  true,
		Mode:         rules.ModeUpdate,
	})
	if res.StatusDefaulted {
		s.logger.Warn().Str("status", string(merged.Status)).Stringer("key", key).Msg("Unrecognized enrollment status, defaulting to Active")
	}
	if !res.Valid() {
		return nil, apperrors.NewValidationError(res.Violations)
	}

	updated := res.Enrollment
	if err := s.store.Enrollments().Update(ctx, &updated, current.Version); err != nil {
		if errors.Is(err, dberrors.ErrVersionConflict) {
			s.logger.Info().Stringer("key", key).Int64("version", current.Version).Msg("Enrollment update lost a concurrent write")
			return nil, staleError(key)
		}
		err = s.translateWrite(key, err)
		s.logger.Error().Err(err).Stringer("key", key).Msg("Failed to update enrollment")
		return nil, err
	}

	s.logger.Info().Stringer("key", key).Int64("version", updated.Version).Msg("Enrollment updated")
	s.publisher.Publish(enrollmentChange(models.ChangeUpdated, &updated))
	return &updated, nil
}

// Delete removes an enrollment. Removing a key that does not exist succeeds.
func (s *EnrollmentService) Delete(ctx context.Context, key models.EnrollmentKey) (err error) {
	ctx, span := s.tracer.Start(ctx, "enrollment.delete", keyAttrs(key))
	defer func() {
		recordSpanError(span, err)
		span.End()
	}()

	removed, err := s.store.Enrollments().Delete(ctx, key)
	if err != nil {
		err = storeError(err)
		s.logger.Error().Err(err).Stringer("key", key).Msg("Failed to delete enrollment")
		return err
	}
	span.SetAttributes(attribute.Bool("enrollment.removed", removed))
	s.logger.Info().Stringer("key", key).Bool("removed", removed).Msg("Enrollment deleted")
	if removed {
		s.publisher.Publish(models.ChangeEvent{Entity: models.EntityEnrollment, Kind: models.ChangeDeleted, StudentID: key.StudentID, CourseID: key.CourseID, At: changeAt()})
	}
	return nil
}

func summarizeStudent(s *models.Student) *models.Student {
	if s == nil {
		return nil
	}
	return &models.Student{ID: s.ID, Name: s.Name, Email: s.Email}
}

func summarizeCourse(c *models.Course) *models.Course {
	if c == nil {
		return nil
	}
	return &models.Course{ID: c.ID, Title: c.Title, BasePrice: c.BasePrice}
}
