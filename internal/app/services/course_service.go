package services

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/yigit/enrollhub/internal/app/integrity"
	"github.com/yigit/enrollhub/internal/app/models"
	"github.com/yigit/enrollhub/internal/app/repositories"
	"github.com/yigit/enrollhub/internal/app/rules"
	"github.com/yigit/enrollhub/internal/pkg/apperrors"
	"github.com/yigit/enrollhub/internal/pkg/tracing"
)

// CourseService handles course-related operations
type CourseService struct {
	store     repositories.Store
	guard     *integrity.Guard
	logger    zerolog.Logger
	remover   *parentRemover
	publisher Publisher
}

// NewCourseService creates a new course service instance
func NewCourseService(store repositories.Store, guard *integrity.Guard, logger zerolog.Logger) *CourseService {
	logger = logger.With().Str("component", "courses").Logger()
	return &CourseService{
		store:     store,
		guard:     guard,
		logger:    logger,
		publisher: discardPublisher{},
		remover: &parentRemover{
			publisher: discardPublisher{},
			store:     store,
			guard:     guard,
			logger:    logger,
			tracer:    tracing.Tracer("enrollhub/services/courses"),
			table:     func(s repositories.Store) parentStore { return s.Courses() },
		},
	}
}

// List returns courses ordered by title with their enrollment counts
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]*models.Course, error) {
	courses, err := s.store.Courses().List(ctx, filter)
	return courses, storeError(err)
}

// Get returns a course with its enrollments
func (s *CourseService) Get(ctx context.Context, id int64) (*models.Course, error) {
	course, err := s.store.Courses().GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	enrollments, err := s.store.Enrollments().ListByCourse(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	course.Enrollments = enrollments
	return course, nil
}

func (s *CourseService) validate(course *models.Course) error {
	course.Normalize()
	if violations := rules.CheckCourse(*course); violations.HasErrors() {
		return apperrors.NewValidationError(violations)
	}
	return nil
}

// Create validates and stores a new course
func (s *CourseService) Create(ctx context.Context, course *models.Course) error {
	course.ID = 0
	if err := s.validate(course); err != nil {
		return err
	}
	if err := s.store.Courses().Create(ctx, course); err != nil {
		return storeError(err)
	}
	s.logger.Info().Int64("courseId", course.ID).Msg("Course created")
	s.publisher.Publish(models.ChangeEvent{Entity: models.EntityCourse, Kind: models.ChangeCreated, ID: course.ID, At: changeAt()})
	return nil
}

// Update validates and overwrites an existing course
func (s *CourseService) Update(ctx context.Context, course *models.Course) error {
	if _, err := s.store.Courses().GetByID(ctx, course.ID); err != nil {
		return storeError(err)
	}
	if err := s.validate(course); err != nil {
		return err
	}
	if err := s.store.Courses().Update(ctx, course); err != nil {
		return storeError(err)
	}
	s.logger.Info().Int64("courseId", course.ID).Msg("Course updated")
	s.publisher.Publish(models.ChangeEvent{Entity: models.EntityCourse, Kind: models.ChangeUpdated, ID: course.ID, At: changeAt()})
	return nil
}

// CanDelete evaluates the deletion policy without changing anything
func (s *CourseService) CanDelete(ctx context.Context, id int64) (integrity.Decision, error) {
	course, err := s.store.Courses().GetByID(ctx, id)
	if err != nil {
		return integrity.Decision{}, storeError(err)
	}
	return s.guard.Evaluate(integrity.CourseRef(id), course.EnrollmentCount), nil
}

// Delete removes a course that has no enrollments
func (s *CourseService) Delete(ctx context.Context, id int64) error {
	return s.remover.remove(ctx, integrity.CourseRef(id))
}
