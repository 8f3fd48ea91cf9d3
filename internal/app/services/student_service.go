package services

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/yigit/enrollhub/internal/app/integrity"
	"github.com/yigit/enrollhub/internal/app/models"
	"github.com/yigit/enrollhub/internal/app/repositories"
	"github.com/yigit/enrollhub/internal/app/rules"
	"github.com/yigit/enrollhub/internal/pkg/apperrors"
	"github.com/yigit/enrollhub/internal/pkg/dberrors"
	"github.com/yigit/enrollhub/internal/pkg/tracing"
	"github.com/yigit/enrollhub/internal/pkg/validation"
)

// StudentService handles student-related operations
type StudentService struct {
	store     repositories.Store
	guard     *integrity.Guard
	logger    zerolog.Logger
	remover   *parentRemover
	publisher Publisher
}

// NewStudentService creates a new student service instance
func NewStudentService(store repositories.Store, guard *integrity.Guard, logger zerolog.Logger) *StudentService {
	logger = logger.With().Str("component", "students").Logger()
	return &StudentService{
		store:     store,
		guard:     guard,
		logger:    logger,
		publisher: discardPublisher{},
		remover: &parentRemover{
			publisher: discardPublisher{},
			store:     store,
			guard:     guard,
			logger:    logger,
			tracer:    tracing.Tracer("enrollhub/services/students"),
			table:     func(s repositories.Store) parentStore { return s.Students() },
		},
	}
}

// List returns students ordered by name with their enrollment counts
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]*models.Student, error) {
	students, err := s.store.Students().List(ctx, filter)
	return students, storeError(err)
}

// Get returns a student with its enrollments
func (s *StudentService) Get(ctx context.Context, id int64) (*models.Student, error) {
	student, err := s.store.Students().GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	enrollments, err := s.store.Enrollments().ListByStudent(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	student.Enrollments = enrollments
	return student, nil
}

// validate runs the field rules and the email uniqueness pre-check
func (s *StudentService) validate(ctx context.Context, student *models.Student) error {
	student.Normalize()
	violations := rules.CheckStudent(*student)

	if student.Email != "" {
		taken, err := s.store.Students().EmailInUse(ctx, student.Email, student.ID)
		if err != nil {
			return storeError(err)
		}
		if taken {
			violations = append(violations, rules.EmailTaken())
		}
	}

	if violations.HasErrors() {
		return apperrors.NewValidationError(violations)
	}
	return nil
}

// translateWrite turns a lost email race into the same violation the pre-check reports
func (s *StudentService) translateWrite(err error) error {
	if dberrors.IsDuplicateConstraintError(err, dberrors.ConstraintStudentsEmail) {
		return apperrors.NewValidationError(validation.Violations{rules.EmailTaken()})
	}
	return storeError(err)
}

// Create validates and stores a new student
func (s *StudentService) Create(ctx context.Context, student *models.Student) error {
	student.ID = 0
	if err := s.validate(ctx, student); err != nil {
		return err
	}
	if err := s.store.Students().Create(ctx, student); err != nil {
		return s.translateWrite(err)
	}
	s.logger.Info().Int64("studentId", student.ID).Msg("Student created")
	s.publisher.Publish(models.ChangeEvent{Entity: models.EntityStudent, Kind: models.ChangeCreated, ID: student.ID, At: changeAt()})
	return nil
}

// Update validates and overwrites an existing student
func (s *StudentService) Update(ctx context.Context, student *models.Student) error {
	if _, err := s.store.Students().GetByID(ctx, student.ID); err != nil {
		return storeError(err)
	}
	if err := s.validate(ctx, student); err != nil {
		return err
	}
	if err := s.store.Students().Update(ctx, student); err != nil {
		return s.translateWrite(err)
	}
	s.logger.Info().Int64("studentId", student.ID).Msg("Student updated")
	s.publisher.Publish(models.ChangeEvent{Entity: models.EntityStudent, Kind: models.ChangeUpdated, ID: student.ID, At: changeAt()})
	return nil
}

// CanDelete evaluates the deletion policy without changing anything
func (s *StudentService) CanDelete(ctx context.Context, id int64) (integrity.Decision, error) {
	student, err := s.store.Students().GetByID(ctx, id)
	if err != nil {
		return integrity.Decision{}, storeError(err)
	}
	return s.guard.Evaluate(integrity.StudentRef(id), student.EnrollmentCount), nil
}

// Delete removes a student that has no enrollments
func (s *StudentService) Delete(ctx context.Context, id int64) error {
	return s.remover.remove(ctx, integrity.StudentRef(id))
}
