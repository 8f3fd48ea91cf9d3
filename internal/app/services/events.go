package services

import (
	"time"

	"github.com/yigit/enrollhub/internal/app/models"
)

// Publisher receives committed changes. Publish must not block.
type Publisher interface {
	Publish(event models.ChangeEvent)
}

type discardPublisher struct{}

func (discardPublisher) Publish(models.ChangeEvent) {}

// Option customizes the services built by NewServices
type Option func(*Services)

// WithPublisher sends every committed write to p
func WithPublisher(p Publisher) Option {
	return func(s *Services) {
		s.StudentService.publisher = p
		s.StudentService.remover.publisher = p
		s.CourseService.publisher = p
		s.CourseService.remover.publisher = p
		s.EnrollmentService.publisher = p
	}
}

func changeAt() time.Time { return time.Now().UTC() }

func enrollmentChange(kind models.ChangeKind, e *models.Enrollment) models.ChangeEvent {
	return models.ChangeEvent{
		Entity:    models.EntityEnrollment,
		Kind:      kind,
		StudentID: e.StudentID,
		CourseID:  e.CourseID,
		Version:   e.Version,
		Status:    string(e.Status),
		At:        changeAt(),
	}
}
