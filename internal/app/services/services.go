package services

import (
	"github.com/rs/zerolog"
	"github.com/yigit/enrollhub/internal/app/integrity"
	"github.com/yigit/enrollhub/internal/app/repositories"
	"github.com/yigit/enrollhub/internal/app/rules"
)

// Services holds all the service instances
type Services struct {
	StudentService     *StudentService
	CourseService      *CourseService
	EnrollmentService  *EnrollmentService
	DiagnosticsService *DiagnosticsService
}

// NewServices wires the services over one store
func NewServices(store repositories.Store, engine *rules.Engine, logger zerolog.Logger, opts ...Option) *Services {
	guard := integrity.NewGuard()
	svcs := &Services{
		StudentService:     NewStudentService(store, guard, logger),
		CourseService:      NewCourseService(store, guard, logger),
		EnrollmentService:  NewEnrollmentService(store, engine, logger),
		DiagnosticsService: NewDiagnosticsService(store, logger),
	}
	for _, opt := range opts {
		opt(svcs)
	}
	return svcs
}
