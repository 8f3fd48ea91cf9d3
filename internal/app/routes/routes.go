package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/enrollhub/internal/app/controllers"
	"github.com/yigit/enrollhub/internal/app/models"
	"github.com/yigit/enrollhub/internal/middleware"
)

// SetupRouter configures all application routes. Reads are public; when
// authMiddleware is non-nil every mutation requires an ADMIN token. The
// change feed route exists only when changeFeedController is non-nil.
func SetupRouter(
	router *gin.Engine,
	studentController *controllers.StudentController,
	courseController *controllers.CourseController,
	enrollmentController *controllers.EnrollmentController,
	diagnosticsController *controllers.DiagnosticsController,
	changeFeedController *controllers.ChangeFeedController,
	authMiddleware *middleware.AuthMiddleware,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// --- Public read routes ---
	v1.GET("/diagnostics", diagnosticsController.GetDiagnostics)
	if changeFeedController != nil {
		v1.GET("/changes", changeFeedController.StreamChanges)
	}

	students := v1.Group("/students")
	{
		students.GET("", studentController.ListStudents)
		students.GET("/:id", studentController.GetStudent)
		students.GET("/:id/deletable", studentController.CanDeleteStudent)
	}

	courses := v1.Group("/courses")
	{
		courses.GET("", courseController.ListCourses)
		courses.GET("/:id", courseController.GetCourse)
		courses.GET("/:id/deletable", courseController.CanDeleteCourse)
	}

	enrollments := v1.Group("/enrollments")
	{
		enrollments.GET("", enrollmentController.ListEnrollments)
		enrollments.GET("/:studentId/:courseId", enrollmentController.GetEnrollment)
	}

	// --- Mutating routes ---
	protected := v1.Group("")
	if authMiddleware != nil {
		protected.Use(authMiddleware.JWTAuth(), authMiddleware.RoleRequired(models.RoleAdmin))
	}

	studentsProtected := protected.Group("/students")
	{
		studentsProtected.POST("", studentController.CreateStudent)
		studentsProtected.PUT("/:id", studentController.UpdateStudent)
		studentsProtected.DELETE("/:id", studentController.DeleteStudent)
	}

	coursesProtected := protected.Group("/courses")
	{
		coursesProtected.POST("", courseController.CreateCourse)
		coursesProtected.PUT("/:id", courseController.UpdateCourse)
		coursesProtected.DELETE("/:id", courseController.DeleteCourse)
	}

	enrollmentsProtected := protected.Group("/enrollments")
	{
		enrollmentsProtected.POST("", enrollmentController.CreateEnrollment)
		enrollmentsProtected.PUT("/:studentId/:courseId", enrollmentController.UpdateEnrollment)
		enrollmentsProtected.DELETE("/:studentId/:courseId", enrollmentController.DeleteEnrollment)
	}
}
