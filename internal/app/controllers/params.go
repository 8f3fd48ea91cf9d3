package controllers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yigit/enrollhub/internal/app/models"
	"github.com/yigit/enrollhub/internal/middleware"
	"github.com/yigit/enrollhub/internal/pkg/apperrors"
)

// parseIDParam reads a positive int64 path parameter. It writes the 400
// response itself and reports false when the value is unusable.
func parseIDParam(ctx *gin.Context, name, label string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		middleware.HandleAPIError(ctx, apperrors.NewBadRequestError(label+" must be a positive number"))
		return 0, false
	}
	return id, true
}

// parseEnrollmentKey reads the :studentId/:courseId pair
func parseEnrollmentKey(ctx *gin.Context) (models.EnrollmentKey, bool) {
	studentID, ok := parseIDParam(ctx, "studentId", "Student ID")
	if !ok {
		return models.EnrollmentKey{}, false
	}
	courseID, ok := parseIDParam(ctx, "courseId", "Course ID")
	if !ok {
		return models.EnrollmentKey{}, false
	}
	return models.EnrollmentKey{StudentID: studentID, CourseID: courseID}, true
}
