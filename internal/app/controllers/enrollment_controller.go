package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yigit/enrollhub/internal/app/models"
	"github.com/yigit/enrollhub/internal/app/models/dto"
	"github.com/yigit/enrollhub/internal/app/services"
	"github.com/yigit/enrollhub/internal/middleware"
	"github.com/yigit/enrollhub/internal/pkg/apperrors"
)

// EnrollmentController exposes the enrollment lifecycle
type EnrollmentController struct {
	enrollmentService *services.EnrollmentService
}

// NewEnrollmentController creates a new EnrollmentController
func NewEnrollmentController(enrollmentService *services.EnrollmentService) *EnrollmentController {
	return &EnrollmentController{
		enrollmentService: enrollmentService,
	}
}

// ListEnrollments retrieves enrollments
// @Summary List enrollments
// @Description Lists enrollments ordered by enrollment date then student name
// @Tags enrollments
// @Produce json
// @Param search query string false "Case-insensitive student name or course title substring"
// @Param status query string false "Status name or ordinal (0 Active, 1 Completed, 2 Cancelled)"
// @Success 200 {object} dto.APIResponse{data=[]dto.EnrollmentResponse}
// @Failure 400 {object} dto.ErrorResponse "Unknown status filter"
// @Router /enrollments [get]
func (c *EnrollmentController) ListEnrollments(ctx *gin.Context) {
	filter := models.EnrollmentFilter{Search: ctx.Query("search")}
	if raw := strings.TrimSpace(ctx.Query("status")); raw != "" {
		status, ok := models.ParseEnrollmentStatus(raw)
		if !ok {
			middleware.HandleAPIError(ctx, apperrors.NewBadRequestError("Unknown enrollment status: "+raw))
			return
		}
		filter.Status = &status
	}

	enrollments, err := c.enrollmentService.List(ctx.Request.Context(), filter)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewEnrollmentResponses(enrollments)))
}

// GetEnrollment retrieves one enrollment by its composite key
// @Summary Get an enrollment
// @Tags enrollments
// @Produce json
// @Param studentId path int true "Student ID" Format(int64) minimum(1)
// @Param courseId path int true "Course ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=dto.EnrollmentResponse}
// @Failure 404 {object} dto.ErrorResponse "Enrollment not found"
// @Router /enrollments/{studentId}/{courseId} [get]
func (c *EnrollmentController) GetEnrollment(ctx *gin.Context) {
	key, ok := parseEnrollmentKey(ctx)
	if !ok {
		return
	}

	enrollment, err := c.enrollmentService.Get(ctx.Request.Context(), key)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewEnrollmentResponse(enrollment)))
}

// CreateEnrollment enrolls a student in a course
// @Summary Create an enrollment
// @Tags enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateEnrollmentRequest true "Enrollment"
// @Success 201 {object} dto.APIResponse{data=dto.EnrollmentResponse}
// @Failure 400 {object} dto.ErrorResponse "Validation failed"
// @Failure 409 {object} dto.ErrorResponse "Student already enrolled in the course"
// @Failure 503 {object} dto.ErrorResponse "Database unavailable"
// @Router /enrollments [post]
func (c *EnrollmentController) CreateEnrollment(ctx *gin.Context) {
	var req dto.CreateEnrollmentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	enrollment, err := c.enrollmentService.Create(ctx.Request.Context(), req.ToDraft())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewEnrollmentResponse(enrollment)))
}

// UpdateEnrollment applies a partial update
// @Summary Update an enrollment
// @Description Fields left out keep their value. expectedVersion rejects the update when the enrollment changed since it was read.
// @Tags enrollments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param studentId path int true "Student ID" Format(int64) minimum(1)
// @Param courseId path int true "Course ID" Format(int64) minimum(1)
// @Param request body dto.UpdateEnrollmentRequest true "Changes"
// @Success 200 {object} dto.APIResponse{data=dto.EnrollmentResponse}
// @Failure 400 {object} dto.ErrorResponse "Validation failed"
// @Failure 404 {object} dto.ErrorResponse "Enrollment not found"
// @Failure 409 {object} dto.ErrorResponse "Enrollment changed concurrently"
// @Router /enrollments/{studentId}/{courseId} [put]
func (c *EnrollmentController) UpdateEnrollment(ctx *gin.Context) {
	key, ok := parseEnrollmentKey(ctx)
	if !ok {
		return
	}

	var req dto.UpdateEnrollmentRequest
	if !middleware.BindJSON(ctx, &req) {
		return
	}

	enrollment, err := c.enrollmentService.Update(ctx.Request.Context(), key, req.ToChanges())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewEnrollmentResponse(enrollment)))
}

// DeleteEnrollment removes an enrollment. Removing a missing one succeeds.
// @Summary Delete an enrollment
// @Tags enrollments
// @Produce json
// @Security BearerAuth
// @Param studentId path int true "Student ID" Format(int64) minimum(1)
// @Param courseId path int true "Course ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse}
// @Router /enrollments/{studentId}/{courseId} [delete]
func (c *EnrollmentController) DeleteEnrollment(ctx *gin.Context) {
	key, ok := parseEnrollmentKey(ctx)
	if !ok {
		return
	}

	if err := c.enrollmentService.Delete(ctx.Request.Context(), key); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Enrollment deleted successfully"}))
}
