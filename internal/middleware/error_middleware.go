package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/enrollhub/internal/app/models/dto"
	"github.com/yigit/enrollhub/internal/pkg/apperrors"
)

// --- Central Error Handling ---

// HandleAPIError maps a service error onto its status code and error body
func HandleAPIError(c *gin.Context, err error) {
	status, detail := describeError(err)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", status).
			Msg("Request failed")
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, dto.NewErrorResponse(detail))
}

func describeError(err error) (int, *dto.ErrorDetail) {
	var validationErr *apperrors.ValidationError
	var denial *apperrors.IntegrityDenial
	var custom *apperrors.CustomError

	switch {
	case errors.As(err, &validationErr):
		code, status := dto.ErrorCodeValidationFailed, http.StatusBadRequest
		message := "Validation failed"
		if validationErr.Duplicate {
			code, status = dto.ErrorCodeDuplicateKey, http.StatusConflict
			message = "Student is already enrolled in this course"
		}
		detail := dto.NewErrorDetail(code, message).WithDetails(validationErr.Violations)
		if len(validationErr.Violations) == 1 {
			detail.WithField(validationErr.Violations[0].Field)
		}
		return status, detail

	case errors.As(err, &denial):
		return http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeIntegrityDenied, denial.Reason).
			WithDetails(gin.H{"entity": denial.Entity, "id": denial.ID, "enrollments": denial.Enrollments})

	case errors.Is(err, apperrors.ErrStaleState):
		return http.StatusConflict, dto.NewErrorDetail(dto.ErrorCodeStaleState,
			"Enrollment was changed or removed by another request; reload and retry").
			WithDetails(err.Error())

	case errors.Is(err, apperrors.ErrStudentNotFound):
		return http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Student not found")
	case errors.Is(err, apperrors.ErrCourseNotFound):
		return http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Course not found")
	case errors.Is(err, apperrors.ErrEnrollmentNotFound):
		return http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Enrollment not found")
	case errors.Is(err, apperrors.ErrResourceNotFound):
		return http.StatusNotFound, dto.NewErrorDetail(dto.ErrorCodeResourceNotFound, "Resource not found")

	case errors.Is(err, apperrors.ErrBadRequest):
		message := "Invalid request"
		if errors.As(err, &custom) && custom.Message != "" {
			message = custom.Message
		}
		return http.StatusBadRequest, dto.NewErrorDetail(dto.ErrorCodeInvalidRequest, message)

	case errors.Is(err, apperrors.ErrPermissionDenied):
		detail := dto.NewErrorDetail(dto.ErrorCodeForbidden, "Permission denied")
		if errors.As(err, &custom) {
			if custom.Message != "" {
				detail.Message = custom.Message
			}
			if custom.Details != nil {
				detail.WithDetails(custom.Details)
			}
		}
		return http.StatusForbidden, detail
	case errors.Is(err, apperrors.ErrTokenExpired):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Token expired")
	case errors.Is(err, apperrors.ErrTokenInvalid):
		return http.StatusUnauthorized, dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Invalid token")

	case errors.Is(err, apperrors.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, dto.NewErrorDetail(dto.ErrorCodeStoreUnavailable, "Database is unavailable, try again later").
			WithSeverity(dto.ErrorSeverityCritical)

	default:
		return http.StatusInternalServerError, dto.NewErrorDetail(dto.ErrorCodeInternalServer, "Internal server error").
			WithSeverity(dto.ErrorSeverityCritical)
	}
}
