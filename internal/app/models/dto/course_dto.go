package dto

import (
	"github.com/shopspring/decimal"
	"github.com/yigit/enrollhub/internal/app/models"
)

// CourseRequest carries the fields of a course create or update
type CourseRequest struct {
	Title         string          `json:"title" example:"Go for Backend Engineers"`
	Description   *string         `json:"description,omitempty"`
	BasePrice     decimal.Decimal `json:"basePrice" swaggertype:"string" example:"349.90"`
	DurationHours int             `json:"durationHours" example:"40"`
}

// ToModel builds the course the request describes. id is zero on create.
func (r CourseRequest) ToModel(id int64) *models.Course {
	return &models.Course{
		ID:            id,
		Title:         r.Title,
		Description:   r.Description,
		BasePrice:     r.BasePrice,
		DurationHours: r.DurationHours,
	}
}

// CourseResponse is a course as rendered by the API
type CourseResponse struct {
	ID              int64                 `json:"id" example:"1"`
	Title           string                `json:"title" example:"Go for Backend Engineers"`
	Description     *string               `json:"description,omitempty"`
	BasePrice       decimal.Decimal       `json:"basePrice" swaggertype:"string" example:"349.90"`
	DurationHours   int                   `json:"durationHours" example:"40"`
	EnrollmentCount int                   `json:"enrollmentCount" example:"3"`
	Enrollments     []*EnrollmentResponse `json:"enrollments,omitempty"`
}

// NewCourseResponse maps a course model
func NewCourseResponse(c *models.Course) *CourseResponse {
	if c == nil {
		return nil
	}
	resp := &CourseResponse{
		ID:              c.ID,
		Title:           c.Title,
		Description:     c.Description,
		BasePrice:       c.BasePrice,
		DurationHours:   c.DurationHours,
		EnrollmentCount: c.EnrollmentCount,
	}
	if len(c.Enrollments) > 0 {
		resp.Enrollments = NewEnrollmentResponses(c.Enrollments)
	}
	return resp
}

// NewCourseResponses maps a list of courses
func NewCourseResponses(list []*models.Course) []*CourseResponse {
	out := make([]*CourseResponse, 0, len(list))
	for _, c := range list {
		out = append(out, NewCourseResponse(c))
	}
	return out
}
