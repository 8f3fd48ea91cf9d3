package dto

import "github.com/yigit/enrollhub/internal/app/models"

// StudentRequest carries the fields of a student create or update
type StudentRequest struct {
	Name  string  `json:"name" example:"Maria Santos"`
	Email string  `json:"email" example:"maria@example.com"`
	Phone *string `json:"phone,omitempty" example:"(11) 99999-2222"`
}

// ToModel builds the student the request describes. id is zero on create.
func (r StudentRequest) ToModel(id int64) *models.Student {
	return &models.Student{
		ID:    id,
		Name:  r.Name,
		Email: r.Email,
		Phone: r.Phone,
	}
}

// StudentResponse is a student as rendered by the API
type StudentResponse struct {
	ID              int64                 `json:"id" example:"1"`
	Name            string                `json:"name" example:"Maria Santos"`
	Email           string                `json:"email" example:"maria@example.com"`
	Phone           *string               `json:"phone,omitempty"`
	EnrollmentCount int                   `json:"enrollmentCount" example:"2"`
	Enrollments     []*EnrollmentResponse `json:"enrollments,omitempty"`
}

// NewStudentResponse maps a student model
func NewStudentResponse(s *models.Student) *StudentResponse {
	if s == nil {
		return nil
	}
	resp := &StudentResponse{
		ID:              s.ID,
		Name:            s.Name,
		Email:           s.Email,
		Phone:           s.Phone,
		EnrollmentCount: s.EnrollmentCount,
	}
	if len(s.Enrollments) > 0 {
		resp.Enrollments = NewEnrollmentResponses(s.Enrollments)
	}
	return resp
}

// NewStudentResponses maps a list of students
func NewStudentResponses(list []*models.Student) []*StudentResponse {
	out := make([]*StudentResponse, 0, len(list))
	for _, s := range list {
		out = append(out, NewStudentResponse(s))
	}
	return out
}
