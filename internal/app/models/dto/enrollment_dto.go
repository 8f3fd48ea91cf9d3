package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yigit/enrollhub/internal/app/integrity"
	"github.com/yigit/enrollhub/internal/app/models"
)

// StatusInput accepts a status name or its ordinal code, quoted or as a
// bare JSON number
type StatusInput string

// UnmarshalJSON implements json.Unmarshaler
func (s *StatusInput) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return err
		}
		*s = StatusInput(name)
		return nil
	}
	var code json.Number
	if err := json.Unmarshal(data, &code); err != nil {
		return err
	}
	*s = StatusInput(code.String())
	return nil
}

// CreateEnrollmentRequest represents a new enrollment. Omitted enrolledAt
// and pricePaid take the creation time and the course base price.
type CreateEnrollmentRequest struct {
	StudentID  int64            `json:"studentId" example:"1"`
	CourseID   int64            `json:"courseId" example:"1"`
	EnrolledAt *time.Time       `json:"enrolledAt,omitempty"`
	PricePaid  *decimal.Decimal `json:"pricePaid,omitempty" swaggertype:"string" example:"349.90"`
	Status     StatusInput      `json:"status,omitempty" swaggertype:"string" example:"Active" enums:"Active,Completed,Cancelled"`
	Progress   int              `json:"progress" example:"0"`
	FinalGrade *decimal.Decimal `json:"finalGrade,omitempty" swaggertype:"string" example:"9.5"`
}

// ToDraft converts the request for the enrollment service
func (r CreateEnrollmentRequest) ToDraft() models.EnrollmentDraft {
	return models.EnrollmentDraft{
		StudentID:  r.StudentID,
		CourseID:   r.CourseID,
		EnrolledAt: r.EnrolledAt,
		PricePaid:  r.PricePaid,
		Status:     string(r.Status),
		Progress:   r.Progress,
		FinalGrade: r.FinalGrade,
	}
}

// UpdateEnrollmentRequest is a partial update. Absent fields keep their value.
type UpdateEnrollmentRequest struct {
	EnrolledAt      *time.Time       `json:"enrolledAt,omitempty"`
	PricePaid       *decimal.Decimal `json:"pricePaid,omitempty" swaggertype:"string"`
	Status          *StatusInput     `json:"status,omitempty" swaggertype:"string" enums:"Active,Completed,Cancelled"`
	Progress        *int             `json:"progress,omitempty"`
	FinalGrade      *decimal.Decimal `json:"finalGrade,omitempty" swaggertype:"string"`
	ClearFinalGrade bool             `json:"clearFinalGrade,omitempty"`
	ExpectedVersion *int64           `json:"expectedVersion,omitempty" example:"1"`
}

// ToChanges converts the request for the enrollment service
func (r UpdateEnrollmentRequest) ToChanges() models.EnrollmentChanges {
	var status *string
	if r.Status != nil {
		raw := string(*r.Status)
		status = &raw
	}
	return models.EnrollmentChanges{
		EnrolledAt:      r.EnrolledAt,
		PricePaid:       r.PricePaid,
		Status:          status,
		Progress:        r.Progress,
		FinalGrade:      r.FinalGrade,
		ClearFinalGrade: r.ClearFinalGrade,
		ExpectedVersion: r.ExpectedVersion,
	}
}

// EnrollmentResponse is an enrollment as rendered by the API
type EnrollmentResponse struct {
	StudentID    int64            `json:"studentId" example:"1"`
	CourseID     int64            `json:"courseId" example:"1"`
	StudentName  string           `json:"studentName,omitempty" example:"Maria Santos"`
	StudentEmail string           `json:"studentEmail,omitempty" example:"maria@example.com"`
	CourseTitle  string           `json:"courseTitle,omitempty" example:"Go for Backend Engineers"`
	EnrolledAt   time.Time        `json:"enrolledAt"`
	PricePaid    decimal.Decimal  `json:"pricePaid" swaggertype:"string" example:"349.90"`
	Status       string           `json:"status" example:"Active"`
	Progress     int              `json:"progress" example:"40"`
	FinalGrade   *decimal.Decimal `json:"finalGrade,omitempty" swaggertype:"string"`
	Version      int64            `json:"version" example:"1"`
}

// NewEnrollmentResponse maps an enrollment model
func NewEnrollmentResponse(e *models.Enrollment) *EnrollmentResponse {
	if e == nil {
		return nil
	}
	resp := &EnrollmentResponse{
		StudentID:  e.StudentID,
		CourseID:   e.CourseID,
		EnrolledAt: e.EnrolledAt,
		PricePaid:  e.PricePaid,
		Status:     string(e.Status),
		Progress:   e.Progress,
		FinalGrade: e.FinalGrade,
		Version:    e.Version,
	}
	if e.Student != nil {
		resp.StudentName = e.Student.Name
		resp.StudentEmail = e.Student.Email
	}
	if e.Course != nil {
		resp.CourseTitle = e.Course.Title
	}
	return resp
}

// NewEnrollmentResponses maps a list of enrollments
func NewEnrollmentResponses(list []*models.Enrollment) []*EnrollmentResponse {
	out := make([]*EnrollmentResponse, 0, len(list))
	for _, e := range list {
		out = append(out, NewEnrollmentResponse(e))
	}
	return out
}

// DeletableResponse answers whether a student or course may be deleted
type DeletableResponse struct {
	Entity      string `json:"entity" example:"student"`
	ID          int64  `json:"id" example:"1"`
	Allowed     bool   `json:"allowed" example:"false"`
	Reason      string `json:"reason,omitempty" example:"student has 2 enrollment(s)"`
	Enrollments int    `json:"enrollments" example:"2"`
}

// NewDeletableResponse maps a guard decision for ref
func NewDeletableResponse(ref integrity.EntityRef, d integrity.Decision) DeletableResponse {
	return DeletableResponse{
		Entity:      string(ref.Kind),
		ID:          ref.ID,
		Allowed:     d.Allowed,
		Reason:      d.Reason,
		Enrollments: d.Enrollments,
	}
}
