package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Store precision for decimal columns.
const (
	PriceScale = 2 // NUMERIC(18,2)
	GradeScale = 1 // NUMERIC(3,1)
)

// Value bounds shared by the rules and the schema.
const (
	MinProgress = 0
	MaxProgress = 100
)

var (
	MaxPrice      = decimal.NewFromInt(999999)
	MaxFinalGrade = decimal.NewFromInt(10)
)

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusActive    EnrollmentStatus = "Active"
	EnrollmentStatusCompleted EnrollmentStatus = "Completed"
	EnrollmentStatusCancelled EnrollmentStatus = "Cancelled"
)

// EnrollmentStatuses lists the recognized statuses in ordinal order.
var EnrollmentStatuses = []EnrollmentStatus{
	EnrollmentStatusActive,
	EnrollmentStatusCompleted,
	EnrollmentStatusCancelled,
}

// Valid reports whether s is one of the recognized statuses.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentStatusActive, EnrollmentStatusCompleted, EnrollmentStatusCancelled:
		return true
	}
	return false
}

// ParseEnrollmentStatus accepts a status name in any case or its ordinal code ("0", "1", "2").
func ParseEnrollmentStatus(raw string) (EnrollmentStatus, bool) {
	raw = strings.TrimSpace(raw)
	for i, status := range EnrollmentStatuses {
		if strings.EqualFold(raw, string(status)) || raw == fmt.Sprint(i) {
			return status, true
		}
	}
	return "", false
}

// EnrollmentKey is the composite identity of an enrollment.
type EnrollmentKey struct {
	StudentID int64 `json:"studentId"`
	CourseID  int64 `json:"courseId"`
}

func (k EnrollmentKey) String() string {
	return fmt.Sprintf("student=%d course=%d", k.StudentID, k.CourseID)
}

// Enrollment binds one student to one course.
type Enrollment struct {
	StudentID  int64            `json:"studentId" db:"student_id"`
	CourseID   int64            `json:"courseId" db:"course_id"`
	EnrolledAt time.Time        `json:"enrolledAt" db:"enrolled_at"`
	PricePaid  decimal.Decimal  `json:"pricePaid" db:"price_paid"`
	Status     EnrollmentStatus `json:"status" db:"status"`
	Progress   int              `json:"progress" db:"progress"`
	FinalGrade *decimal.Decimal `json:"finalGrade,omitempty" db:"final_grade"` // Nullable
	Version    int64            `json:"version" db:"version"`

	// Relations (populated on reads)
	Student *Student `json:"student,omitempty"`
	Course  *Course  `json:"course,omitempty"`
}

// Key returns the composite identity of e.
func (e *Enrollment) Key() EnrollmentKey {
	return EnrollmentKey{StudentID: e.StudentID, CourseID: e.CourseID}
}

// HasPositiveGrade reports whether a final grade above zero is recorded.
func (e *Enrollment) HasPositiveGrade() bool {
	return e.FinalGrade != nil && e.FinalGrade.IsPositive()
}

// EnrollmentDraft is a create request. Nil fields take their defaults:
// EnrolledAt becomes the creation time and PricePaid the course base price.
type EnrollmentDraft struct {
	StudentID  int64
	CourseID   int64
	EnrolledAt *time.Time
	PricePaid  *decimal.Decimal
	Status     string
	Progress   int
	FinalGrade *decimal.Decimal
}

// Key returns the composite identity the draft targets.
func (d EnrollmentDraft) Key() EnrollmentKey {
	return EnrollmentKey{StudentID: d.StudentID, CourseID: d.CourseID}
}

// EnrollmentChanges carries a partial update. Nil fields are left untouched.
type EnrollmentChanges struct {
	EnrolledAt      *time.Time
	PricePaid       *decimal.Decimal
	Status          *string
	Progress        *int
	FinalGrade      *decimal.Decimal
	ClearFinalGrade bool
	ExpectedVersion *int64
}

// Apply merges the changes into a copy of e. A blank status leaves the
// current one; any other status is copied verbatim and the rules decide how
// unrecognized values are treated.
func (c EnrollmentChanges) Apply(e Enrollment) Enrollment {
	if c.EnrolledAt != nil {
		e.EnrolledAt = *c.EnrolledAt
	}
	if c.PricePaid != nil {
		e.PricePaid = *c.PricePaid
	}
	if c.Status != nil && strings.TrimSpace(*c.Status) != "" {
		e.Status = EnrollmentStatus(*c.Status)
	}
	if c.Progress != nil {
		e.Progress = *c.Progress
	}
	if c.ClearFinalGrade {
		e.FinalGrade = nil
	} else if c.FinalGrade != nil {
		grade := *c.FinalGrade
		e.FinalGrade = &grade
	}
	return e
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	Search string // student name or course title, case-insensitive substring
	Status *EnrollmentStatus
}
