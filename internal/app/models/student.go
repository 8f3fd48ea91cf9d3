package models

import "strings"

// Student defines the student model based on the 'students' table
type Student struct {
	ID    int64   `json:"id" db:"id" example:"1"`
	Name  string  `json:"name" db:"name" validate:"required,max=120" example:"Maria Santos"`
	Email string  `json:"email" db:"email" validate:"required,email,max=120" example:"maria@example.com"`
	Phone *string `json:"phone,omitempty" db:"phone" validate:"omitempty,max=20,phone" example:"(11) 99999-2222"`

	// Derived from enrollments, never stored on the row
	EnrollmentCount int           `json:"enrollmentCount"`
	Enrollments     []*Enrollment `json:"enrollments,omitempty"`
}

// Normalize trims user supplied text and drops an empty phone.
func (s *Student) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.TrimSpace(s.Email)
	if s.Phone != nil {
		phone := strings.TrimSpace(*s.Phone)
		if phone == "" {
			s.Phone = nil
		} else {
			s.Phone = &phone
		}
	}
}

// StudentFilter narrows student listings. Search matches name or email.
type StudentFilter struct {
	Search string
}
