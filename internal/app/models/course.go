package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Course represents a course students can enroll in.
type Course struct {
	ID            int64           `json:"id" db:"id"`
	Title         string          `json:"title" db:"title" validate:"required,max=120"`
	Description   *string         `json:"description,omitempty" db:"description" validate:"omitempty,max=500"` // Nullable
	BasePrice     decimal.Decimal `json:"basePrice" db:"base_price"`
	DurationHours int             `json:"durationHours" db:"duration_hours" validate:"min=1,max=9999"`

	EnrollmentCount int           `json:"enrollmentCount"`
	Enrollments     []*Enrollment `json:"enrollments,omitempty"`
}

// Normalize trims text fields and rounds the price to store precision.
func (c *Course) Normalize() {
	c.Title = strings.TrimSpace(c.Title)
	if c.Description != nil {
		desc := strings.TrimSpace(*c.Description)
		if desc == "" {
			c.Description = nil
		} else {
			c.Description = &desc
		}
	}
	c.BasePrice = c.BasePrice.Round(PriceScale)
}

// CourseFilter narrows course listings. Search matches the title.
type CourseFilter struct {
	Search string
}
