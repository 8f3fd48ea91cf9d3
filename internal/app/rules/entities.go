package rules

import (
	"github.com/yigit/enrollhub/internal/app/models"
	"github.com/yigit/enrollhub/internal/pkg/validation"
)

// Field names used on student and course violations.
const (
	FieldEmail     = "email"
	FieldBasePrice = "basePrice"
)

// CheckStudent validates student fields. Email uniqueness needs the store
// and is reported separately through EmailTaken.
func CheckStudent(s models.Student) validation.Violations {
	return validation.Struct(s)
}

// EmailTaken is the violation reported when another student owns the email.
func EmailTaken() validation.Violation {
	return validation.Violation{
		Field:   FieldEmail,
		Rule:    validation.RuleUnique,
		Message: "this email is already used by another student",
	}
}

// CheckCourse validates course fields.
func CheckCourse(c models.Course) validation.Violations {
	v := validation.Struct(c)
	if c.BasePrice.IsNegative() || c.BasePrice.GreaterThan(models.MaxPrice) {
		v = v.Add(FieldBasePrice, validation.RuleRange, "base price must be between 0 and 999999")
	}
	return v
}
