// Package rules holds the side-effect free checks run against candidate
// records before they are persisted.
package rules

import (
	"fmt"

	"github.com/yigit/enrollhub/internal/app/models"
	"github.com/yigit/enrollhub/internal/pkg/validation"
)

// Mode selects which rules apply to a candidate enrollment.
type Mode int

const (
	ModeCreate Mode = iota
	ModeUpdate
)

func (m Mode) String() string {
	if m == ModeUpdate {
		return "update"
	}
	return "create"
}

// Field names used on enrollment violations.
const (
	FieldStudentID  = "studentId"
	FieldCourseID   = "courseId"
	FieldStatus     = "status"
	FieldProgress   = "progress"
	FieldFinalGrade = "finalGrade"
	FieldPricePaid  = "pricePaid"
)

// Options tunes the engine.
type Options struct {
	// StrictStatus rejects unrecognized status values instead of defaulting them to Active.
	StrictStatus bool
}

// Engine evaluates enrollment rules. It holds no state besides its options
// and is safe for concurrent use.
type Engine struct {
	opts Options
}

// NewEngine creates a rule engine
func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts}
}

// EnrollmentInput is everything the rules need to judge a candidate.
type EnrollmentInput struct {
	Candidate models.Enrollment
	// Existing holds the persisted enrollments sharing the candidate's key.
	Existing     []models.Enrollment
	StudentFound bool
	CourseFound  bool
	Mode         Mode
}

// EnrollmentResult is the normalized candidate and every rule it failed.
type EnrollmentResult struct {
	Enrollment      models.Enrollment
	Violations      validation.Violations
	StatusDefaulted bool
}

// Valid reports whether the candidate passed every rule.
func (r EnrollmentResult) Valid() bool {
	return !r.Violations.HasErrors()
}

// CheckEnrollment runs all rules against the candidate. Every rule is
// evaluated; callers get the complete set of failures.
func (e *Engine) CheckEnrollment(in EnrollmentInput) EnrollmentResult {
	res := EnrollmentResult{Enrollment: in.Candidate}
	cand := &res.Enrollment
	var v validation.Violations

	// References
	if cand.StudentID <= 0 {
		v = v.Add(FieldStudentID, validation.RuleRequired, "a student must be selected")
	} else if !in.StudentFound {
		v = v.Add(FieldStudentID, validation.RuleReference, fmt.Sprintf("student %d does not exist", cand.StudentID))
	}
	if cand.CourseID <= 0 {
		v = v.Add(FieldCourseID, validation.RuleRequired, "a course must be selected")
	} else if !in.CourseFound {
		v = v.Add(FieldCourseID, validation.RuleReference, fmt.Sprintf("course %d does not exist", cand.CourseID))
	}

	// One enrollment per (student, course)
	if in.Mode == ModeCreate && len(in.Existing) > 0 {
		v = append(v, DuplicateEnrollment())
	}

	// Status
	statusKnown := true
	if status, ok := models.ParseEnrollmentStatus(string(cand.Status)); ok {
		cand.Status = status
	} else if cand.Status == "" || !e.opts.StrictStatus {
		cand.Status = models.EnrollmentStatusActive
		res.StatusDefaulted = in.Candidate.Status != ""
	} else {
		statusKnown = false
		v = v.Add(FieldStatus, validation.RuleUnknownStatus, fmt.Sprintf("unknown status %q", string(cand.Status)))
	}

	if cand.Progress < models.MinProgress || cand.Progress > models.MaxProgress {
		v = v.Add(FieldProgress, validation.RuleRange, "progress must be between 0 and 100")
	}

	if statusKnown && cand.Status == models.EnrollmentStatusCompleted && cand.Progress != models.MaxProgress {
		v = v.Add(FieldStatus, validation.RuleCompletedProgress, "status can only be Completed when progress is 100%")
	}

	if cand.FinalGrade != nil {
		grade := cand.FinalGrade.Round(models.GradeScale)
		cand.FinalGrade = &grade
		if grade.IsNegative() || grade.GreaterThan(models.MaxFinalGrade) {
			v = v.Add(FieldFinalGrade, validation.RuleRange, "final grade must be between 0 and 10")
		}
	}
	if cand.HasPositiveGrade() && cand.Progress < models.MaxProgress {
		v = v.Add(FieldFinalGrade, validation.RuleGradeProgress, "final grade can only be set when progress is 100%")
	}

	cand.PricePaid = cand.PricePaid.Round(models.PriceScale)
	if cand.PricePaid.IsNegative() || cand.PricePaid.GreaterThan(models.MaxPrice) {
		v = v.Add(FieldPricePaid, validation.RuleRange, "price paid must be between 0 and 999999")
	}

	res.Violations = v
	return res
}

// DuplicateEnrollment is the unscoped violation reported for an existing key.
func DuplicateEnrollment() validation.Violation {
	return validation.Violation{
		Rule:    validation.RuleDuplicate,
		Message: "this student is already enrolled in this course",
	}
}

// MissingParent is the violation reported when a referenced student or
// course disappears before the enrollment is written.
func MissingParent(field string, id int64) validation.Violation {
	entity := "student"
	if field == FieldCourseID {
		entity = "course"
	}
	return validation.Violation{
		Field:   field,
		Rule:    validation.RuleReference,
		Message: fmt.Sprintf("%s %d does not exist", entity, id),
	}
}
