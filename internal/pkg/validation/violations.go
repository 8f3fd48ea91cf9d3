package validation

import "strings"

// Rule identifiers reported on violations.
const (
	RuleRequired          = "required"
	RuleRange             = "range"
	RuleReference         = "reference"
	RuleUnique            = "unique"
	RuleDuplicate         = "duplicate"
	RuleUnknownStatus     = "unknown_status"
	RuleCompletedProgress = "completed_requires_full_progress"
	RuleGradeProgress     = "grade_requires_full_progress"
)

// Violation is a single failed rule. An empty Field means the violation
// applies to the record as a whole.
type Violation struct {
	Field   string `json:"field,omitempty"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Violations is the full set of failed rules for one candidate.
type Violations []Violation

// Add appends a violation and returns the extended set.
func (v Violations) Add(field, rule, message string) Violations {
	return append(v, Violation{Field: field, Rule: rule, Message: message})
}

// HasErrors checks if there are any violations
func (v Violations) HasErrors() bool {
	return len(v) > 0
}

// OnField returns the violations scoped to field ("" for unscoped ones).
func (v Violations) OnField(field string) Violations {
	var out Violations
	for _, violation := range v {
		if violation.Field == field {
			out = append(out, violation)
		}
	}
	return out
}

// HasRule reports whether any violation was produced by rule.
func (v Violations) HasRule(rule string) bool {
	for _, violation := range v {
		if violation.Rule == rule {
			return true
		}
	}
	return false
}

func (v Violations) Error() string {
	parts := make([]string, 0, len(v))
	for _, violation := range v {
		if violation.Field == "" {
			parts = append(parts, violation.Message)
			continue
		}
		parts = append(parts, violation.Field+": "+violation.Message)
	}
	return strings.Join(parts, "; ")
}
