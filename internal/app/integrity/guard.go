// Package integrity decides whether a student or course may be removed
// while enrollments still reference it.
package integrity

import (
	"fmt"

	"github.com/yigit/enrollhub/internal/pkg/apperrors"
)

// EntityKind names a parent of enrollments.
type EntityKind string

const (
	KindStudent EntityKind = "student"
	KindCourse  EntityKind = "course"
)

// EntityRef identifies a student or course.
type EntityRef struct {
	Kind EntityKind
	ID   int64
}

// StudentRef returns a reference to the student with the given id.
func StudentRef(id int64) EntityRef {
	return EntityRef{Kind: KindStudent, ID: id}
}

// CourseRef returns a reference to the course with the given id.
func CourseRef(id int64) EntityRef {
	return EntityRef{Kind: KindCourse, ID: id}
}

func (r EntityRef) String() string {
	return fmt.Sprintf("%s %d", r.Kind, r.ID)
}

// Decision is the outcome of a deletion check.
type Decision struct {
	Allowed     bool   `json:"allowed"`
	Reason      string `json:"reason,omitempty"`
	Enrollments int    `json:"enrollments"`
}

// Guard evaluates the deletion policy. The zero value is ready to use.
type Guard struct{}

// NewGuard creates a Guard
func NewGuard() *Guard {
	return &Guard{}
}

// Evaluate allows the deletion only when no enrollment references the entity.
func (g *Guard) Evaluate(ref EntityRef, enrollments int) Decision {
	if enrollments > 0 {
		return Decision{
			Allowed:     false,
			Reason:      fmt.Sprintf("the %s has %d enrollment(s); remove them first", ref.Kind, enrollments),
			Enrollments: enrollments,
		}
	}
	return Decision{Allowed: true}
}

// Denial converts a refused decision into the error returned to callers.
func (g *Guard) Denial(ref EntityRef, d Decision) *apperrors.IntegrityDenial {
	reason := d.Reason
	if reason == "" {
		reason = fmt.Sprintf("the %s is still referenced by enrollments", ref.Kind)
	}
	return &apperrors.IntegrityDenial{
		Entity:      string(ref.Kind),
		ID:          ref.ID,
		Enrollments: d.Enrollments,
		Reason:      reason,
	}
}
