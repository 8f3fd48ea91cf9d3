package models

import "time"

// Entity names used in change events
const (
	EntityStudent    = "student"
	EntityCourse     = "course"
	EntityEnrollment = "enrollment"
)

// ChangeKind names what happened to a row
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// ChangeEvent describes a committed write. ID is set for students and
// courses; StudentID and CourseID are set for enrollments.
type ChangeEvent struct {
	Entity    string     `json:"entity"`
	Kind      ChangeKind `json:"kind"`
	ID        int64      `json:"id,omitempty"`
	StudentID int64      `json:"studentId,omitempty"`
	CourseID  int64      `json:"courseId,omitempty"`
	Version   int64      `json:"version,omitempty"`
	Status    string     `json:"status,omitempty"`
	At        time.Time  `json:"at"`
}

// Touches reports whether the event concerns the given student and course.
// A zero id matches anything.
func (e ChangeEvent) Touches(studentID, courseID int64) bool {
	sid, cid := e.StudentID, e.CourseID
	switch e.Entity {
	case EntityStudent:
		sid = e.ID
	case EntityCourse:
		cid = e.ID
	}
	if studentID != 0 && sid != studentID {
		return false
	}
	return courseID == 0 || cid == courseID
}
