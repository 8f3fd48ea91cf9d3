package models

// RoleType defines the role carried by an API token
type RoleType string

const (
	RoleAdmin  RoleType = "ADMIN"  // May mutate students, courses and enrollments
	RoleViewer RoleType = "VIEWER" // Read-only access
)

// Stats summarizes the store for the diagnostics endpoint
type Stats struct {
	ConnectionOK bool  `json:"connectionOk"`
	Students     int64 `json:"students"`
	Courses      int64 `json:"courses"`
	Enrollments  int64 `json:"enrollments"`
	// Error describes why the store could not be reached
	Error string `json:"error,omitempty"`
}
