package models

import "time"

// Room is the read-only catalog view the reservation core consumes.
// The core does not reject reservations for inactive rooms; the catalog
// layer owns that policy.
type Room struct {
	ID       int64  `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Capacity int64  `json:"capacity" yaml:"capacity"`
	IsActive bool   `json:"is_active" yaml:"is_active"`
}

// User is the read-only principal view: identity plus the role that
// drives authorization decisions.
type User struct {
	ID        int64     `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Email     string    `json:"email" yaml:"email"`
	Role      string    `json:"role" yaml:"role"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
}

// IsAdmin reports whether the user carries the ADMIN role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Holiday blocks reservations starting on its calendar date, whole day,
// while active.
type Holiday struct {
	Date     string `json:"date" yaml:"date"` // YYYY-MM-DD
	Name     string `json:"name" yaml:"name"`
	IsActive bool   `json:"is_active" yaml:"is_active"`
}

// ExportTask asks the export worker to write a reservation report
// covering [StartDate, EndDate].
type ExportTask struct {
	StartDate time.Time
	EndDate   time.Time
	CreatedAt time.Time
}
