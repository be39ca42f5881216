package models

const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusCancelled = "CANCELLED"
)

const (
	RoleStudent = "STUDENT"
	RoleFaculty = "FACULTY_MEMBER"
	RoleAdmin   = "ADMIN"
)

const (
	ActionCreated   = "CREATED"
	ActionApproved  = "APPROVED"
	ActionRejected  = "REJECTED"
	ActionCancelled = "CANCELLED"
)

const (
	// DefaultHorizonDays is how far ahead a reservation may start.
	DefaultHorizonDays = 90

	// DefaultMinLeadMinutes is the minimum notice before a reservation starts.
	DefaultMinLeadMinutes = 60

	// DefaultRateLimitRequests and DefaultRateLimitWindow bound create
	// requests per principal.
	DefaultRateLimitRequests = 20
	DefaultRateLimitWindow   = 60 // seconds

	// ExportQueueSize is the buffered capacity of the export worker queue.
	ExportQueueSize = 64
)

// transitions lists the legal target statuses per source status.
// REJECTED and CANCELLED are terminal.
var transitions = map[string][]string{
	StatusPending:  {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved: {StatusCancelled},
}

// CanTransition reports whether from -> to is a legal lifecycle move.
func CanTransition(from, to string) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether no further transitions exist for status.
func IsTerminalStatus(status string) bool {
	return len(transitions[status]) == 0
}

// ValidStatus reports whether status is one of the four lifecycle states.
func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return true
	}
	return false
}
