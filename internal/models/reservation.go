package models

import "time"

// Reservation is a request to use a room for the half-open window
// [StartTime, EndTime). Status moves through the moderation lifecycle;
// Version guards concurrent transitions.
type Reservation struct {
	ID          int64     `json:"id"`
	RoomID      int64     `json:"room_id"`
	RequesterID int64     `json:"requester_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Purpose     string    `json:"purpose"`
	Status      string    `json:"status"`
	Reason      string    `json:"reason,omitempty"` // set on rejection or cancellation
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Version     int64     `json:"version"`
}

// TransitionParams describes one lifecycle transition plus the audit
// entry documenting it. SetReason distinguishes "store this reason"
// (rejection, cancellation) from "leave the column alone" (approval).
type TransitionParams struct {
	ReservationID int64
	FromVersion   int64
	FromStatus    string
	ToStatus      string
	Action        string
	ActorID       int64
	Reason        string
	SetReason     bool
}

// AuditEntry records one accepted reservation transition. Entries are
// append-only and written in the same transaction as the mutation they
// document.
type AuditEntry struct {
	ID             int64     `json:"id"`
	ReservationID  int64     `json:"reservation_id"`
	ActorID        int64     `json:"actor_id"`
	PreviousStatus string    `json:"previous_status"`
	NewStatus      string    `json:"new_status"`
	Action         string    `json:"action"`
	Reason         string    `json:"reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
