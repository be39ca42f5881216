package domain

import (
	"context"
	"time"

	"campusrooms/internal/models"
)

// OverlapIndex answers which currently counted reservations intersect a
// half-open window. Only APPROVED reservations are counted.
type OverlapIndex interface {
	FindConflicting(ctx context.Context, roomID int64, start, end time.Time) ([]*models.Reservation, error)
}

// ReservationStore is the durable record of reservations and their audit
// trail. Mutations are atomic: the status change and its audit entry
// commit together or not at all.
type ReservationStore interface {
	OverlapIndex

	CreateReservation(ctx context.Context, res *models.Reservation) error
	ApplyTransition(ctx context.Context, p models.TransitionParams) error
	GetReservation(ctx context.Context, id int64) (*models.Reservation, error)
	ListReservations(ctx context.Context) ([]*models.Reservation, error)
	ListUserReservations(ctx context.Context, userID int64) ([]*models.Reservation, error)
	GetReservationsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Reservation, error)
	ListAuditEntries(ctx context.Context, reservationID int64) ([]*models.AuditEntry, error)
}

// Directory resolves principals and rooms. Read-only from the core's
// point of view.
type Directory interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetRoom(ctx context.Context, id int64) (*models.Room, error)
	ListRooms(ctx context.Context) ([]*models.Room, error)
}

// CalendarOracle reports blackout dates. A blackout blocks reservations
// starting anywhere on that calendar day.
type CalendarOracle interface {
	IsHolidayDate(ctx context.Context, at time.Time) (bool, error)
}

// EventPublisher fans domain events out to in-process subscribers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// ExportWorker accepts reservation report requests for asynchronous
// processing.
type ExportWorker interface {
	EnqueueExport(ctx context.Context, start, end time.Time) error
}

// RateLimiter answers whether a principal is within its request budget
// for a rolling window.
type RateLimiter interface {
	CheckRateLimit(ctx context.Context, principalID int64, limit int, window time.Duration) (bool, error)
}
