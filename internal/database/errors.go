package database

import "errors"

// Sentinel errors returned by the store and the reservation service.
// The API layer maps these onto HTTP status codes with errors.Is.
var (
	ErrUserNotFound        = errors.New("user not found")
	ErrRoomNotFound        = errors.New("room not found")
	ErrReservationNotFound = errors.New("reservation not found")

	ErrInvalidTimeRange     = errors.New("end time must be after start time")
	ErrReasonRequired       = errors.New("a reason is required")
	ErrInsufficientLeadTime = errors.New("reservations require at least the minimum lead time")

	ErrHolidayBlackout = errors.New("reservations are not allowed on holidays")
	ErrOverlap         = errors.New("room is already booked for the selected time")
	ErrPastBooking     = errors.New("cannot book a room in the past")
	ErrHorizonExceeded = errors.New("reservations cannot be made that far in advance")

	ErrInvalidTransition = errors.New("transition not allowed from current status")
	ErrAdminRequired     = errors.New("only admins may perform this action")
	ErrNotOwner          = errors.New("only the requester may cancel this reservation")
	ErrAlreadyStarted    = errors.New("cannot cancel a reservation that has already started")

	ErrConcurrentModification = errors.New("reservation was modified concurrently")
)
