package service

import (
	"context"
	"strings"
	"time"

	"campusrooms/internal/database"
	"campusrooms/internal/domain"
	"campusrooms/internal/events"
	"campusrooms/internal/models"

	"github.com/rs/zerolog"
)

// ReservationService is the reservation admission and lifecycle engine.
// It validates new requests against the directory, the holiday calendar
// and the overlap index, and moves reservations through the moderated
// PENDING -> APPROVED/REJECTED/CANCELLED workflow. Every accepted
// transition is persisted together with exactly one audit entry.
type ReservationService struct {
	store          domain.ReservationStore
	directory      domain.Directory
	calendar       domain.CalendarOracle
	eventBus       domain.EventPublisher
	exporter       domain.ExportWorker
	horizonDays    int
	minLead        time.Duration
	strictApproval bool
	logger         *zerolog.Logger
}

// Policy carries the configurable admission knobs.
type Policy struct {
	HorizonDays    int
	MinLeadMinutes int
	StrictApproval bool
}

func NewReservationService(
	store domain.ReservationStore,
	directory domain.Directory,
	calendar domain.CalendarOracle,
	eventBus domain.EventPublisher,
	exporter domain.ExportWorker,
	policy Policy,
	logger *zerolog.Logger,
) *ReservationService {
	if policy.HorizonDays <= 0 {
		policy.HorizonDays = models.DefaultHorizonDays
	}
	if policy.MinLeadMinutes <= 0 {
		policy.MinLeadMinutes = models.DefaultMinLeadMinutes
	}
	return &ReservationService{
		store:          store,
		directory:      directory,
		calendar:       calendar,
		eventBus:       eventBus,
		exporter:       exporter,
		horizonDays:    policy.HorizonDays,
		minLead:        time.Duration(policy.MinLeadMinutes) * time.Minute,
		strictApproval: policy.StrictApproval,
		logger:         logger,
	}
}

// CreateRequest is an incoming reservation request. RequesterID is the
// acting principal; there is no ambient security context.
type CreateRequest struct {
	RoomID      int64
	RequesterID int64
	StartTime   time.Time
	EndTime     time.Time
	Purpose     string
}

// CreateReservation runs the admission checks in a fixed order; the
// first failing check wins and nothing is persisted. On success the
// reservation is stored PENDING with its CREATED audit entry in one
// transaction.
func (s *ReservationService) CreateReservation(ctx context.Context, req CreateRequest) (*models.Reservation, error) {
	requester, err := s.directory.GetUser(ctx, req.RequesterID)
	if err != nil {
		return nil, err
	}

	room, err := s.directory.GetRoom(ctx, req.RoomID)
	if err != nil {
		return nil, err
	}

	blackout, err := s.calendar.IsHolidayDate(ctx, req.StartTime)
	if err != nil {
		return nil, err
	}
	if blackout {
		return nil, database.ErrHolidayBlackout
	}

	if !req.EndTime.After(req.StartTime) {
		return nil, database.ErrInvalidTimeRange
	}

	conflicts, err := s.store.FindConflicting(ctx, room.ID, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, database.ErrOverlap
	}

	now := time.Now()
	if !req.StartTime.After(now) {
		return nil, database.ErrPastBooking
	}
	if req.StartTime.After(now.AddDate(0, 0, s.horizonDays)) {
		return nil, database.ErrHorizonExceeded
	}
	if req.StartTime.Before(now.Add(s.minLead)) {
		return nil, database.ErrInsufficientLeadTime
	}

	res := &models.Reservation{
		RoomID:      room.ID,
		RequesterID: requester.ID,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Purpose:     req.Purpose,
	}
	if err := s.store.CreateReservation(ctx, res); err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("reservation_id", res.ID).
		Int64("room_id", room.ID).
		Int64("requester_id", requester.ID).
		Str("role", requester.Role).
		Msg("reservation created")

	s.publishEvent(events.EventReservationCreated, res, requester.ID)
	s.enqueueExport(ctx, res)
	return res, nil
}

// ApproveReservation moves a PENDING reservation to APPROVED. Admin
// only. Overlap against other APPROVED reservations is not re-checked
// unless strict approval is enabled; admins are the final arbiter of
// conflicting PENDING requests.
func (s *ReservationService) ApproveReservation(ctx context.Context, id, actorID int64) (*models.Reservation, error) {
	actor, err := s.directory.GetUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, database.ErrAdminRequired
	}

	res, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.Status != models.StatusPending {
		return nil, database.ErrInvalidTransition
	}

	if s.strictApproval {
		conflicts, err := s.store.FindConflicting(ctx, res.RoomID, res.StartTime, res.EndTime)
		if err != nil {
			return nil, err
		}
		if len(conflicts) > 0 {
			return nil, database.ErrOverlap
		}
	}

	err = s.store.ApplyTransition(ctx, models.TransitionParams{
		ReservationID: id,
		FromVersion:   res.Version,
		FromStatus:    models.StatusPending,
		ToStatus:      models.StatusApproved,
		Action:        models.ActionApproved,
		ActorID:       actorID,
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("reservation_id", id).
		Int64("actor_id", actorID).
		Msg("reservation approved")

	s.publishEvent(events.EventReservationApproved, updated, actorID)
	s.enqueueExport(ctx, updated)
	return updated, nil
}

// RejectReservation moves a PENDING reservation to REJECTED. Admin
// only; the reason is mandatory and stored verbatim.
func (s *ReservationService) RejectReservation(ctx context.Context, id, actorID int64, reason string) (*models.Reservation, error) {
	actor, err := s.directory.GetUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		return nil, database.ErrAdminRequired
	}

	if strings.TrimSpace(reason) == "" {
		return nil, database.ErrReasonRequired
	}

	res, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.Status != models.StatusPending {
		return nil, database.ErrInvalidTransition
	}

	err = s.store.ApplyTransition(ctx, models.TransitionParams{
		ReservationID: id,
		FromVersion:   res.Version,
		FromStatus:    models.StatusPending,
		ToStatus:      models.StatusRejected,
		Action:        models.ActionRejected,
		ActorID:       actorID,
		Reason:        reason,
		SetReason:     true,
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("reservation_id", id).
		Int64("actor_id", actorID).
		Msg("reservation rejected")

	s.publishEvent(events.EventReservationRejected, updated, actorID)
	s.enqueueExport(ctx, updated)
	return updated, nil
}

// CancelReservation moves a PENDING or APPROVED reservation to
// CANCELLED. Admins may cancel anything; everyone else only their own
// reservations, and only before the window starts. The reason is
// optional.
func (s *ReservationService) CancelReservation(ctx context.Context, id, actorID int64, reason string) (*models.Reservation, error) {
	res, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	actor, err := s.directory.GetUser(ctx, actorID)
	if err != nil {
		return nil, err
	}

	if !models.CanTransition(res.Status, models.StatusCancelled) {
		return nil, database.ErrInvalidTransition
	}

	if !actor.IsAdmin() {
		if res.RequesterID != actorID {
			return nil, database.ErrNotOwner
		}
		if !res.StartTime.After(time.Now()) {
			return nil, database.ErrAlreadyStarted
		}
	}

	err = s.store.ApplyTransition(ctx, models.TransitionParams{
		ReservationID: id,
		FromVersion:   res.Version,
		FromStatus:    res.Status,
		ToStatus:      models.StatusCancelled,
		Action:        models.ActionCancelled,
		ActorID:       actorID,
		Reason:        reason,
		SetReason:     true,
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Int64("reservation_id", id).
		Int64("actor_id", actorID).
		Str("previous_status", res.Status).
		Msg("reservation cancelled")

	s.publishEvent(events.EventReservationCancelled, updated, actorID)
	s.enqueueExport(ctx, updated)
	return updated, nil
}

func (s *ReservationService) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	return s.store.GetReservation(ctx, id)
}

func (s *ReservationService) ListReservations(ctx context.Context) ([]*models.Reservation, error) {
	return s.store.ListReservations(ctx)
}

func (s *ReservationService) ListUserReservations(ctx context.Context, userID int64) ([]*models.Reservation, error) {
	if _, err := s.directory.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	return s.store.ListUserReservations(ctx, userID)
}

// GetReservationHistory returns the audit trail in transition order.
func (s *ReservationService) GetReservationHistory(ctx context.Context, id int64) ([]*models.AuditEntry, error) {
	if _, err := s.store.GetReservation(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListAuditEntries(ctx, id)
}

// FindConflicting exposes the overlap index for callers that want to
// inspect APPROVED conflicts without creating anything.
func (s *ReservationService) FindConflicting(ctx context.Context, roomID int64, start, end time.Time) ([]*models.Reservation, error) {
	return s.store.FindConflicting(ctx, roomID, start, end)
}

func (s *ReservationService) publishEvent(eventType string, res *models.Reservation, actorID int64) {
	if s.eventBus == nil {
		return
	}

	payload := events.ReservationEventPayload{
		ReservationID: res.ID,
		RoomID:        res.RoomID,
		RequesterID:   res.RequesterID,
		Status:        res.Status,
		StartTime:     res.StartTime,
		EndTime:       res.EndTime,
		Reason:        res.Reason,
		ActorID:       actorID,
	}

	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("reservation_id", res.ID).Msg("publish event error")
	}
}

func (s *ReservationService) enqueueExport(ctx context.Context, res *models.Reservation) {
	if s.exporter == nil {
		return
	}

	day := res.StartTime.Truncate(24 * time.Hour)
	if err := s.exporter.EnqueueExport(ctx, day, day.AddDate(0, 0, 1)); err != nil {
		s.logger.Error().Err(err).Int64("reservation_id", res.ID).Msg("export enqueue error")
	}
}
