package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"campusrooms/internal/metrics"
	"campusrooms/internal/models"
	"campusrooms/internal/service"
)

type createReservationRequest struct {
	RoomID      int64     `json:"room_id"`
	RequesterID int64     `json:"requester_id"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Purpose     string    `json:"purpose"`
}

type actionRequest struct {
	ActorID int64  `json:"actor_id"`
	Reason  string `json:"reason,omitempty"`
}

func (s *HTTPServer) handleReservations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listReservations(w, r)
	case http.MethodPost:
		s.createReservation(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) listReservations(w http.ResponseWriter, r *http.Request) {
	if rawUser := strings.TrimSpace(r.URL.Query().Get("user_id")); rawUser != "" {
		userID, err := strconv.ParseInt(rawUser, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid user_id")
			return
		}
		reservations, err := s.reservations.ListUserReservations(r.Context(), userID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"reservations": reservations})
		return
	}

	reservations, err := s.reservations.ListReservations(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reservations": reservations})
}

func (s *HTTPServer) createReservation(w http.ResponseWriter, r *http.Request) {
	var body createReservationRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.RoomID == 0 || body.RequesterID == 0 {
		writeError(w, http.StatusBadRequest, "room_id and requester_id are required")
		return
	}
	if body.StartTime.IsZero() || body.EndTime.IsZero() {
		writeError(w, http.StatusBadRequest, "start_time and end_time are required")
		return
	}

	if s.limiter != nil {
		window := time.Duration(s.booking.RateLimitWindow) * time.Second
		allowed, err := s.limiter.CheckRateLimit(r.Context(), body.RequesterID, s.booking.RateLimitRequests, window)
		if err != nil {
			s.logger.Error().Err(err).Msg("rate limit check failed")
		} else if !allowed {
			writeError(w, http.StatusTooManyRequests, "too many reservation requests")
			return
		}
	}

	res, err := s.reservations.CreateReservation(r.Context(), service.CreateRequest{
		RoomID:      body.RoomID,
		RequesterID: body.RequesterID,
		StartTime:   body.StartTime,
		EndTime:     body.EndTime,
		Purpose:     body.Purpose,
	})
	if err != nil {
		metrics.IncAdmissionReject(err.Error())
		writeServiceError(w, err)
		return
	}

	metrics.IncTransition(models.ActionCreated)
	writeJSON(w, http.StatusCreated, res)
}

func (s *HTTPServer) handleReservationByID(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/reservations/"
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	parts := strings.Split(strings.Trim(rest, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid reservation id")
		return
	}

	switch {
	case len(parts) == 1:
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.getReservation(w, r, id)
	case len(parts) == 2 && parts[1] == "history":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.getReservationHistory(w, r, id)
	case len(parts) == 2:
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		s.transitionReservation(w, r, id, parts[1])
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *HTTPServer) getReservation(w http.ResponseWriter, r *http.Request, id int64) {
	res, err := s.reservations.GetReservation(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *HTTPServer) getReservationHistory(w http.ResponseWriter, r *http.Request, id int64) {
	entries, err := s.reservations.GetReservationHistory(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": entries})
}

func (s *HTTPServer) transitionReservation(w http.ResponseWriter, r *http.Request, id int64, action string) {
	var body actionRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if body.ActorID == 0 {
		writeError(w, http.StatusBadRequest, "actor_id is required")
		return
	}

	var (
		res *models.Reservation
		err error
	)
	switch action {
	case "approve":
		res, err = s.reservations.ApproveReservation(r.Context(), id, body.ActorID)
	case "reject":
		res, err = s.reservations.RejectReservation(r.Context(), id, body.ActorID, body.Reason)
	case "cancel":
		res, err = s.reservations.CancelReservation(r.Context(), id, body.ActorID, body.Reason)
	default:
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	metrics.IncTransition(res.Status)
	writeJSON(w, http.StatusOK, res)
}

func (s *HTTPServer) handleRooms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rooms, err := s.directory.ListRooms(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms})
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
