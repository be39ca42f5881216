package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"campusrooms/internal/config"
	"campusrooms/internal/database"
	"campusrooms/internal/domain"
	"campusrooms/internal/metrics"
	"campusrooms/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HTTPServer exposes the reservation engine over a small JSON API.
// Authorization of reservation actions runs inside the service layer
// against an explicit actor id; the API-key auth here identifies the
// calling client system, not the principal.
type HTTPServer struct {
	cfg          config.APIConfig
	booking      config.BookingConfig
	reservations *service.ReservationService
	directory    *service.DirectoryService
	limiter      domain.RateLimiter
	logger       *zerolog.Logger
	server       *http.Server
}

func NewHTTPServer(
	cfg config.APIConfig,
	booking config.BookingConfig,
	reservations *service.ReservationService,
	directory *service.DirectoryService,
	limiter domain.RateLimiter,
	logger *zerolog.Logger,
) *HTTPServer {
	mux := http.NewServeMux()
	srv := &HTTPServer{
		cfg:          cfg,
		booking:      booking,
		reservations: reservations,
		directory:    directory,
		limiter:      limiter,
		logger:       logger,
	}
	auth := NewHTTPAuth(cfg)

	mux.HandleFunc("/api/v1/reservations", srv.handleReservations)
	mux.HandleFunc("/api/v1/reservations/", srv.handleReservationByID)
	mux.HandleFunc("/api/v1/rooms", srv.handleRooms)
	mux.HandleFunc("/api/v1/healthz", srv.handleHealth)

	handler := srv.loggingMiddleware(auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		w.Header().Set("X-Request-Id", requestID)

		next.ServeHTTP(recorder, r)

		metrics.IncHTTP(r.URL.Path)
		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// errorStatus maps store/service sentinel errors onto HTTP statuses.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, database.ErrUserNotFound),
		errors.Is(err, database.ErrRoomNotFound),
		errors.Is(err, database.ErrReservationNotFound):
		return http.StatusNotFound
	case errors.Is(err, database.ErrInvalidTimeRange),
		errors.Is(err, database.ErrReasonRequired),
		errors.Is(err, database.ErrInsufficientLeadTime):
		return http.StatusBadRequest
	case errors.Is(err, database.ErrHolidayBlackout),
		errors.Is(err, database.ErrOverlap),
		errors.Is(err, database.ErrPastBooking),
		errors.Is(err, database.ErrHorizonExceeded),
		errors.Is(err, database.ErrInvalidTransition),
		errors.Is(err, database.ErrConcurrentModification):
		return http.StatusConflict
	case errors.Is(err, database.ErrAdminRequired),
		errors.Is(err, database.ErrNotOwner),
		errors.Is(err, database.ErrAlreadyStarted):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}
