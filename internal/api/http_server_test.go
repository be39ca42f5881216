package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"campusrooms/internal/config"
	"campusrooms/internal/database"
	"campusrooms/internal/models"
	"campusrooms/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestServer(t *testing.T, apiCfg config.APIConfig) *httptest.Server {
	logger := zerolog.New(os.Stdout)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, db.UpsertRoom(ctx, &models.Room{ID: 1, Name: "R201", Capacity: 12, IsActive: true}))
	require.NoError(t, db.UpsertUser(ctx, &models.User{ID: 1, Name: "Dana", Email: "dana@example.edu", Role: models.RoleAdmin}))
	require.NoError(t, db.UpsertUser(ctx, &models.User{ID: 3, Name: "Tom", Email: "tom@example.edu", Role: models.RoleStudent}))

	reservations := service.NewReservationService(db, db, db, nil, nil, service.Policy{
		HorizonDays:    90,
		MinLeadMinutes: 60,
	}, &logger)
	directory := service.NewDirectoryService(db, &logger)

	booking := config.BookingConfig{HorizonDays: 90, MinLeadMinutes: 60}
	srv := NewHTTPServer(apiCfg, booking, reservations, directory, nil, &logger)

	ts := httptest.NewServer(srv.server.Handler)
	t.Cleanup(ts.Close)
	return ts
}

func openAPI() config.APIConfig {
	return config.APIConfig{Enabled: true}
}

func postJSON(t *testing.T, client *http.Client, url string, payload any) *http.Response {
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func createPayload() map[string]any {
	start := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	return map[string]any{
		"room_id":      1,
		"requester_id": 3,
		"start_time":   start.Format(time.RFC3339),
		"end_time":     start.Add(2 * time.Hour).Format(time.RFC3339),
		"purpose":      "study group",
	}
}

func TestCreateReservationEndpoint(t *testing.T) {
	ts := setupTestServer(t, openAPI())

	resp := postJSON(t, ts.Client(), ts.URL+"/api/v1/reservations", createPayload())
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	var res models.Reservation
	decodeBody(t, resp, &res)
	assert.NotZero(t, res.ID)
	assert.Equal(t, models.StatusPending, res.Status)
}

func TestCreateReservationBadRequests(t *testing.T) {
	ts := setupTestServer(t, openAPI())
	url := ts.URL + "/api/v1/reservations"

	resp, err := ts.Client().Post(url, "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	missing := createPayload()
	delete(missing, "room_id")
	resp = postJSON(t, ts.Client(), url, missing)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	unknown := createPayload()
	unknown["room_id"] = 999
	resp = postJSON(t, ts.Client(), url, unknown)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	late := createPayload()
	start := time.Now().Add(10 * time.Minute).UTC()
	late["start_time"] = start.Format(time.RFC3339)
	late["end_time"] = start.Add(time.Hour).Format(time.RFC3339)
	resp = postJSON(t, ts.Client(), url, late)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestApproveAndOverlapConflict(t *testing.T) {
	ts := setupTestServer(t, openAPI())
	url := ts.URL + "/api/v1/reservations"

	payload := createPayload()
	resp := postJSON(t, ts.Client(), url, payload)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var res models.Reservation
	decodeBody(t, resp, &res)

	approveURL := fmt.Sprintf("%s/%d/approve", url, res.ID)

	// Non-admin actor is refused.
	resp = postJSON(t, ts.Client(), approveURL, map[string]any{"actor_id": 3})
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = postJSON(t, ts.Client(), approveURL, map[string]any{"actor_id": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var approved models.Reservation
	decodeBody(t, resp, &approved)
	assert.Equal(t, models.StatusApproved, approved.Status)

	// Same window now conflicts.
	resp = postJSON(t, ts.Client(), url, payload)
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Approving again is a conflict too.
	resp = postJSON(t, ts.Client(), approveURL, map[string]any{"actor_id": 1})
	resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestRejectEndpoint(t *testing.T) {
	ts := setupTestServer(t, openAPI())
	url := ts.URL + "/api/v1/reservations"

	resp := postJSON(t, ts.Client(), url, createPayload())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var res models.Reservation
	decodeBody(t, resp, &res)

	rejectURL := fmt.Sprintf("%s/%d/reject", url, res.ID)

	// Missing reason.
	resp = postJSON(t, ts.Client(), rejectURL, map[string]any{"actor_id": 1})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, ts.Client(), rejectURL, map[string]any{"actor_id": 1, "reason": "Room under maintenance"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rejected models.Reservation
	decodeBody(t, resp, &rejected)
	assert.Equal(t, models.StatusRejected, rejected.Status)
	assert.Equal(t, "Room under maintenance", rejected.Reason)
}

func TestCancelEndpoint(t *testing.T) {
	ts := setupTestServer(t, openAPI())
	url := ts.URL + "/api/v1/reservations"

	resp := postJSON(t, ts.Client(), url, createPayload())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var res models.Reservation
	decodeBody(t, resp, &res)

	cancelURL := fmt.Sprintf("%s/%d/cancel", url, res.ID)
	resp = postJSON(t, ts.Client(), cancelURL, map[string]any{"actor_id": 3, "reason": "plans changed"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cancelled models.Reservation
	decodeBody(t, resp, &cancelled)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
}

func TestGetReservationAndHistory(t *testing.T) {
	ts := setupTestServer(t, openAPI())
	url := ts.URL + "/api/v1/reservations"

	resp := postJSON(t, ts.Client(), url, createPayload())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var res models.Reservation
	decodeBody(t, resp, &res)

	resp, err := ts.Client().Get(fmt.Sprintf("%s/%d", url, res.ID))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var got models.Reservation
	decodeBody(t, resp, &got)
	assert.Equal(t, res.ID, got.ID)

	resp, err = ts.Client().Get(fmt.Sprintf("%s/%d/history", url, res.ID))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var history struct {
		History []*models.AuditEntry `json:"history"`
	}
	decodeBody(t, resp, &history)
	require.Len(t, history.History, 1)
	assert.Equal(t, models.ActionCreated, history.History[0].Action)

	resp, err = ts.Client().Get(url + "/999")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = ts.Client().Get(url + "/abc")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListReservations(t *testing.T) {
	ts := setupTestServer(t, openAPI())
	url := ts.URL + "/api/v1/reservations"

	resp := postJSON(t, ts.Client(), url, createPayload())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp, err := ts.Client().Get(url)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var list struct {
		Reservations []*models.Reservation `json:"reservations"`
	}
	decodeBody(t, resp, &list)
	assert.Len(t, list.Reservations, 1)

	resp, err = ts.Client().Get(url + "?user_id=3")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &list)
	assert.Len(t, list.Reservations, 1)

	resp, err = ts.Client().Get(url + "?user_id=999")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRoomsAndHealth(t *testing.T) {
	ts := setupTestServer(t, openAPI())

	resp, err := ts.Client().Get(ts.URL + "/api/v1/rooms")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var rooms struct {
		Rooms []*models.Room `json:"rooms"`
	}
	decodeBody(t, resp, &rooms)
	assert.Len(t, rooms.Rooms, 1)

	resp, err = ts.Client().Get(ts.URL + "/api/v1/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPIKeyAuth(t *testing.T) {
	cfg := config.APIConfig{
		Enabled: true,
		Auth: config.APIAuthConfig{
			Enabled: true,
			APIKeys: []config.APIClientKey{
				{Key: "portal-key", Extra: "portal-extra", Name: "portal", Permissions: []string{"read:reservations", "write:reservations"}},
				{Key: "readonly-key", Extra: "readonly-extra", Name: "dashboard", Permissions: []string{"read:reservations"}},
			},
		},
	}
	ts := setupTestServer(t, cfg)
	url := ts.URL + "/api/v1/reservations"

	// Health bypasses auth.
	resp, err := ts.Client().Get(ts.URL + "/api/v1/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// No credentials.
	resp, err = ts.Client().Get(url)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	authedGet := func(key, extra string) *http.Response {
		req, err := http.NewRequest(http.MethodGet, url, nil)
		require.NoError(t, err)
		req.Header.Set("x-api-key", key)
		req.Header.Set("x-api-extra", extra)
		resp, err := ts.Client().Do(req)
		require.NoError(t, err)
		return resp
	}

	resp = authedGet("portal-key", "wrong")
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = authedGet("portal-key", "portal-extra")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Read-only client may list but not create.
	resp = authedGet("readonly-key", "readonly-extra")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := json.Marshal(createPayload())
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("x-api-key", "readonly-key")
	req.Header.Set("x-api-extra", "readonly-extra")
	resp, err = ts.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
