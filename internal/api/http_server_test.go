package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"shareit/internal/config"
	"shareit/internal/database"
	"shareit/internal/events"
	"shareit/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type testEnv struct {
	db      *database.DB
	handler http.Handler
}

func testLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func newTestEnv(t *testing.T, cfg config.APIConfig, quota QuotaChecker) *testEnv {
	t.Helper()
	logger := testLogger()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "api.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	bus := events.NewEventBus(logger)
	svc := Services{
		Bookings: service.NewBookingService(db, bus, logger),
		Items:    service.NewItemService(db, bus, logger),
		Users:    service.NewUserService(db, logger),
		Requests: service.NewRequestService(db, bus, logger),
	}
	srv := NewHTTPServer(cfg, config.ExportConfig{MaxRows: 100}, svc, db, quota, logger)
	return &testEnv{db: db, handler: srv.Handler()}
}

func (e *testEnv) do(t *testing.T, method, path string, userID int64, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if userID > 0 {
		req.Header.Set(userIDHeader, fmt.Sprint(userID))
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	return decode[map[string]string](t, rec)["error"]
}

func (e *testEnv) createUser(t *testing.T, name string) int64 {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/users", 0, map[string]string{"name": name, "email": name + "@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[userResponse](t, rec).ID
}

func (e *testEnv) createItem(t *testing.T, owner int64, available bool) int64 {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/items", owner, map[string]any{"name": "Drill", "description": "cordless drill", "available": available})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[itemResponse](t, rec).ID
}

func bookingBody(itemID int64, start, end time.Time) map[string]any {
	return map[string]any{
		"itemId": itemID,
		"start":  start.UTC().Format(localLayout),
		"end":    end.UTC().Format(localLayout),
	}
}

func TestBookingFlow(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{}, nil)
	owner := env.createUser(t, "owner")
	booker := env.createUser(t, "booker")
	item := env.createItem(t, owner, true)
	start := time.Now().Add(time.Hour)

	rec := env.do(t, http.MethodPost, "/bookings", booker, bookingBody(item, start, start.Add(time.Hour)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[bookingResponse](t, rec)
	assert.Equal(t, "WAITING", created.Status)
	assert.Equal(t, booker, created.Booker.ID)
	assert.Equal(t, "Drill", created.Item.Name)

	path := fmt.Sprintf("/bookings/%d", created.ID)

	rec = env.do(t, http.MethodPatch, path+"?approved=true", booker, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "booker cannot decide")

	rec = env.do(t, http.MethodPatch, path+"?approved=true", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "APPROVED", decode[bookingResponse](t, rec).Status)

	rec = env.do(t, http.MethodPatch, path+"?approved=true", owner, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, path, booker, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	stranger := env.createUser(t, "stranger")
	rec = env.do(t, http.MethodGet, path, stranger, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/bookings?state=future", booker, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]bookingResponse](t, rec), 1)

	rec = env.do(t, http.MethodGet, "/bookings/owner?state=PAST", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]bookingResponse](t, rec))
}

func TestBookingErrors(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{}, nil)
	owner := env.createUser(t, "owner")
	booker := env.createUser(t, "booker")
	item := env.createItem(t, owner, true)
	closed := env.createItem(t, owner, false)
	start := time.Now().Add(time.Hour)

	tests := []struct {
		name   string
		method string
		path   string
		user   int64
		body   any
		status int
		msg    string
	}{
		{"OwnItem", http.MethodPost, "/bookings", owner, bookingBody(item, start, start.Add(time.Hour)), http.StatusForbidden, ""},
		{"Unavailable", http.MethodPost, "/bookings", booker, bookingBody(closed, start, start.Add(time.Hour)), http.StatusBadRequest, ""},
		{"EndBeforeStart", http.MethodPost, "/bookings", booker, bookingBody(item, start, start.Add(-time.Hour)), http.StatusBadRequest, ""},
		{"UnknownItem", http.MethodPost, "/bookings", booker, bookingBody(999, start, start.Add(time.Hour)), http.StatusNotFound, ""},
		{"UnknownUser", http.MethodPost, "/bookings", 999, bookingBody(item, start, start.Add(time.Hour)), http.StatusNotFound, ""},
		{"MissingHeader", http.MethodGet, "/bookings", 0, nil, http.StatusBadRequest, ""},
		{"MissingDates", http.MethodPost, "/bookings", booker, map[string]any{"itemId": item}, http.StatusBadRequest, ""},
		{"BadApproved", http.MethodPatch, "/bookings/1?approved=maybe", owner, nil, http.StatusBadRequest, ""},
		{"BadID", http.MethodGet, "/bookings/abc", owner, nil, http.StatusBadRequest, ""},
		{"BadPage", http.MethodGet, "/bookings?from=-1&size=0", booker, nil, http.StatusBadRequest, "Invalid request parameters."},
		{"ZeroSize", http.MethodGet, "/bookings/owner?from=0&size=0", owner, nil, http.StatusBadRequest, "Invalid request parameters."},
		{"UnknownState", http.MethodGet, "/bookings?state=UNSUPPORTED_STATUS", booker, nil, http.StatusBadRequest, "Unknown state: UNSUPPORTED_STATUS"},
		{"UnknownStateOwner", http.MethodGet, "/bookings/owner?state=whenever", owner, nil, http.StatusBadRequest, "Unknown state: WHENEVER"},
		{"OwnerWithoutItems", http.MethodGet, "/bookings/owner", booker, nil, http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, tt.user, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.msg != "" {
				assert.Equal(t, tt.msg, errorMessage(t, rec))
			}
		})
	}
}

func TestBookingPagination(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{}, nil)
	owner := env.createUser(t, "owner")
	booker := env.createUser(t, "booker")
	item := env.createItem(t, owner, true)
	base := time.Now().Add(time.Hour)

	var ids []int64
	for i := 0; i < 3; i++ {
		start := base.Add(time.Duration(i) * 24 * time.Hour)
		rec := env.do(t, http.MethodPost, "/bookings", booker, bookingBody(item, start, start.Add(time.Hour)))
		require.Equal(t, http.StatusCreated, rec.Code)
		ids = append(ids, decode[bookingResponse](t, rec).ID)
	}

	rec := env.do(t, http.MethodGet, "/bookings?from=1&size=1", booker, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[[]bookingResponse](t, rec)
	require.Len(t, page, 1)
	assert.Equal(t, ids[1], page[0].ID)

	rec = env.do(t, http.MethodGet, "/bookings?from=1", booker, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]bookingResponse](t, rec), 3, "one bound alone returns everything")
}

func TestItemsAndComments(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{}, nil)
	owner := env.createUser(t, "owner")
	booker := env.createUser(t, "booker")
	item := env.createItem(t, owner, true)
	path := fmt.Sprintf("/items/%d", item)

	rec := env.do(t, http.MethodPatch, path, booker, map[string]any{"name": "Stolen"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPatch, path, owner, map[string]any{"description": "hammer drill"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hammer drill", decode[itemResponse](t, rec).Description)

	rec = env.do(t, http.MethodGet, "/items/search?text=HAMMER", booker, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]itemResponse](t, rec), 1)

	rec = env.do(t, http.MethodGet, "/items/search?text=", booker, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]itemResponse](t, rec))

	rec = env.do(t, http.MethodPost, path+"/comment", booker, map[string]string{"text": "great"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "no finished booking yet")

	// Bookings in the past are accepted; only the range is validated.
	end := time.Now().Add(-time.Hour)
	rec = env.do(t, http.MethodPost, "/bookings", booker, bookingBody(item, end.Add(-time.Hour), end))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, path+"/comment", booker, map[string]string{"text": "great"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "booker", decode[commentResponse](t, rec).AuthorName)

	rec = env.do(t, http.MethodGet, path, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	card := decode[itemResponse](t, rec)
	assert.Len(t, card.Comments, 1)
	assert.Nil(t, card.LastBooking, "waiting bookings are not shown")

	rec = env.do(t, http.MethodGet, "/items", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]itemResponse](t, rec), 1)

	rec = env.do(t, http.MethodPost, "/items", owner, map[string]any{"name": "Saw"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestItemRequests(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{}, nil)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")

	rec := env.do(t, http.MethodPost, "/requests", alice, map[string]string{"description": "need a ladder"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	ladder := decode[itemRequestResponse](t, rec)
	assert.Equal(t, "need a ladder", ladder.Description)
	assert.Equal(t, alice, ladder.RequestorID)
	assert.Empty(t, ladder.Items)

	rec = env.do(t, http.MethodPost, "/requests", alice, map[string]string{"description": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = env.do(t, http.MethodPost, "/requests", 999, map[string]string{"description": "tent"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodPost, "/items", bob, map[string]any{
		"name": "Ladder", "description": "3m", "available": true, "requestId": ladder.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	item := decode[itemResponse](t, rec)
	require.NotNil(t, item.RequestID)
	assert.Equal(t, ladder.ID, *item.RequestID)

	rec = env.do(t, http.MethodPost, "/items", bob, map[string]any{
		"name": "Tent", "description": "2p", "available": true, "requestId": 999,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/requests", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	own := decode[[]itemRequestResponse](t, rec)
	require.Len(t, own, 1)
	require.Len(t, own[0].Items, 1)
	assert.Equal(t, item.ID, own[0].Items[0].ID)
	assert.Equal(t, ladder.ID, own[0].Items[0].RequestID)

	rec = env.do(t, http.MethodGet, "/requests/all", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]itemRequestResponse](t, rec), "own requests are not listed")

	rec = env.do(t, http.MethodGet, "/requests/all?from=0&size=10", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]itemRequestResponse](t, rec), 1)

	rec = env.do(t, http.MethodGet, "/requests/all?from=-1&size=0", bob, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, invalidRequestMsg, errorMessage(t, rec))

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/requests/%d", ladder.ID), bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[itemRequestResponse](t, rec).Items, 1)

	rec = env.do(t, http.MethodGet, "/requests/999", bob, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUsers(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{}, nil)
	id := env.createUser(t, "ann")

	rec := env.do(t, http.MethodPost, "/users", 0, map[string]string{"name": "other", "email": "ann@example.com"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/users", 0, map[string]string{"name": "bad", "email": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPatch, fmt.Sprintf("/users/%d", id), 0, map[string]string{"name": "Anna"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Anna", decode[userResponse](t, rec).Name)

	rec = env.do(t, http.MethodGet, "/users", 0, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]userResponse](t, rec), 1)

	rec = env.do(t, http.MethodDelete, fmt.Sprintf("/users/%d", id), 0, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/users/%d", id), 0, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportOwnerBookings(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{}, nil)
	owner := env.createUser(t, "owner")
	booker := env.createUser(t, "booker")
	item := env.createItem(t, owner, true)
	start := time.Now().Add(time.Hour)
	rec := env.do(t, http.MethodPost, "/bookings", booker, bookingBody(item, start, start.Add(time.Hour)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/bookings/owner/export?state=WAITING", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Bookings")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "booker", rows[1][2])

	rec = env.do(t, http.MethodGet, "/bookings/owner/export?state=NEVER", owner, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProbes(t *testing.T) {
	env := newTestEnv(t, config.APIConfig{}, nil)

	rec := env.do(t, http.MethodGet, "/healthz", 0, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	rec = env.do(t, http.MethodGet, "/readyz", 0, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, env.db.Close())
	rec = env.do(t, http.MethodGet, "/readyz", 0, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

type stubQuota struct {
	allowed map[int64]bool
}

func (q stubQuota) Allow(_ context.Context, userID int64) bool {
	return q.allowed[userID]
}

func TestUserQuota(t *testing.T) {
	cfg := config.APIConfig{UserQuota: config.UserQuotaConfig{Enabled: true, Requests: 1, Window: "1m"}}
	env := newTestEnv(t, cfg, stubQuota{allowed: map[int64]bool{1: true}})
	owner := env.createUser(t, "owner")
	require.Equal(t, int64(1), owner)

	rec := env.do(t, http.MethodGet, "/items", owner, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/items", 2, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec = env.do(t, http.MethodGet, "/healthz", 2, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestErrorStatusMapping(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("boom")))
}
