package checkin_api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"ms-attendance/internal/attendance"
	"ms-attendance/internal/attendance/checkin_api"
	"ms-attendance/internal/database"
	"ms-attendance/internal/logger"
	"ms-attendance/internal/models"
	"ms-attendance/internal/settings"
	"ms-attendance/internal/tickets/db"
	tickets "ms-attendance/internal/tickets/service"
)

type testEnv struct {
	router   chi.Router
	db       *db.DB
	settings *settings.Service
	logs     *bytes.Buffer
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	logs := &bytes.Buffer{}
	log := logger.New(logs)

	bunDB, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { bunDB.Close() })
	require.NoError(t, database.CreateSchema(ctx, bunDB))
	today := time.Now().UTC().Format("2006-01-02")
	require.NoError(t, database.SeedDefaults(ctx, bunDB, 1, models.SettingCurrentEventDay, today))

	ticketDB := &db.DB{Bun: bunDB}
	settingsSvc := settings.NewService(&settings.Store{Bun: bunDB}, nil, log)
	handler := &checkin_api.Handler{
		Recorder:    attendance.NewRecorder(ticketDB, ticketDB, 1, log),
		Aggregator:  attendance.NewAggregator(ticketDB),
		Events:      tickets.NewTicketService(ticketDB, log),
		Settings:    settingsSvc,
		EventDayKey: models.SettingCurrentEventDay,
		Location:    time.UTC,
		Logger:      log,
	}

	r := chi.NewRouter()
	r.Route("/api", handler.RegisterRoutes)
	return &testEnv{router: r, db: ticketDB, settings: settingsSvc, logs: logs}
}

func (e *testEnv) ticket(t *testing.T, barcode, typeName string) *models.Ticket {
	t.Helper()
	ctx := context.Background()
	tt, err := e.db.GetTicketTypeByName(ctx, typeName)
	if err != nil {
		tt = &models.TicketType{Name: typeName}
		require.NoError(t, e.db.CreateTicketType(ctx, tt))
	}
	now := time.Now().UTC()
	ticket := &models.Ticket{Barcode: barcode, TicketTypeID: tt.ID, Status: models.TicketStatusPaid, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, e.db.CreateTicket(ctx, ticket))
	return ticket
}

func (e *testEnv) do(t *testing.T, method, target string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return rr, env
}

func scan(barcode string, direction int) map[string]interface{} {
	return map[string]interface{}{"barcode": barcode, "direction": direction}
}

func TestScanOutcomes(t *testing.T) {
	env := setupEnv(t)
	ticket := env.ticket(t, "ABC123", "VIP")
	env.ticket(t, "DUP111", "reader")
	env.ticket(t, "DUP111", "reader")

	rr, body := env.do(t, http.MethodPost, "/api/checkin/scan", scan("ABC123", 1))
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.True(t, body.Success)
	var resp checkin_api.ScanResponse
	require.NoError(t, json.Unmarshal(body.Data, &resp))
	assert.Equal(t, checkin_api.ScanResponse{Status: "recorded", TicketID: ticket.ID, Matches: 1, Direction: "entering"}, resp)

	rr, body = env.do(t, http.MethodPost, "/api/checkin/scan", scan("ZZZ000", 1))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.False(t, body.Success)

	rr, body = env.do(t, http.MethodPost, "/api/checkin/scan", scan("DUP111", 0))
	assert.Equal(t, http.StatusConflict, rr.Code)
	require.NoError(t, json.Unmarshal(body.Data, &resp))
	assert.Equal(t, 2, resp.Matches)

	events, err := env.db.ListAttendanceEvents(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestScanRejectsBadInput(t *testing.T) {
	env := setupEnv(t)
	env.ticket(t, "ABC123", "VIP")

	cases := map[string]interface{}{
		"malformed json":    "{",
		"missing direction": map[string]string{"barcode": "ABC123"},
		"bad direction":     scan("ABC123", 2),
		"blank barcode":     scan("  ", 1),
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rr, resp := env.do(t, http.MethodPost, "/api/checkin/scan", body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.False(t, resp.Success)
		})
	}
}

func TestTotals(t *testing.T) {
	env := setupEnv(t)
	env.ticket(t, "R1", "reader")
	env.ticket(t, "R2", "reader")
	env.ticket(t, "V1", "VIP")

	rr, body := env.do(t, http.MethodGet, "/api/checkin/totals", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var totals []models.TypeCount
	require.NoError(t, json.Unmarshal(body.Data, &totals))
	assert.ElementsMatch(t, []models.TypeCount{{TypeName: "reader", Count: 2}, {TypeName: "VIP", Count: 1}}, totals)
}

func TestPresentUsesEventDaySetting(t *testing.T) {
	env := setupEnv(t)
	env.ticket(t, "R1", "reader")

	env.do(t, http.MethodPost, "/api/checkin/scan", scan("R1", 1))
	env.do(t, http.MethodPost, "/api/checkin/scan", scan("R1", 1))
	env.do(t, http.MethodPost, "/api/checkin/scan", scan("R1", 0))

	rr, body := env.do(t, http.MethodGet, "/api/checkin/present", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp checkin_api.PresenceResponse
	require.NoError(t, json.Unmarshal(body.Data, &resp))
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), resp.Day)
	assert.Equal(t, []models.RoleCount{{Role: "reader", Count: 3}}, resp.CheckedIn)
	assert.Equal(t, []models.RoleCount{{Role: "reader", Count: 1}}, resp.Present)

	// a later event day excludes today's scans
	tomorrow := time.Now().UTC().Add(24 * time.Hour).Format("2006-01-02")
	require.NoError(t, env.settings.SetConfig(context.Background(), models.SettingCurrentEventDay, tomorrow))
	rr, body = env.do(t, http.MethodGet, "/api/checkin/present", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.Unmarshal(body.Data, &resp))
	assert.Empty(t, resp.CheckedIn)
}

func TestPresentDayParameter(t *testing.T) {
	env := setupEnv(t)

	rr, body := env.do(t, http.MethodGet, "/api/checkin/present?day=2020-01-01", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp checkin_api.PresenceResponse
	require.NoError(t, json.Unmarshal(body.Data, &resp))
	assert.Equal(t, "2020-01-01", resp.Day)

	rr, _ = env.do(t, http.MethodGet, "/api/checkin/present?day=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestEvents(t *testing.T) {
	env := setupEnv(t)
	ticket := env.ticket(t, "ABC123", "VIP")
	env.do(t, http.MethodPost, "/api/checkin/scan", scan("ABC123", 1))

	rr, body := env.do(t, http.MethodGet, "/api/checkin/events?ticket_id="+strconv.FormatInt(ticket.ID, 10), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var events []models.AttendanceEvent
	require.NoError(t, json.Unmarshal(body.Data, &events))
	require.Len(t, events, 1)
	assert.Equal(t, models.DirectionEntering, events[0].Direction)

	rr, _ = env.do(t, http.MethodGet, "/api/checkin/events?ticket_id=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, _ = env.do(t, http.MethodGet, "/api/checkin/events?ticket_id=999", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

type failingSettings struct {
	err error
}

func (f failingSettings) GetConfig(context.Context, string) (string, error) {
	return "", f.err
}

func TestPresentFallsBackToTodayWhenSettingMissing(t *testing.T) {
	env := setupEnv(t)
	env.ticket(t, "R1", "reader")
	env.do(t, http.MethodPost, "/api/checkin/scan", scan("R1", 1))

	_, err := env.db.Bun.NewDelete().
		Model((*models.Setting)(nil)).
		Where("? = ?", bun.Ident("key"), models.SettingCurrentEventDay).
		Exec(context.Background())
	require.NoError(t, err)

	rr, body := env.do(t, http.MethodGet, "/api/checkin/present", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp checkin_api.PresenceResponse
	require.NoError(t, json.Unmarshal(body.Data, &resp))
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), resp.Day)
	assert.Equal(t, []models.RoleCount{{Role: "reader", Count: 1}}, resp.CheckedIn)
	assert.Contains(t, env.logs.String(), "Setting current_event_day missing")
}

func TestPresentMalformedSettingIsServerError(t *testing.T) {
	env := setupEnv(t)
	store := &settings.Store{Bun: env.db.Bun}
	require.NoError(t, store.Set(context.Background(), models.SettingCurrentEventDay, "18/10/2026"))

	rr, body := env.do(t, http.MethodGet, "/api/checkin/present", nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, body.Error, "invalid event day")

	// a bad ?day= is still the caller's fault
	rr, _ = env.do(t, http.MethodGet, "/api/checkin/present?day=18/10/2026", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPresentSettingsReadFailureIsStorageError(t *testing.T) {
	log := logger.New(io.Discard)
	handler := &checkin_api.Handler{
		Settings:    failingSettings{err: errors.New("redis and db down")},
		EventDayKey: models.SettingCurrentEventDay,
		Location:    time.UTC,
		Logger:      log,
	}
	r := chi.NewRouter()
	r.Route("/api", handler.RegisterRoutes)
	env := &testEnv{router: r}

	rr, body := env.do(t, http.MethodGet, "/api/checkin/present", nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, body.Error, "attendance storage: read event day")
	assert.Contains(t, body.Error, "redis and db down")
}
