package checkin_api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"ms-attendance/internal/attendance"
	"ms-attendance/internal/logger"
	"ms-attendance/internal/models"
	"ms-attendance/internal/utils"
)

type EventLog interface {
	TicketEvents(ctx context.Context, ticketID int64) ([]models.AttendanceEvent, error)
}

type SettingsReader interface {
	GetConfig(ctx context.Context, key string) (string, error)
}

type Handler struct {
	Recorder    *attendance.Recorder
	Aggregator  *attendance.Aggregator
	Events      EventLog
	Settings    SettingsReader
	EventDayKey string
	Location    *time.Location
	Logger      *logger.Logger
}

type ScanRequest struct {
	Barcode   string `json:"barcode"`
	Direction *int   `json:"direction"`
}

type ScanResponse struct {
	Status    string `json:"status"`
	TicketID  int64  `json:"ticket_id,omitempty"`
	Matches   int    `json:"matches"`
	Direction string `json:"direction"`
}

type PresenceResponse struct {
	Day       string             `json:"day"`
	CheckedIn []models.RoleCount `json:"checked_in"`
	Present   []models.RoleCount `json:"present"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/checkin", func(r chi.Router) {
		r.Post("/scan", h.Scan)
		r.Get("/totals", h.Totals)
		r.Get("/present", h.Present)
		r.Get("/events", h.ListEvents)
	})
}

// Scan records one gate scan. A barcode matching no ticket answers 404,
// one matching several tickets answers 409; neither writes an event.
func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Direction == nil {
		utils.WriteError(w, http.StatusBadRequest, "direction is required", nil)
		return
	}
	direction := models.Direction(*req.Direction)

	result, err := h.Recorder.RecordScan(r.Context(), req.Barcode, direction)
	if err != nil {
		writeAttendanceError(w, "Scan failed", err)
		return
	}

	resp := ScanResponse{
		Status:    result.Status.String(),
		TicketID:  result.TicketID,
		Matches:   result.Matches,
		Direction: direction.String(),
	}
	switch {
	case result.IsRecorded():
		utils.WriteSuccess(w, http.StatusCreated, "Scan recorded", resp)
	case result.NotFound():
		utils.WriteJSON(w, http.StatusNotFound, utils.APIResponse{
			Message: "No ticket matches this barcode", Data: resp, Error: "not found", Timestamp: time.Now(),
		})
	default:
		utils.WriteJSON(w, http.StatusConflict, utils.APIResponse{
			Message: fmt.Sprintf("%d tickets share this barcode", result.Matches), Data: resp, Error: "duplicate barcode", Timestamp: time.Now(),
		})
	}
}

func (h *Handler) Totals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.Aggregator.TotalByType(r.Context())
	if err != nil {
		writeAttendanceError(w, "Failed to count tickets", err)
		return
	}
	if totals == nil {
		totals = []models.TypeCount{}
	}
	utils.WriteSuccess(w, http.StatusOK, "Tickets by type", totals)
}

// Present reports check-ins for the current event day, taken from ?day=
// or from the event day setting.
func (h *Handler) Present(w http.ResponseWriter, r *http.Request) {
	var day time.Time
	var err error
	if value := r.URL.Query().Get("day"); value != "" {
		if day, err = attendance.ParseEventDay(value, h.Location); err != nil {
			utils.WriteError(w, http.StatusBadRequest, "Invalid event day", err)
			return
		}
	} else if day, err = h.configuredEventDay(r.Context()); err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to read event day", err)
		return
	}

	checkedIn, err := h.Aggregator.CurrentlyCheckedIn(r.Context(), day)
	if err != nil {
		writeAttendanceError(w, "Failed to count check-ins", err)
		return
	}
	present, err := h.Aggregator.PresentByRole(r.Context(), day)
	if err != nil {
		writeAttendanceError(w, "Failed to count present attendees", err)
		return
	}

	resp := PresenceResponse{
		Day:       day.Format("2006-01-02"),
		CheckedIn: checkedIn,
		Present:   present,
	}
	if resp.CheckedIn == nil {
		resp.CheckedIn = []models.RoleCount{}
	}
	if resp.Present == nil {
		resp.Present = []models.RoleCount{}
	}
	utils.WriteSuccess(w, http.StatusOK, "Attendance for event day", resp)
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	ticketID, err := strconv.ParseInt(r.URL.Query().Get("ticket_id"), 10, 64)
	if err != nil || ticketID <= 0 {
		utils.WriteError(w, http.StatusBadRequest, "ticket_id must be a positive integer", err)
		return
	}

	events, err := h.Events.TicketEvents(r.Context(), ticketID)
	if err != nil {
		if errors.Is(err, models.ErrTicketNotFound) {
			utils.WriteError(w, http.StatusNotFound, "Ticket not found", err)
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Failed to list events", err)
		return
	}
	if events == nil {
		events = []models.AttendanceEvent{}
	}
	utils.WriteSuccess(w, http.StatusOK, "Attendance events", events)
}

// configuredEventDay reads the event day setting. A missing setting falls
// back to today in the event timezone.
func (h *Handler) configuredEventDay(ctx context.Context) (time.Time, error) {
	value, err := h.Settings.GetConfig(ctx, h.EventDayKey)
	if errors.Is(err, models.ErrSettingNotFound) {
		today := time.Now().In(h.location())
		h.Logger.Warn("CHECKIN", fmt.Sprintf("Setting %s missing, using %s", h.EventDayKey, today.Format("2006-01-02")))
		return attendance.StartOfDay(today), nil
	}
	if err != nil {
		return time.Time{}, &attendance.StorageError{Op: "read event day", Err: err}
	}

	day, err := attendance.ParseEventDay(value, h.Location)
	if err != nil {
		return time.Time{}, fmt.Errorf("setting %s: %w", h.EventDayKey, err)
	}
	return day, nil
}

func (h *Handler) location() *time.Location {
	if h.Location == nil {
		return time.UTC
	}
	return h.Location
}

func writeAttendanceError(w http.ResponseWriter, message string, err error) {
	if errors.Is(err, attendance.ErrInvalidScan) {
		utils.WriteError(w, http.StatusBadRequest, message, err)
		return
	}
	utils.WriteError(w, http.StatusInternalServerError, message, err)
}
