package ticket_api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ms-attendance/internal/logger"
	"ms-attendance/internal/models"
	"ms-attendance/internal/tickets/db"
	"ms-attendance/internal/tickets/qr"
	tickets "ms-attendance/internal/tickets/service"
	"ms-attendance/internal/utils"
)

type Handler struct {
	TicketService *tickets.TicketService
	QRGenerator   *qr.Generator
	Logger        *logger.Logger
}

// NewHandler creates a new Handler instance
func NewHandler(ticketService *tickets.TicketService, qrSize int, log *logger.Logger) *Handler {
	return &Handler{
		TicketService: ticketService,
		QRGenerator:   qr.NewGenerator(qrSize),
		Logger:        log,
	}
}

type TicketTypeRequest struct {
	Name string `json:"name"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tickets", func(r chi.Router) {
		r.Get("/", h.ListTickets)
		r.Post("/", h.CreateTicket)
		r.Get("/count", h.GetTotalTicketsCount)
		r.Route("/{ticketID}", func(r chi.Router) {
			r.Get("/", h.ViewTicket)
			r.Put("/", h.UpdateTicket)
			r.Delete("/", h.DeleteTicket)
			r.Get("/qr", h.TicketQR)
		})
	})
	r.Route("/ticket-types", func(r chi.Router) {
		r.Get("/", h.ListTicketTypes)
		r.Post("/", h.CreateTicketType)
	})
}

func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := db.TicketFilter{
		Barcode:  q.Get("barcode"),
		TypeName: q.Get("type"),
	}
	var err error
	if filter.Limit, err = optionalInt(q.Get("limit")); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "limit must be a non-negative integer", err)
		return
	}
	if filter.Offset, err = optionalInt(q.Get("offset")); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "offset must be a non-negative integer", err)
		return
	}

	list, err := h.TicketService.ListTickets(r.Context(), filter)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to list tickets", err)
		return
	}
	if list == nil {
		list = []models.Ticket{}
	}
	utils.WriteSuccess(w, http.StatusOK, "Tickets", list)
}

func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	var reg models.TicketRegistration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ticket, err := h.TicketService.PlaceTicket(r.Context(), reg)
	if err != nil {
		writeTicketError(w, "Failed to create ticket", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Ticket created", ticket)
}

func (h *Handler) ViewTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := ticketID(w, r)
	if !ok {
		return
	}
	ticket, err := h.TicketService.GetTicket(r.Context(), id)
	if err != nil {
		writeTicketError(w, "Failed to get ticket", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Ticket", ticket)
}

func (h *Handler) UpdateTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := ticketID(w, r)
	if !ok {
		return
	}
	var update models.TicketRegistration
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ticket, err := h.TicketService.UpdateTicket(r.Context(), id, update)
	if err != nil {
		writeTicketError(w, "Failed to update ticket", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Ticket updated", ticket)
}

func (h *Handler) DeleteTicket(w http.ResponseWriter, r *http.Request) {
	id, ok := ticketID(w, r)
	if !ok {
		return
	}
	if err := h.TicketService.CancelTicket(r.Context(), id); err != nil {
		writeTicketError(w, "Failed to delete ticket", err)
		return
	}
	utils.WriteSuccess(w, http.StatusOK, "Ticket deleted", nil)
}

// TicketQR renders the ticket barcode as a PNG for printing.
func (h *Handler) TicketQR(w http.ResponseWriter, r *http.Request) {
	id, ok := ticketID(w, r)
	if !ok {
		return
	}
	ticket, err := h.TicketService.GetTicket(r.Context(), id)
	if err != nil {
		writeTicketError(w, "Failed to get ticket", err)
		return
	}

	png, err := h.QRGenerator.GenerateTicketQR(*ticket)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to render QR code", err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		h.Logger.Warn("HTTP", "Failed to write QR response: "+err.Error())
	}
}

func (h *Handler) ListTicketTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.TicketService.ListTicketTypes(r.Context())
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "Failed to list ticket types", err)
		return
	}
	if types == nil {
		types = []models.TicketType{}
	}
	utils.WriteSuccess(w, http.StatusOK, "Ticket types", types)
}

func (h *Handler) CreateTicketType(w http.ResponseWriter, r *http.Request) {
	var req TicketTypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	ticketType, err := h.TicketService.CreateTicketType(r.Context(), req.Name)
	if err != nil {
		writeTicketError(w, "Failed to create ticket type", err)
		return
	}
	utils.WriteSuccess(w, http.StatusCreated, "Ticket type created", ticketType)
}

func ticketID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "ticketID"), 10, 64)
	if err != nil || id <= 0 {
		utils.WriteError(w, http.StatusBadRequest, "ticketID must be a positive integer", err)
		return 0, false
	}
	return id, true
}

func optionalInt(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.New("negative value")
	}
	return n, nil
}

func writeTicketError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, tickets.ErrInvalidTicket):
		utils.WriteError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, models.ErrTicketNotFound):
		utils.WriteError(w, http.StatusNotFound, message, err)
	default:
		utils.WriteError(w, http.StatusInternalServerError, message, err)
	}
}
