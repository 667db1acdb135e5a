package tickets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ms-attendance/internal/logger"
	"ms-attendance/internal/models"
	"ms-attendance/internal/tickets/db"
	"ms-attendance/internal/utils"
)

var ErrInvalidTicket = errors.New("invalid ticket")

type TicketDBLayer interface {
	CreateTicket(ctx context.Context, ticket *models.Ticket) error
	GetTicketByID(ctx context.Context, id int64) (*models.Ticket, error)
	UpdateTicket(ctx context.Context, ticket *models.Ticket) error
	DeleteTicket(ctx context.Context, id int64) error
	ListTickets(ctx context.Context, filter db.TicketFilter) ([]models.Ticket, error)
	CreateTicketType(ctx context.Context, ticketType *models.TicketType) error
	GetTicketTypeByName(ctx context.Context, name string) (*models.TicketType, error)
	ListTicketTypes(ctx context.Context) ([]models.TicketType, error)
	ListAttendanceEvents(ctx context.Context, ticketID int64) ([]models.AttendanceEvent, error)
	GetTotalTicketsCount(ctx context.Context) (int, error)
}

type TicketService struct {
	DB     TicketDBLayer
	Logger *logger.Logger
}

func NewTicketService(db TicketDBLayer, log *logger.Logger) *TicketService {
	return &TicketService{DB: db, Logger: log}
}

// PlaceTicket stores a new ticket. Missing barcodes are generated and the
// ticket type is created on first use.
func (s *TicketService) PlaceTicket(ctx context.Context, reg models.TicketRegistration) (*models.Ticket, error) {
	ticketType, err := s.resolveType(ctx, reg.TicketType)
	if err != nil {
		return nil, err
	}

	barcode := strings.TrimSpace(reg.Barcode)
	if barcode == "" {
		barcode = utils.GenerateBarcode()
	}
	status := strings.TrimSpace(reg.Status)
	if status == "" {
		status = models.TicketStatusNotPaid
	}

	now := time.Now().UTC()
	ticket := &models.Ticket{
		Barcode:      barcode,
		TicketTypeID: ticketType.ID,
		FirstName:    strings.TrimSpace(reg.FirstName),
		LastName:     strings.TrimSpace(reg.LastName),
		Email:        strings.TrimSpace(reg.Email),
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
		TicketType:   ticketType,
	}

	if err := s.DB.CreateTicket(ctx, ticket); err != nil {
		s.Logger.Error("TICKET", fmt.Sprintf("Failed to create ticket %s: %v", barcode, err))
		return nil, fmt.Errorf("failed to create ticket: %w", err)
	}

	s.Logger.Info("TICKET", fmt.Sprintf("Ticket %d placed with barcode %s (%s)", ticket.ID, ticket.Barcode, ticketType.Name))
	return ticket, nil
}

func (s *TicketService) GetTicket(ctx context.Context, id int64) (*models.Ticket, error) {
	ticket, err := s.DB.GetTicketByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ticket %d: %w", id, err)
	}
	return ticket, nil
}

func (s *TicketService) ListTickets(ctx context.Context, filter db.TicketFilter) ([]models.Ticket, error) {
	tickets, err := s.DB.ListTickets(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	return tickets, nil
}

// UpdateTicket overwrites the editable fields. Empty fields in update keep
// their current value.
func (s *TicketService) UpdateTicket(ctx context.Context, id int64, update models.TicketRegistration) (*models.Ticket, error) {
	ticket, err := s.DB.GetTicketByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ticket %d: %w", id, err)
	}

	if name := strings.TrimSpace(update.TicketType); name != "" {
		ticketType, err := s.resolveType(ctx, name)
		if err != nil {
			return nil, err
		}
		ticket.TicketTypeID = ticketType.ID
		ticket.TicketType = ticketType
	}
	setIfPresent(&ticket.Barcode, update.Barcode)
	setIfPresent(&ticket.FirstName, update.FirstName)
	setIfPresent(&ticket.LastName, update.LastName)
	setIfPresent(&ticket.Email, update.Email)
	setIfPresent(&ticket.Status, update.Status)

	if err := s.DB.UpdateTicket(ctx, ticket); err != nil {
		return nil, fmt.Errorf("failed to update ticket: %w", err)
	}

	s.Logger.Info("TICKET", fmt.Sprintf("Ticket %d updated", id))
	return ticket, nil
}

func (s *TicketService) CancelTicket(ctx context.Context, id int64) error {
	if err := s.DB.DeleteTicket(ctx, id); err != nil {
		return fmt.Errorf("failed to delete ticket %d: %w", id, err)
	}
	s.Logger.Info("TICKET", fmt.Sprintf("Ticket %d deleted", id))
	return nil
}

// TicketEvents returns the raw scan log of an existing ticket.
func (s *TicketService) TicketEvents(ctx context.Context, id int64) ([]models.AttendanceEvent, error) {
	if _, err := s.DB.GetTicketByID(ctx, id); err != nil {
		return nil, fmt.Errorf("ticket %d: %w", id, err)
	}
	events, err := s.DB.ListAttendanceEvents(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list events for ticket %d: %w", id, err)
	}
	return events, nil
}

func (s *TicketService) GetTotalTicketsCount(ctx context.Context) (int, error) {
	return s.DB.GetTotalTicketsCount(ctx)
}

func (s *TicketService) ListTicketTypes(ctx context.Context) ([]models.TicketType, error) {
	return s.DB.ListTicketTypes(ctx)
}

func (s *TicketService) CreateTicketType(ctx context.Context, name string) (*models.TicketType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: ticket type name is required", ErrInvalidTicket)
	}
	ticketType := &models.TicketType{Name: name}
	if err := s.DB.CreateTicketType(ctx, ticketType); err != nil {
		return nil, fmt.Errorf("failed to create ticket type %s: %w", name, err)
	}
	return ticketType, nil
}

func (s *TicketService) resolveType(ctx context.Context, name string) (*models.TicketType, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: ticket_type is required", ErrInvalidTicket)
	}

	ticketType, err := s.DB.GetTicketTypeByName(ctx, name)
	if err == nil {
		return ticketType, nil
	}
	if !errors.Is(err, models.ErrTicketTypeNotFound) {
		return nil, fmt.Errorf("failed to resolve ticket type %s: %w", name, err)
	}

	return s.CreateTicketType(ctx, name)
}

func setIfPresent(dst *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*dst = v
	}
}
