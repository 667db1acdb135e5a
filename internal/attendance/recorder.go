package attendance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"ms-attendance/internal/logger"
	"ms-attendance/internal/models"
)

type TicketLookup interface {
	FindTicketsByBarcode(ctx context.Context, barcode string) ([]models.Ticket, error)
}

type EventStore interface {
	InsertAttendanceEvent(ctx context.Context, event *models.AttendanceEvent) error
}

// ScanPublisher is notified after a scan has been stored.
type ScanPublisher interface {
	PublishScan(ctx context.Context, event models.ScanEvent) error
}

// Recorder turns a scanned barcode into at most one attendance event.
// It keeps no state between calls and does not deduplicate scans.
type Recorder struct {
	Tickets   TicketLookup
	Events    EventStore
	Publisher ScanPublisher
	VenueID   int64
	Logger    *logger.Logger

	now func() time.Time
}

func NewRecorder(tickets TicketLookup, events EventStore, venueID int64, log *logger.Logger) *Recorder {
	return &Recorder{
		Tickets: tickets,
		Events:  events,
		VenueID: venueID,
		Logger:  log,
		now:     time.Now,
	}
}

// WithPublisher sets an optional publisher for recorded scans.
func (r *Recorder) WithPublisher(p ScanPublisher) *Recorder {
	r.Publisher = p
	return r
}

// RecordScan looks the barcode up and, only when exactly one ticket
// matches, appends an attendance event for it.
func (r *Recorder) RecordScan(ctx context.Context, barcode string, direction models.Direction) (RecordResult, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return RecordResult{}, fmt.Errorf("%w: barcode is required", ErrInvalidScan)
	}
	if !direction.Valid() {
		return RecordResult{}, fmt.Errorf("%w: direction must be 0 or 1, got %d", ErrInvalidScan, direction)
	}

	tickets, err := r.Tickets.FindTicketsByBarcode(ctx, barcode)
	if err != nil {
		return RecordResult{}, storageErr("find tickets by barcode", err)
	}

	if len(tickets) != 1 {
		r.Logger.LogScan(barcode, int(direction), fmt.Sprintf("AMBIGUOUS matches=%d", len(tickets)))
		return Ambiguous(len(tickets)), nil
	}

	ticket := tickets[0]
	event := &models.AttendanceEvent{
		TicketID:  ticket.ID,
		VenueID:   r.VenueID,
		ScannedAt: r.clock().UTC(),
		Direction: direction,
	}
	if err := r.Events.InsertAttendanceEvent(ctx, event); err != nil {
		return RecordResult{}, storageErr("insert attendance event", err)
	}

	r.Logger.LogScan(barcode, int(direction), fmt.Sprintf("RECORDED ticket=%d event=%d", ticket.ID, event.ID))
	r.publish(ctx, event)

	return Recorded(ticket.ID), nil
}

func (r *Recorder) publish(ctx context.Context, event *models.AttendanceEvent) {
	if r.Publisher == nil {
		return
	}
	msg := models.ScanEvent{
		EventID:   uuid.NewString(),
		TicketID:  event.TicketID,
		VenueID:   event.VenueID,
		Direction: event.Direction,
		ScannedAt: event.ScannedAt,
	}
	if err := r.Publisher.PublishScan(ctx, msg); err != nil {
		r.Logger.Warn("CHECKIN", fmt.Sprintf("Failed to publish scan for ticket %d: %v", event.TicketID, err))
	}
}

func (r *Recorder) clock() time.Time {
	if r.now == nil {
		return time.Now()
	}
	return r.now()
}
