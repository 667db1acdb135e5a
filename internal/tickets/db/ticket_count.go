package db

import (
	"context"
	"time"

	"ms-attendance/internal/models"
)

// InsertAttendanceEvent appends one scan row. No validation beyond the
// foreign keys is applied.
func (d *DB) InsertAttendanceEvent(ctx context.Context, event *models.AttendanceEvent) error {
	_, err := d.Bun.NewInsert().Model(event).Exec(ctx)
	return err
}

// ListAttendanceEvents returns the raw scan log of one ticket, newest first.
func (d *DB) ListAttendanceEvents(ctx context.Context, ticketID int64) ([]models.AttendanceEvent, error) {
	events := []models.AttendanceEvent{}
	err := d.Bun.NewSelect().
		Model(&events).
		Where("ticket_id = ?", ticketID).
		Order("scanned_at DESC", "id DESC").
		Scan(ctx)
	return events, err
}

// CountTicketsByType groups all tickets by their ticket type.
func (d *DB) CountTicketsByType(ctx context.Context) ([]models.TypeCount, error) {
	counts := []models.TypeCount{}
	err := d.Bun.NewSelect().
		TableExpr("tickets AS t").
		ColumnExpr("tt.name AS type_name").
		ColumnExpr("COUNT(t.id) AS count").
		Join("JOIN ticket_types AS tt ON tt.id = t.ticket_type_id").
		GroupExpr("tt.id, tt.name").
		OrderExpr("tt.name ASC").
		Scan(ctx, &counts)
	return counts, err
}

// CountEventsByRoleSince counts attendance rows scanned at or after since,
// grouped by the ticket type of the scanned ticket. Every row counts, so
// repeated scans of one ticket are counted repeatedly.
func (d *DB) CountEventsByRoleSince(ctx context.Context, since time.Time) ([]models.RoleCount, error) {
	counts := []models.RoleCount{}
	err := d.Bun.NewSelect().
		TableExpr("attendance_events AS ae").
		ColumnExpr("tt.name AS role").
		ColumnExpr("COUNT(ae.id) AS count").
		Join("JOIN tickets AS t ON t.id = ae.ticket_id").
		Join("JOIN ticket_types AS tt ON tt.id = t.ticket_type_id").
		Where("ae.scanned_at >= ?", since.UTC()).
		GroupExpr("tt.name").
		OrderExpr("tt.name ASC").
		Scan(ctx, &counts)
	return counts, err
}

// CountEventsByRoleAndDirectionSince is CountEventsByRoleSince split by
// scan direction.
func (d *DB) CountEventsByRoleAndDirectionSince(ctx context.Context, since time.Time) ([]models.RoleDirectionCount, error) {
	counts := []models.RoleDirectionCount{}
	err := d.Bun.NewSelect().
		TableExpr("attendance_events AS ae").
		ColumnExpr("tt.name AS role").
		ColumnExpr("ae.direction AS direction").
		ColumnExpr("COUNT(ae.id) AS count").
		Join("JOIN tickets AS t ON t.id = ae.ticket_id").
		Join("JOIN ticket_types AS tt ON tt.id = t.ticket_type_id").
		Where("ae.scanned_at >= ?", since.UTC()).
		GroupExpr("tt.name, ae.direction").
		OrderExpr("tt.name ASC, ae.direction ASC").
		Scan(ctx, &counts)
	return counts, err
}

// GetTotalTicketsCount returns the number of tickets in the database
func (d *DB) GetTotalTicketsCount(ctx context.Context) (int, error) {
	return d.Bun.NewSelect().
		Model((*models.Ticket)(nil)).
		Count(ctx)
}
