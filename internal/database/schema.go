package database

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"ms-attendance/internal/models"
)

// CreateSchema creates the tables from the bun models. Postgres deployments
// use the migrations package instead; this serves SQLite and tests.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	tables := []struct {
		model interface{}
		fks   []string
	}{
		{model: (*models.TicketType)(nil)},
		{model: (*models.Ticket)(nil), fks: []string{
			`("ticket_type_id") REFERENCES "ticket_types" ("id")`,
		}},
		{model: (*models.Venue)(nil)},
		{model: (*models.AttendanceEvent)(nil), fks: []string{
			`("ticket_id") REFERENCES "tickets" ("id") ON DELETE CASCADE`,
			`("venue_id") REFERENCES "venues" ("id")`,
		}},
		{model: (*models.Setting)(nil)},
	}

	for _, table := range tables {
		q := db.NewCreateTable().Model(table.model).IfNotExists()
		for _, fk := range table.fks {
			q = q.ForeignKey(fk)
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	indexes := []struct {
		model  interface{}
		name   string
		column string
	}{
		{(*models.Ticket)(nil), "idx_tickets_barcode", "barcode"},
		{(*models.AttendanceEvent)(nil), "idx_attendance_events_scanned_at", "scanned_at"},
		{(*models.AttendanceEvent)(nil), "idx_attendance_events_ticket_id", "ticket_id"},
	}
	for _, idx := range indexes {
		_, err := db.NewCreateIndex().
			Model(idx.model).
			Index(idx.name).
			Column(idx.column).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
	}
	return nil
}

// SeedDefaults inserts the default venue and, when missing, the current
// event day setting.
func SeedDefaults(ctx context.Context, db *bun.DB, venueID int64, eventDayKey, today string) error {
	venue := models.Venue{ID: venueID, Name: "Main venue"}
	if _, err := db.NewInsert().Model(&venue).On("CONFLICT (id) DO NOTHING").Exec(ctx); err != nil {
		return fmt.Errorf("seed venue: %w", err)
	}

	setting := models.Setting{Key: eventDayKey, Value: today}
	if _, err := db.NewInsert().Model(&setting).On("CONFLICT (key) DO NOTHING").Exec(ctx); err != nil {
		return fmt.Errorf("seed %s: %w", eventDayKey, err)
	}
	return nil
}
