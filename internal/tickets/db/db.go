package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/uptrace/bun"

	"ms-attendance/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// TicketFilter narrows ListTickets. Zero values are ignored.
type TicketFilter struct {
	Barcode  string
	TypeName string
	Limit    int
	Offset   int
}

func (d *DB) CreateTicket(ctx context.Context, ticket *models.Ticket) error {
	_, err := d.Bun.NewInsert().Model(ticket).Exec(ctx)
	return err
}

func (d *DB) GetTicketByID(ctx context.Context, id int64) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Relation("TicketType").
		Where("ticket.id = ?", id).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrTicketNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// FindTicketsByBarcode returns every ticket whose barcode equals barcode
// exactly. More than one row is possible since barcodes are not unique.
func (d *DB) FindTicketsByBarcode(ctx context.Context, barcode string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Relation("TicketType").
		Where("ticket.barcode = ?", barcode).
		Order("ticket.id ASC").
		Scan(ctx)
	return tickets, err
}

func (d *DB) ListTickets(ctx context.Context, filter TicketFilter) ([]models.Ticket, error) {
	tickets := []models.Ticket{}
	q := d.Bun.NewSelect().
		Model(&tickets).
		Relation("TicketType").
		Order("ticket.id ASC")

	if filter.Barcode != "" {
		q = q.Where("ticket.barcode = ?", filter.Barcode)
	}
	if filter.TypeName != "" {
		q = q.Where("ticket_type.name = ?", filter.TypeName)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	err := q.Scan(ctx)
	return tickets, err
}

func (d *DB) UpdateTicket(ctx context.Context, ticket *models.Ticket) error {
	ticket.UpdatedAt = time.Now().UTC()
	res, err := d.Bun.NewUpdate().
		Model(ticket).
		Column("barcode", "ticket_type_id", "first_name", "last_name", "email", "status", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res, models.ErrTicketNotFound)
}

func (d *DB) DeleteTicket(ctx context.Context, id int64) error {
	res, err := d.Bun.NewDelete().
		Model((*models.Ticket)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res, models.ErrTicketNotFound)
}

func (d *DB) CreateTicketType(ctx context.Context, ticketType *models.TicketType) error {
	_, err := d.Bun.NewInsert().Model(ticketType).Exec(ctx)
	return err
}

func (d *DB) GetTicketTypeByName(ctx context.Context, name string) (*models.TicketType, error) {
	var ticketType models.TicketType
	err := d.Bun.NewSelect().
		Model(&ticketType).
		Where("name = ?", name).
		Limit(1).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrTicketTypeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ticketType, nil
}

func (d *DB) ListTicketTypes(ctx context.Context) ([]models.TicketType, error) {
	types := []models.TicketType{}
	err := d.Bun.NewSelect().
		Model(&types).
		Order("name ASC").
		Scan(ctx)
	return types, err
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
