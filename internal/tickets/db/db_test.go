package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"

	"ms-attendance/internal/database"
	"ms-attendance/internal/models"
	"ms-attendance/internal/tickets/db"
)

func setupTestDB(t *testing.T) (*db.DB, *bun.DB) {
	t.Helper()

	bunDB, err := database.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { bunDB.Close() })

	ctx := context.Background()
	require.NoError(t, database.CreateSchema(ctx, bunDB))
	require.NoError(t, database.SeedDefaults(ctx, bunDB, 1, models.SettingCurrentEventDay, "2026-10-18"))

	return &db.DB{Bun: bunDB}, bunDB
}

func createType(t *testing.T, ticketDB *db.DB, name string) *models.TicketType {
	t.Helper()
	tt := &models.TicketType{Name: name}
	require.NoError(t, ticketDB.CreateTicketType(context.Background(), tt))
	require.NotZero(t, tt.ID)
	return tt
}

func createTicket(t *testing.T, ticketDB *db.DB, barcode string, typeID int64) *models.Ticket {
	t.Helper()
	now := time.Now().UTC()
	ticket := &models.Ticket{
		Barcode:      barcode,
		TicketTypeID: typeID,
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        "ada@example.com",
		Status:       models.TicketStatusPaid,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, ticketDB.CreateTicket(context.Background(), ticket))
	require.NotZero(t, ticket.ID)
	return ticket
}

func TestCreateAndGetTicket(t *testing.T) {
	ticketDB, _ := setupTestDB(t)
	ctx := context.Background()

	vip := createType(t, ticketDB, "VIP")
	created := createTicket(t, ticketDB, "ABC123", vip.ID)

	ticket, err := ticketDB.GetTicketByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "ABC123", ticket.Barcode)
	require.NotNil(t, ticket.TicketType)
	assert.Equal(t, "VIP", ticket.TicketType.Name)

	_, err = ticketDB.GetTicketByID(ctx, 9999)
	assert.ErrorIs(t, err, models.ErrTicketNotFound)
}

func TestFindTicketsByBarcode(t *testing.T) {
	ticketDB, _ := setupTestDB(t)
	ctx := context.Background()

	vip := createType(t, ticketDB, "VIP")
	createTicket(t, ticketDB, "ABC123", vip.ID)
	createTicket(t, ticketDB, "DUP111", vip.ID)
	createTicket(t, ticketDB, "DUP111", vip.ID)

	found, err := ticketDB.FindTicketsByBarcode(ctx, "ABC123")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	found, err = ticketDB.FindTicketsByBarcode(ctx, "DUP111")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	// exact match only
	found, err = ticketDB.FindTicketsByBarcode(ctx, "ABC")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestUpdateAndDeleteTicket(t *testing.T) {
	ticketDB, _ := setupTestDB(t)
	ctx := context.Background()

	vip := createType(t, ticketDB, "VIP")
	ticket := createTicket(t, ticketDB, "ABC123", vip.ID)

	ticket.Status = models.TicketStatusFree
	ticket.Email = "changed@example.com"
	require.NoError(t, ticketDB.UpdateTicket(ctx, ticket))

	updated, err := ticketDB.GetTicketByID(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TicketStatusFree, updated.Status)
	assert.Equal(t, "changed@example.com", updated.Email)

	require.NoError(t, ticketDB.DeleteTicket(ctx, ticket.ID))
	_, err = ticketDB.GetTicketByID(ctx, ticket.ID)
	assert.ErrorIs(t, err, models.ErrTicketNotFound)

	assert.ErrorIs(t, ticketDB.DeleteTicket(ctx, ticket.ID), models.ErrTicketNotFound)

	missing := &models.Ticket{ID: 4242, Barcode: "X", TicketTypeID: vip.ID}
	assert.ErrorIs(t, ticketDB.UpdateTicket(ctx, missing), models.ErrTicketNotFound)
}

func TestListTicketsFilters(t *testing.T) {
	ticketDB, _ := setupTestDB(t)
	ctx := context.Background()

	vip := createType(t, ticketDB, "VIP")
	reader := createType(t, ticketDB, "reader")
	createTicket(t, ticketDB, "A1", vip.ID)
	createTicket(t, ticketDB, "A2", reader.ID)
	createTicket(t, ticketDB, "A3", reader.ID)

	all, err := ticketDB.ListTickets(ctx, db.TicketFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	readers, err := ticketDB.ListTickets(ctx, db.TicketFilter{TypeName: "reader"})
	require.NoError(t, err)
	assert.Len(t, readers, 2)

	byBarcode, err := ticketDB.ListTickets(ctx, db.TicketFilter{Barcode: "A1"})
	require.NoError(t, err)
	require.Len(t, byBarcode, 1)
	assert.Equal(t, "VIP", byBarcode[0].TicketType.Name)

	page, err := ticketDB.ListTickets(ctx, db.TicketFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "A2", page[0].Barcode)
}

func TestTicketTypes(t *testing.T) {
	ticketDB, _ := setupTestDB(t)
	ctx := context.Background()

	createType(t, ticketDB, "reader")
	createType(t, ticketDB, "VIP")

	tt, err := ticketDB.GetTicketTypeByName(ctx, "VIP")
	require.NoError(t, err)
	assert.Equal(t, "VIP", tt.Name)

	_, err = ticketDB.GetTicketTypeByName(ctx, "press")
	assert.ErrorIs(t, err, models.ErrTicketTypeNotFound)

	types, err := ticketDB.ListTicketTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, types, 2)

	assert.Error(t, ticketDB.CreateTicketType(ctx, &models.TicketType{Name: "VIP"}))
}

func TestDeleteTicketCascadesToAttendanceEvents(t *testing.T) {
	ticketDB, _ := setupTestDB(t)
	ctx := context.Background()

	vip := createType(t, ticketDB, "VIP")
	ticket := createTicket(t, ticketDB, "ABC123", vip.ID)
	insertEvent(t, ticketDB, ticket.ID, time.Now(), models.DirectionEntering)

	require.NoError(t, ticketDB.DeleteTicket(ctx, ticket.ID))

	events, err := ticketDB.ListAttendanceEvents(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestAttendanceEventRequiresExistingTicketAndVenue(t *testing.T) {
	ticketDB, _ := setupTestDB(t)
	ctx := context.Background()

	vip := createType(t, ticketDB, "VIP")
	ticket := createTicket(t, ticketDB, "ABC123", vip.ID)

	err := ticketDB.InsertAttendanceEvent(ctx, &models.AttendanceEvent{
		TicketID: 99999, VenueID: 1, ScannedAt: time.Now().UTC(), Direction: models.DirectionEntering,
	})
	assert.Error(t, err)

	err = ticketDB.InsertAttendanceEvent(ctx, &models.AttendanceEvent{
		TicketID: ticket.ID, VenueID: 77, ScannedAt: time.Now().UTC(), Direction: models.DirectionEntering,
	})
	assert.Error(t, err)

	events, err := ticketDB.ListAttendanceEvents(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, events)
}
