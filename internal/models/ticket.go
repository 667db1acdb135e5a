package models

import (
	"time"

	"github.com/uptrace/bun"
)

const (
	TicketStatusPaid    = "PAID"
	TicketStatusNotPaid = "NOT PAID"
	TicketStatusFree    = "FREE"
)

// Ticket is one registered attendee. Barcode is indexed but not unique.
type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	ID           int64     `bun:"id,pk,autoincrement" json:"id"`
	Barcode      string    `bun:"barcode,notnull" json:"barcode"`
	TicketTypeID int64     `bun:"ticket_type_id,notnull" json:"ticket_type_id"`
	FirstName    string    `bun:"first_name" json:"first_name"`
	LastName     string    `bun:"last_name" json:"last_name"`
	Email        string    `bun:"email" json:"email"`
	Status       string    `bun:"status" json:"status"`
	CreatedAt    time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt    time.Time `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`

	TicketType *TicketType `bun:"rel:belongs-to,join:ticket_type_id=id" json:"ticket_type,omitempty"`
}

// TicketType doubles as the attendee role in reports.
type TicketType struct {
	bun.BaseModel `bun:"table:ticket_types"`

	ID   int64  `bun:"id,pk,autoincrement" json:"id"`
	Name string `bun:"name,notnull,unique" json:"name"`
}

// TicketRegistration is the import payload for a single ticket.
type TicketRegistration struct {
	Barcode    string `json:"barcode"`
	TicketType string `json:"ticket_type"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Status     string `json:"status"`
}
