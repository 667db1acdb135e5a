package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Direction of a scan at the venue gate.
type Direction int

const (
	DirectionExiting  Direction = 0
	DirectionEntering Direction = 1
)

func (d Direction) Valid() bool {
	return d == DirectionExiting || d == DirectionEntering
}

func (d Direction) String() string {
	switch d {
	case DirectionEntering:
		return "entering"
	case DirectionExiting:
		return "exiting"
	default:
		return "unknown"
	}
}

// AttendanceEvent is one append-only scan row.
type AttendanceEvent struct {
	bun.BaseModel `bun:"table:attendance_events"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	TicketID  int64     `bun:"ticket_id,notnull" json:"ticket_id"`
	VenueID   int64     `bun:"venue_id,notnull" json:"venue_id"`
	ScannedAt time.Time `bun:"scanned_at,notnull" json:"scanned_at"`
	Direction Direction `bun:"direction,notnull" json:"direction"`
}

type Venue struct {
	bun.BaseModel `bun:"table:venues"`

	ID   int64  `bun:"id,pk,autoincrement" json:"id"`
	Name string `bun:"name,notnull" json:"name"`
}

// ScanEvent is published for every recorded scan.
type ScanEvent struct {
	EventID   string    `json:"event_id"`
	TicketID  int64     `json:"ticket_id"`
	VenueID   int64     `json:"venue_id"`
	Direction Direction `json:"direction"`
	ScannedAt time.Time `json:"scanned_at"`
}
