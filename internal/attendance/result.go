package attendance

import "fmt"

type RecordStatus int

const (
	StatusAmbiguous RecordStatus = iota
	StatusRecorded
)

func (s RecordStatus) String() string {
	if s == StatusRecorded {
		return "recorded"
	}
	return "ambiguous"
}

// RecordResult is the outcome of a scan that reached the ticket lookup.
// Ambiguous covers both "no ticket" and "several tickets" for the barcode;
// Matches tells them apart.
type RecordResult struct {
	Status   RecordStatus
	TicketID int64
	Matches  int
}

func Recorded(ticketID int64) RecordResult {
	return RecordResult{Status: StatusRecorded, TicketID: ticketID, Matches: 1}
}

func Ambiguous(matches int) RecordResult {
	return RecordResult{Status: StatusAmbiguous, Matches: matches}
}

func (r RecordResult) IsRecorded() bool {
	return r.Status == StatusRecorded
}

func (r RecordResult) NotFound() bool {
	return r.Status == StatusAmbiguous && r.Matches == 0
}

func (r RecordResult) Duplicate() bool {
	return r.Status == StatusAmbiguous && r.Matches > 1
}

func (r RecordResult) String() string {
	if r.IsRecorded() {
		return fmt.Sprintf("recorded(ticket=%d)", r.TicketID)
	}
	return fmt.Sprintf("ambiguous(matches=%d)", r.Matches)
}
