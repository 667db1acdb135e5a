package attendance

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"ms-attendance/internal/models"
)

type CountStore interface {
	CountTicketsByType(ctx context.Context) ([]models.TypeCount, error)
	CountEventsByRoleSince(ctx context.Context, since time.Time) ([]models.RoleCount, error)
	CountEventsByRoleAndDirectionSince(ctx context.Context, since time.Time) ([]models.RoleDirectionCount, error)
}

// Aggregator computes attendance rollups. The event day is always passed
// in by the caller.
type Aggregator struct {
	Store CountStore
}

func NewAggregator(store CountStore) *Aggregator {
	return &Aggregator{Store: store}
}

// TotalByType returns one entry per ticket type that has tickets.
func (a *Aggregator) TotalByType(ctx context.Context) ([]models.TypeCount, error) {
	counts, err := a.Store.CountTicketsByType(ctx)
	if err != nil {
		return nil, storageErr("count tickets by type", err)
	}
	return counts, nil
}

// CurrentlyCheckedIn counts attendance events since the start of day,
// grouped by role. Events are counted, not people.
func (a *Aggregator) CurrentlyCheckedIn(ctx context.Context, day time.Time) ([]models.RoleCount, error) {
	counts, err := a.Store.CountEventsByRoleSince(ctx, StartOfDay(day))
	if err != nil {
		return nil, storageErr("count events by role", err)
	}
	return counts, nil
}

// PresentByRole is entering minus exiting events since the start of day,
// floored at zero. Roles that net to zero are left out.
func (a *Aggregator) PresentByRole(ctx context.Context, day time.Time) ([]models.RoleCount, error) {
	rows, err := a.Store.CountEventsByRoleAndDirectionSince(ctx, StartOfDay(day))
	if err != nil {
		return nil, storageErr("count events by role and direction", err)
	}

	net := map[string]int{}
	for _, row := range rows {
		switch row.Direction {
		case models.DirectionEntering:
			net[row.Role] += row.Count
		case models.DirectionExiting:
			net[row.Role] -= row.Count
		}
	}

	present := []models.RoleCount{}
	for role, n := range net {
		if n > 0 {
			present = append(present, models.RoleCount{Role: role, Count: n})
		}
	}
	sort.Slice(present, func(i, j int) bool { return present[i].Role < present[j].Role })
	return present, nil
}

var eventDayLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// ParseEventDay converts a stored event day value into the start of that
// day in loc.
func ParseEventDay(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range eventDayLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return StartOfDay(t.In(loc)), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidEventDay, value)
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
