package bookingwindow

import (
	"context"
	"fmt"

	"bookingrule/internal/app/policies"
	"bookingrule/internal/domain/availability"
)

// CalendarBlockedDates reads the blocked set straight from the calendar
// repository on every call.
type CalendarBlockedDates struct {
	Calendars availability.Repository
}

func (s CalendarBlockedDates) BlockedDates(ctx context.Context, inventoryID string) (availability.BlockedDates, error) {
	if s.Calendars == nil {
		return availability.BlockedDates{}, fmt.Errorf("bookingwindow: calendar repository not configured")
	}
	cal, err := s.Calendars.Calendar(ctx, inventoryID)
	if err != nil {
		return availability.BlockedDates{}, fmt.Errorf("load calendar %s: %w", inventoryID, err)
	}
	return cal.BlockedDates(), nil
}

var _ policies.BlockedDateSource = CalendarBlockedDates{}
