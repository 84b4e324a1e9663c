package availability

import (
	"context"
	"fmt"

	"bookingrule/internal/app/dto"
	"bookingrule/internal/app/queries"
	domainavailability "bookingrule/internal/domain/availability"
	"bookingrule/internal/domain/shared/daterange"
)

const getCalendarKey = "availability.calendar"

// GetCalendarQuery optionally narrows the result to [From, To], both in the configured format.
type GetCalendarQuery struct {
	InventoryID string `validate:"required,max=128"`
	From        string `validate:"omitempty,max=32"`
	To          string `validate:"omitempty,max=32"`
}

func (q GetCalendarQuery) Key() string { return getCalendarKey }

type GetCalendarHandler struct {
	Calendars domainavailability.Repository
	Format    daterange.Format
}

func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (dto.Calendar, error) {
	if h.Calendars == nil {
		return dto.Calendar{}, ErrNotConfigured
	}
	var window daterange.Range
	if q.From != "" && q.To != "" {
		from, err := h.Format.Parse(q.From)
		if err != nil {
			return dto.Calendar{}, fmt.Errorf("from: %w", err)
		}
		to, err := h.Format.Parse(q.To)
		if err != nil {
			return dto.Calendar{}, fmt.Errorf("to: %w", err)
		}
		if window, err = daterange.NewRange(from, to); err != nil {
			return dto.Calendar{}, err
		}
	}
	cal, err := h.Calendars.Calendar(ctx, q.InventoryID)
	if err != nil {
		return dto.Calendar{}, err
	}
	return dto.MapCalendar(cal, h.Format, window), nil
}

var _ queries.Handler[GetCalendarQuery, dto.Calendar] = (*GetCalendarHandler)(nil)
