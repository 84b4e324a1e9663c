package dto

import (
	"bookingrule/internal/domain/availability"
	"bookingrule/internal/domain/shared/daterange"
)

type CalendarBlock struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Reason    string `json:"reason"`
	Reference string `json:"reference,omitempty"`
}

// Calendar lists the raw blocks and the expanded blocked days, both printed
// in the configured date format.
type Calendar struct {
	InventoryID string          `json:"inventory_id"`
	Blocks      []CalendarBlock `json:"blocks"`
	Blocked     []string        `json:"blocked"`
}

// MapCalendar keeps only days inside window; a zero window keeps everything.
func MapCalendar(cal *availability.Calendar, format daterange.Format, window daterange.Range) Calendar {
	if cal == nil {
		return Calendar{Blocks: []CalendarBlock{}, Blocked: []string{}}
	}
	bounded := !window.Start.IsZero() && !window.End.IsZero()
	blocks := make([]CalendarBlock, 0, len(cal.Blocks))
	for _, b := range cal.Blocks {
		if bounded && !b.Range.Overlaps(window) {
			continue
		}
		blocks = append(blocks, CalendarBlock{
			From:      format.Format(b.Range.Start),
			To:        format.Format(b.Range.End),
			Reason:    string(b.Reason),
			Reference: b.Reference,
		})
	}
	blocked := []string{}
	for _, d := range cal.BlockedDates().Dates() {
		if bounded && !window.Contains(d) {
			continue
		}
		blocked = append(blocked, format.Format(d))
	}
	return Calendar{InventoryID: cal.InventoryID, Blocks: blocks, Blocked: blocked}
}
