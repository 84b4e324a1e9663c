package availability

import (
	"time"

	"bookingrule/internal/domain/shared/daterange"
)

type CalendarBlocked struct {
	InventoryID string          `json:"inventory_id"`
	Range       daterange.Range `json:"range"`
	Reason      BlockReason     `json:"reason"`
	At          time.Time       `json:"at"`
}

func (e CalendarBlocked) EventName() string     { return "calendar.blocked" }
func (e CalendarBlocked) AggregateID() string   { return e.InventoryID }
func (e CalendarBlocked) OccurredAt() time.Time { return e.At }

type CalendarReleased struct {
	InventoryID string          `json:"inventory_id"`
	Range       daterange.Range `json:"range"`
	Reason      BlockReason     `json:"reason"`
	At          time.Time       `json:"at"`
}

func (e CalendarReleased) EventName() string     { return "calendar.released" }
func (e CalendarReleased) AggregateID() string   { return e.InventoryID }
func (e CalendarReleased) OccurredAt() time.Time { return e.At }

type CalendarOverbookingPrevented struct {
	InventoryID string          `json:"inventory_id"`
	Range       daterange.Range `json:"range"`
	At          time.Time       `json:"at"`
}

func (e CalendarOverbookingPrevented) EventName() string     { return "calendar.overbooking_prevented" }
func (e CalendarOverbookingPrevented) AggregateID() string   { return e.InventoryID }
func (e CalendarOverbookingPrevented) OccurredAt() time.Time { return e.At }

func CalendarBlockedEvent(id string, r daterange.Range, reason BlockReason, at time.Time) CalendarBlocked {
	return CalendarBlocked{InventoryID: id, Range: r, Reason: reason, At: at}
}

func CalendarReleasedEvent(id string, r daterange.Range, reason BlockReason, at time.Time) CalendarReleased {
	return CalendarReleased{InventoryID: id, Range: r, Reason: reason, At: at}
}

func CalendarOverbookingPreventedEvent(id string, r daterange.Range, at time.Time) CalendarOverbookingPrevented {
	return CalendarOverbookingPrevented{InventoryID: id, Range: r, At: at}
}
