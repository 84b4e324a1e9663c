package availability

import (
	"context"
	"errors"
	"time"

	"bookingrule/internal/domain/shared/daterange"
	"bookingrule/internal/domain/shared/events"
)

var (
	ErrOverlappingRange = errors.New("availability: booking overlaps an existing booking")
	ErrRangeNotFound    = errors.New("availability: range not found")
	ErrConcurrentUpdate = errors.New("availability: calendar changed concurrently")
)

type Block struct {
	Range     daterange.Range
	Reason    BlockReason
	Reference string
	CreatedAt time.Time
}

// Calendar holds the blocks of one inventory item. It is the external collaborator's
// view of availability; the booking window engine sees it only as BlockedDates.
type Calendar struct {
	InventoryID string
	Blocks      []Block
	Version     int64
	events.EventRecorder
}

type Repository interface {
	Calendar(ctx context.Context, inventoryID string) (*Calendar, error)
	Save(ctx context.Context, calendar *Calendar) error
}

func NewCalendar(inventoryID string) *Calendar {
	return &Calendar{InventoryID: inventoryID}
}

// Block adds a range. Host blocks may overlap anything; a booking may not overlap
// another booking. Re-blocking an existing reference is a no-op.
func (c *Calendar) Block(r daterange.Range, reason BlockReason, reference string, now time.Time) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if reason == "" {
		reason = ReasonHostBlock
	}
	if reference != "" && c.hasReference(reference) {
		return nil
	}
	if reason == ReasonBooking {
		for _, block := range c.Blocks {
			if block.Reason == ReasonBooking && block.Range.Overlaps(r) {
				c.Record(CalendarOverbookingPreventedEvent(c.InventoryID, r, now))
				return ErrOverlappingRange
			}
		}
	}
	c.Blocks = append(c.Blocks, Block{Range: r, Reason: reason, Reference: reference, CreatedAt: now.UTC()})
	c.Record(CalendarBlockedEvent(c.InventoryID, r, reason, now))
	return nil
}

func (c *Calendar) Release(reference string, now time.Time) error {
	idx := -1
	for i, block := range c.Blocks {
		if block.Reference == reference {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrRangeNotFound
	}
	removed := c.Blocks[idx]
	c.Blocks = append(c.Blocks[:idx], c.Blocks[idx+1:]...)
	c.Record(CalendarReleasedEvent(c.InventoryID, removed.Range, removed.Reason, now))
	return nil
}

// BlockedDates expands every block into its days.
func (c *Calendar) BlockedDates() BlockedDates {
	out := NewBlockedDates()
	for _, block := range c.Blocks {
		reason := block.Reason
		block.Range.Each(func(d daterange.Date) bool {
			out.Add(d, reason)
			return true
		})
	}
	return out
}

func (c *Calendar) hasReference(reference string) bool {
	for _, block := range c.Blocks {
		if block.Reference == reference {
			return true
		}
	}
	return false
}
