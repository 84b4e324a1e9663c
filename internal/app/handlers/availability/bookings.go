package availability

import (
	"context"
	"errors"
	"time"

	"bookingrule/internal/app/commands"
	"bookingrule/internal/app/outbox"
	domainavailability "bookingrule/internal/domain/availability"
	"bookingrule/internal/domain/shared/daterange"
)

const (
	blockDatesKey   = "availability.block"
	releaseDatesKey = "availability.release"
)

var ErrNotConfigured = errors.New("availability: handler missing dependencies")

// BlockDatesCommand marks an inclusive range as unavailable. Reference is the
// booking id for BOOKING blocks and makes re-delivery a no-op.
type BlockDatesCommand struct {
	InventoryID string                         `validate:"required,max=128"`
	Range       daterange.Range                `validate:"-"`
	Reason      domainavailability.BlockReason `validate:"omitempty,oneof=BOOKING HOST_BLOCK"`
	Reference   string                         `validate:"max=128"`
}

func (c BlockDatesCommand) Key() string { return blockDatesKey }

type ReleaseDatesCommand struct {
	InventoryID string `validate:"required,max=128"`
	Reference   string `validate:"required,max=128"`
}

func (c ReleaseDatesCommand) Key() string { return releaseDatesKey }

type Locker interface {
	Lock(key string) (unlock func())
}

type CalendarDeps struct {
	Calendars domainavailability.Repository
	Locks     Locker
	Outbox    outbox.Outbox
	Encoder   outbox.EventEncoder
	Now       func() time.Time
}

func (d CalendarDeps) mutate(ctx context.Context, inventoryID string, fn func(cal *domainavailability.Calendar, now time.Time) error) error {
	if d.Calendars == nil {
		return ErrNotConfigured
	}
	if d.Locks != nil {
		unlock := d.Locks.Lock("calendar:" + inventoryID)
		defer unlock()
	}
	cal, err := d.Calendars.Calendar(ctx, inventoryID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if d.Now != nil {
		now = d.Now().UTC()
	}
	fnErr := fn(cal, now)
	if fnErr != nil && !errors.Is(fnErr, domainavailability.ErrOverlappingRange) {
		return fnErr
	}
	if fnErr == nil {
		if err := d.Calendars.Save(ctx, cal); err != nil {
			return err
		}
	}
	// overbooking attempts are published even though nothing is saved
	encoder := d.Encoder
	if encoder == nil {
		encoder = outbox.JSONEventEncoder{}
	}
	if err := outbox.RecordDomainEvents(ctx, d.Outbox, encoder, cal.Drain()); err != nil {
		return err
	}
	return fnErr
}

type BlockDatesHandler struct{ CalendarDeps }

func (h *BlockDatesHandler) Handle(ctx context.Context, cmd BlockDatesCommand) (struct{}, error) {
	return struct{}{}, h.mutate(ctx, cmd.InventoryID, func(cal *domainavailability.Calendar, now time.Time) error {
		return cal.Block(cmd.Range, cmd.Reason, cmd.Reference, now)
	})
}

type ReleaseDatesHandler struct{ CalendarDeps }

func (h *ReleaseDatesHandler) Handle(ctx context.Context, cmd ReleaseDatesCommand) (struct{}, error) {
	return struct{}{}, h.mutate(ctx, cmd.InventoryID, func(cal *domainavailability.Calendar, now time.Time) error {
		return cal.Release(cmd.Reference, now)
	})
}

var (
	_ commands.Handler[BlockDatesCommand, struct{}]   = (*BlockDatesHandler)(nil)
	_ commands.Handler[ReleaseDatesCommand, struct{}] = (*ReleaseDatesHandler)(nil)
)
