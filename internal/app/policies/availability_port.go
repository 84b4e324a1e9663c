package policies

import (
	"context"

	"bookingrule/internal/domain/availability"
)

// BlockedDateSource returns the latest blocked days for an inventory item.
// Callers must not cache the result between checks.
type BlockedDateSource interface {
	BlockedDates(ctx context.Context, inventoryID string) (availability.BlockedDates, error)
}
