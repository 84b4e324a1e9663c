package availability

import (
	"sort"

	"bookingrule/internal/domain/shared/daterange"
)

type BlockReason string

const (
	ReasonBooking   BlockReason = "BOOKING"
	ReasonHostBlock BlockReason = "HOST_BLOCK"
)

// BlockedDates is the set of days a rental cannot cover. Built fresh for every check
// from administrator blocks plus already-reserved days; the engine only reads it.
type BlockedDates struct {
	days map[daterange.Date]BlockReason
}

func NewBlockedDates(days ...daterange.Date) BlockedDates {
	b := BlockedDates{days: make(map[daterange.Date]BlockReason, len(days))}
	for _, d := range days {
		b.Add(d, ReasonHostBlock)
	}
	return b
}

// ParseBlockedDates reads date strings in the widget format. Entries that do not parse
// are returned separately so the caller can log them.
func ParseBlockedDates(format daterange.Format, raw []string, reason BlockReason) (BlockedDates, []string) {
	b := BlockedDates{days: make(map[daterange.Date]BlockReason, len(raw))}
	var invalid []string
	for _, s := range raw {
		d, err := format.Parse(s)
		if err != nil {
			invalid = append(invalid, s)
			continue
		}
		b.Add(d, reason)
	}
	return b, invalid
}

// Add marks d as blocked. A booking reason overrides a host block for the same day.
func (b *BlockedDates) Add(d daterange.Date, reason BlockReason) {
	if b.days == nil {
		b.days = make(map[daterange.Date]BlockReason)
	}
	if existing, ok := b.days[d]; ok && existing == ReasonBooking {
		return
	}
	b.days[d] = reason
}

// Merge adds every day of other into b.
func (b *BlockedDates) Merge(other BlockedDates) {
	for d, reason := range other.days {
		b.Add(d, reason)
	}
}

func (b BlockedDates) Contains(d daterange.Date) bool {
	_, ok := b.days[d]
	return ok
}

func (b BlockedDates) Reason(d daterange.Date) (BlockReason, bool) {
	reason, ok := b.days[d]
	return reason, ok
}

func (b BlockedDates) Len() int {
	return len(b.days)
}

// Dates lists the blocked days in calendar order.
func (b BlockedDates) Dates() []daterange.Date {
	out := make([]daterange.Date, 0, len(b.days))
	for d := range b.days {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
