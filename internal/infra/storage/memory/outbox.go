package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	appoutbox "bookingrule/internal/app/outbox"
	infraoutbox "bookingrule/internal/infra/outbox"
)

// Outbox keeps records in memory until the worker marks them sent.
type Outbox struct {
	mu      sync.Mutex
	records map[string]*infraoutbox.EventDocument
	ready   chan struct{}
	now     func() time.Time
}

func NewOutbox() *Outbox {
	return &Outbox{
		records: make(map[string]*infraoutbox.EventDocument),
		ready:   make(chan struct{}, 1),
		now:     time.Now,
	}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now().UTC()
	o.records[record.ID] = &infraoutbox.EventDocument{
		ID:          record.ID,
		Name:        record.Name,
		Payload:     append([]byte(nil), record.Payload...),
		OccurredAt:  record.OccurredAt,
		Aggregate:   record.Aggregate,
		Headers:     record.Headers,
		State:       infraoutbox.StateNew,
		NextAttempt: now,
	}
	return nil
}

// Flush wakes the worker if it is waiting.
func (o *Outbox) Flush(ctx context.Context) error {
	select {
	case o.ready <- struct{}{}:
	default:
	}
	return nil
}

func (o *Outbox) Ready() <-chan struct{} {
	return o.ready
}

// Claim hands out the oldest due record.
func (o *Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.EventDocument, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now().UTC()
	due := make([]*infraoutbox.EventDocument, 0)
	for _, doc := range o.records {
		if (doc.State == infraoutbox.StateNew || doc.State == infraoutbox.StateFailed) && !doc.NextAttempt.After(now) {
			due = append(due, doc)
		}
	}
	if len(due) == 0 {
		return nil, nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].OccurredAt.Equal(due[j].OccurredAt) {
			return due[i].ID < due[j].ID
		}
		return due[i].OccurredAt.Before(due[j].OccurredAt)
	})
	doc := due[0]
	doc.State = infraoutbox.StateClaimed
	doc.ClaimedBy = workerID
	doc.ClaimedAt = now
	cp := *doc
	return &cp, nil
}

// MarkSent forgets the record.
func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.records, id)
	return nil
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	doc, ok := o.records[id]
	if !ok {
		return nil
	}
	doc.State = infraoutbox.StateFailed
	doc.Attempts++
	doc.NextAttempt = next
	doc.LastError = errMsg
	return nil
}

// Pending counts records not yet sent.
func (o *Outbox) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.records)
}

var (
	_ appoutbox.Outbox     = (*Outbox)(nil)
	_ infraoutbox.Store    = (*Outbox)(nil)
	_ infraoutbox.Notifier = (*Outbox)(nil)
)
