package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"

	"bookingrule/internal/domain/shared/events"
)

// EventRecord is one encoded domain event waiting for the publisher.
type EventRecord struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
}

// Outbox stores records for the publisher. Flush signals that a unit of work finished.
type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
	Flush(ctx context.Context) error
}

type EventEncoder interface {
	Encode(ctx context.Context, ev events.DomainEvent) (EventRecord, error)
}

type headersKey struct{}

// WithHeader returns a context whose encoded events carry key=value, such as
// the request id of the HTTP call that produced them.
func WithHeader(ctx context.Context, key, value string) context.Context {
	current, _ := ctx.Value(headersKey{}).(map[string]string)
	next := make(map[string]string, len(current)+1)
	maps.Copy(next, current)
	next[key] = value
	return context.WithValue(ctx, headersKey{}, next)
}

// HeadersFrom returns the headers attached with WithHeader.
func HeadersFrom(ctx context.Context) map[string]string {
	h, _ := ctx.Value(headersKey{}).(map[string]string)
	return h
}

// JSONEventEncoder marshals the event struct as the payload.
type JSONEventEncoder struct {
	NewID func() string
}

func (e JSONEventEncoder) Encode(ctx context.Context, ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, fmt.Errorf("outbox: encode %s: %w", ev.EventName(), err)
	}
	newID := e.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	headers := map[string]string{}
	maps.Copy(headers, HeadersFrom(ctx))
	return EventRecord{
		ID:         newID(),
		Name:       ev.EventName(),
		Payload:    payload,
		OccurredAt: ev.OccurredAt(),
		Aggregate:  ev.AggregateID(),
		Headers:    headers,
	}, nil
}

// RecordDomainEvents encodes evs in order and adds them to box. A nil box drops them.
func RecordDomainEvents(ctx context.Context, box Outbox, encoder EventEncoder, evs []events.DomainEvent) error {
	if box == nil || len(evs) == 0 {
		return nil
	}
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	for _, ev := range evs {
		rec, err := encoder.Encode(ctx, ev)
		if err != nil {
			return err
		}
		if err := box.Add(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}
