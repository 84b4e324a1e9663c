package events

import "time"

// DomainEvent is published through the outbox under EventName, keyed by AggregateID.
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// EventRecorder is embedded by types that emit events. The zero value is ready to use.
type EventRecorder struct {
	pending []DomainEvent
}

func (r *EventRecorder) Record(event DomainEvent) {
	if event != nil {
		r.pending = append(r.pending, event)
	}
}

// Pending returns a copy of the recorded events.
func (r *EventRecorder) Pending() []DomainEvent {
	return append([]DomainEvent(nil), r.pending...)
}

// Drain hands over the recorded events and resets the recorder.
func (r *EventRecorder) Drain() []DomainEvent {
	out := r.pending
	r.pending = nil
	return out
}
