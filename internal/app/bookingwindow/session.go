package bookingwindow

import (
	"context"
	"errors"
	"time"

	"bookingrule/internal/domain/rules"
)

var (
	ErrSessionNotFound = errors.New("bookingwindow: session not found")
	ErrSessionConflict = errors.New("bookingwindow: session changed concurrently")
)

// Session is the per-page state of one widget: the two field values, the
// active rule and the last pickup date a warning was shown for. Version is
// the store revision the session was read at.
type Session struct {
	ID         string     `json:"id"`
	SelectorID string     `json:"selector_id"`
	Pickup     string     `json:"pickup"`
	Dropoff    string     `json:"dropoff"`
	Rule       rules.Rule `json:"rule"`
	LastWarned string     `json:"last_warned,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Version    int64      `json:"version"`
}

// SessionRepository stores sessions with compare-and-set semantics: Save
// fails with ErrSessionConflict when the stored revision is no longer
// session.Version, and otherwise stores the session at Version+1.
type SessionRepository interface {
	Get(ctx context.Context, id string) (Session, error)
	Save(ctx context.Context, session Session) error
}
