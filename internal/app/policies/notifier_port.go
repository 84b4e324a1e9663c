package policies

import "context"

type WarningKind string

const (
	WarningUnavailable       WarningKind = "unavailable"
	WarningWeekdayNotAllowed WarningKind = "weekday_not_allowed"
	WarningLengthMismatch    WarningKind = "length_mismatch"
)

// Warning is a display request for the presentation layer. Modal hosts use
// Title and Body; alert hosts use Message.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Title   string      `json:"title,omitempty"`
	Body    string      `json:"body,omitempty"`
	Message string      `json:"message"`
	Dismiss string      `json:"dismiss,omitempty"`
}

// Notifier is fire-and-forget: no result and no retry.
type Notifier interface {
	Notify(ctx context.Context, warning Warning)
}
