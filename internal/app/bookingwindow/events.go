package bookingwindow

import (
	"time"

	"bookingrule/internal/domain/shared/daterange"
)

// WindowAccepted is the recalculation signal for the pricing collaborator.
type WindowAccepted struct {
	SessionID   string         `json:"session_id"`
	InventoryID string         `json:"inventory_id"`
	Pickup      daterange.Date `json:"pickup"`
	Dropoff     daterange.Date `json:"dropoff"`
	Nights      int            `json:"nights"`
	At          time.Time      `json:"at"`
}

func (e WindowAccepted) EventName() string     { return "booking_window.accepted" }
func (e WindowAccepted) AggregateID() string   { return e.SessionID }
func (e WindowAccepted) OccurredAt() time.Time { return e.At }

type WindowRejected struct {
	SessionID   string      `json:"session_id"`
	InventoryID string      `json:"inventory_id"`
	Outcome     OutcomeKind `json:"outcome"`
	Date        string      `json:"date"`
	At          time.Time   `json:"at"`
}

func (e WindowRejected) EventName() string     { return "booking_window.rejected" }
func (e WindowRejected) AggregateID() string   { return e.SessionID }
func (e WindowRejected) OccurredAt() time.Time { return e.At }
