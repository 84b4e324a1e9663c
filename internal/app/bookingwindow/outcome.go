package bookingwindow

import "bookingrule/internal/domain/rules"

type OutcomeKind string

const (
	OutcomeInert                  OutcomeKind = "inert"
	OutcomeIncomplete             OutcomeKind = "incomplete"
	OutcomeAccepted               OutcomeKind = "accepted"
	OutcomeRejectedWeekday        OutcomeKind = "rejected_weekday"
	OutcomeRejectedUnavailable    OutcomeKind = "rejected_unavailable"
	OutcomeRejectedLengthMismatch OutcomeKind = "rejected_length_mismatch"
)

// Outcome is the result of one validation call. It is never stored.
type Outcome struct {
	Kind OutcomeKind `json:"kind"`
	// Date is the accepted drop-off date or the rejected input, as entered or formatted.
	Date           string           `json:"date,omitempty"`
	Allowed        rules.WeekdaySet `json:"allowed,omitempty"`
	RequiredDays   int              `json:"required_days,omitempty"`
	Conflict       string           `json:"conflict,omitempty"`
	ExpectedNights int              `json:"expected_nights,omitempty"`
	ActualNights   int              `json:"actual_nights,omitempty"`
	// Suppressed marks a repeated rejection of the last warned pickup date.
	Suppressed  bool `json:"suppressed,omitempty"`
	Recalculate bool `json:"recalculate,omitempty"`
}

func (o Outcome) Rejected() bool {
	switch o.Kind {
	case OutcomeRejectedWeekday, OutcomeRejectedUnavailable, OutcomeRejectedLengthMismatch:
		return true
	}
	return false
}

func inert() Outcome      { return Outcome{Kind: OutcomeInert} }
func incomplete() Outcome { return Outcome{Kind: OutcomeIncomplete} }
