package dto

import (
	"bookingrule/internal/app/bookingwindow"
	"bookingrule/internal/app/policies"
	"bookingrule/internal/domain/rules"
)

// SessionView is what presentation layers render after every widget event.
type SessionView struct {
	ID          string                 `json:"id"`
	SelectorID  string                 `json:"selector_id"`
	Pickup      string                 `json:"pickup"`
	Dropoff     string                 `json:"dropoff"`
	Rule        rules.Rule             `json:"rule"`
	Outcome     *bookingwindow.Outcome `json:"outcome,omitempty"`
	Warnings    []policies.Warning     `json:"warnings"`
	Recalculate bool                   `json:"recalculate"`
}

func MapSession(s bookingwindow.Session, outcome *bookingwindow.Outcome, warnings []policies.Warning) SessionView {
	if warnings == nil {
		warnings = []policies.Warning{}
	}
	view := SessionView{
		ID:         s.ID,
		SelectorID: s.SelectorID,
		Pickup:     s.Pickup,
		Dropoff:    s.Dropoff,
		Rule:       s.Rule,
		Outcome:    outcome,
		Warnings:   warnings,
	}
	if outcome != nil {
		view.Recalculate = outcome.Recalculate
	}
	return view
}
