package rules

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidRule = errors.New("rules: invalid booking rule")

// MaxAllowedWeekdays caps how many pickup weekdays a rule may list.
const MaxAllowedWeekdays = 3

type Kind string

const (
	KindNone                Kind = "none"
	KindFixedWindow         Kind = "fixed_window"
	KindFixedWindowWeekdays Kind = "fixed_window_weekdays"
)

// Rule is the booking constraint active for one inventory selector.
// Nights counts calendar days including both pickup and drop-off day.
type Rule struct {
	Kind            Kind       `json:"kind"`
	Nights          int        `json:"nights,omitempty"`
	AllowedWeekdays WeekdaySet `json:"allowed_weekdays,omitempty"`
	// MinimumOnly accepts drop-off dates at least Nights-1 days after pickup instead of exactly.
	MinimumOnly bool `json:"minimum_only,omitempty"`
}

var NoRule = Rule{Kind: KindNone}

func FixedWindow(nights int) (Rule, error) {
	if nights < 1 {
		return NoRule, fmt.Errorf("%w: nights must be at least 1, got %d", ErrInvalidRule, nights)
	}
	return Rule{Kind: KindFixedWindow, Nights: nights}, nil
}

// FixedWindowOn restricts pickup to the given weekdays. No weekdays means no restriction.
func FixedWindowOn(nights int, weekdays ...time.Weekday) (Rule, error) {
	r, err := FixedWindow(nights)
	if err != nil {
		return NoRule, err
	}
	var set WeekdaySet
	for _, w := range weekdays {
		set = set.With(w)
	}
	if set.Len() > MaxAllowedWeekdays {
		return NoRule, fmt.Errorf("%w: at most %d weekdays, got %d", ErrInvalidRule, MaxAllowedWeekdays, set.Len())
	}
	if set.Len() > 0 {
		r.Kind = KindFixedWindowWeekdays
		r.AllowedWeekdays = set
	}
	return r, nil
}

func (r Rule) Active() bool {
	return r.Kind != KindNone && r.Kind != "" && r.Nights >= 1
}

func (r Rule) RestrictsWeekdays() bool {
	return r.Active() && r.AllowedWeekdays.Len() > 0
}

// AllowsWeekday is true for every weekday when the rule has no weekday restriction.
func (r Rule) AllowsWeekday(w time.Weekday) bool {
	if !r.RestrictsWeekdays() {
		return true
	}
	return r.AllowedWeekdays.Contains(w)
}

// AdditionalNights is the number of days after pickup the window must cover.
func (r Rule) AdditionalNights() int {
	if !r.Active() {
		return 0
	}
	return r.Nights - 1
}

// AcceptsLength checks a drop-off distance in days against the rule.
func (r Rule) AcceptsLength(days int) bool {
	if r.MinimumOnly {
		return days >= r.AdditionalNights()
	}
	return days == r.AdditionalNights()
}
