package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Days is the rule length as published by the page. It may arrive as a JSON number or a numeric string.
type Days int

func (d *Days) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*d = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("rules: days %q is not a number", s)
		}
		*d = Days(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("rules: days: %w", err)
	}
	*d = Days(n)
	return nil
}

// Entry is one row of the inventory rule table.
type Entry struct {
	Days     Days     `json:"days" bson:"days" validate:"min=1,max=365"`
	Weekdays []string `json:"weekdays,omitempty" bson:"weekdays,omitempty" validate:"dive,weekday"`
	Enabled  *bool    `json:"enabled,omitempty" bson:"enabled,omitempty"`
	MinOnly  bool     `json:"min_only,omitempty" bson:"min_only,omitempty"`
}

func (e Entry) IsEnabled() bool {
	return e.Enabled == nil || *e.Enabled
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		_, err := ParseWeekday(fl.Field().String())
		return err == nil
	})
	return v
}

// Compile validates an entry and turns it into a Rule. Disabled entries compile to NoRule.
func Compile(e Entry) (Rule, error) {
	if !e.IsEnabled() {
		return NoRule, nil
	}
	if err := validate.Struct(e); err != nil {
		return NoRule, fmt.Errorf("%w: %v", ErrInvalidRule, err)
	}
	var set WeekdaySet
	for _, name := range e.Weekdays {
		w, _ := ParseWeekday(name)
		set = set.With(w)
	}
	// aliases such as "fri" and "Freitag" count once
	if set.Len() > MaxAllowedWeekdays {
		return NoRule, fmt.Errorf("%w: at most %d weekdays, got %d", ErrInvalidRule, MaxAllowedWeekdays, set.Len())
	}
	rule := Rule{Kind: KindFixedWindow, Nights: int(e.Days), MinimumOnly: e.MinOnly}
	if set.Len() > 0 {
		rule.Kind = KindFixedWindowWeekdays
		rule.AllowedWeekdays = set
	}
	return rule, nil
}
