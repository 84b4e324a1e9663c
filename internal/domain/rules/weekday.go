package rules

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// WeekdaySet is a bitmask of time.Weekday values.
type WeekdaySet uint8

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday, "sonntag": time.Sunday, "so": time.Sunday,
	"monday": time.Monday, "mon": time.Monday, "montag": time.Monday, "mo": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "dienstag": time.Tuesday, "di": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday, "mittwoch": time.Wednesday, "mi": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "donnerstag": time.Thursday, "do": time.Thursday,
	"friday": time.Friday, "fri": time.Friday, "freitag": time.Friday, "fr": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday, "samstag": time.Saturday, "sa": time.Saturday,
}

// ParseWeekday accepts English or German day names, full or abbreviated, any case.
func ParseWeekday(name string) (time.Weekday, error) {
	w, ok := weekdayNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("rules: unknown weekday %q", name)
	}
	return w, nil
}

func (s WeekdaySet) With(w time.Weekday) WeekdaySet {
	return s | 1<<uint(w)
}

func (s WeekdaySet) Contains(w time.Weekday) bool {
	return s&(1<<uint(w)) != 0
}

func (s WeekdaySet) Len() int {
	n := 0
	for w := time.Sunday; w <= time.Saturday; w++ {
		if s.Contains(w) {
			n++
		}
	}
	return n
}

// Weekdays lists the members starting from Monday.
func (s WeekdaySet) Weekdays() []time.Weekday {
	out := make([]time.Weekday, 0, s.Len())
	for i := 1; i <= 7; i++ {
		w := time.Weekday(i % 7)
		if s.Contains(w) {
			out = append(out, w)
		}
	}
	return out
}

func (s WeekdaySet) String() string {
	names := make([]string, 0, s.Len())
	for _, w := range s.Weekdays() {
		names = append(names, strings.ToLower(w.String()))
	}
	return strings.Join(names, ",")
}

func (s WeekdaySet) MarshalJSON() ([]byte, error) {
	names := make([]string, 0, s.Len())
	for _, w := range s.Weekdays() {
		names = append(names, strings.ToLower(w.String()))
	}
	return json.Marshal(names)
}

func (s *WeekdaySet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	var set WeekdaySet
	for _, name := range names {
		w, err := ParseWeekday(name)
		if err != nil {
			return err
		}
		set = set.With(w)
	}
	*s = set
	return nil
}
