package daterange

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrInvalidDate  = errors.New("daterange: invalid calendar date")
	ErrInvalidRange = errors.New("daterange: end must not be before start")
)

const (
	isoLayout     = "2006-01-02"
	secondsPerDay = 24 * 60 * 60
)

// Date is a calendar day with no time-of-day component. The zero value is not a valid date.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// New builds a Date and rejects components that would roll over (31 April, month 13, ...).
func New(year int, month time.Month, day int) (Date, error) {
	if year < 1 || year > 9999 {
		return Date{}, ErrInvalidDate
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return Date{}, ErrInvalidDate
	}
	return Date{Year: year, Month: month, Day: day}, nil
}

// MustNew is New for literals known to be valid.
func MustNew(year int, month time.Month, day int) Date {
	d, err := New(year, month, day)
	if err != nil {
		panic(fmt.Sprintf("daterange: %04d-%02d-%02d: %v", year, month, day, err))
	}
	return d
}

// FromTime truncates t to its calendar day in t's location.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseISO reads a YYYY-MM-DD date.
func ParseISO(s string) (Date, error) {
	t, err := time.Parse(isoLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return FromTime(t), nil
}

// Time returns midnight UTC of the day.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) AddDays(n int) Date {
	return FromTime(d.Time().AddDate(0, 0, n))
}

func (d Date) Weekday() time.Weekday {
	return d.Time().Weekday()
}

func (d Date) Before(other Date) bool {
	return d.Compare(other) < 0
}

func (d Date) After(other Date) bool {
	return d.Compare(other) > 0
}

// Compare returns -1, 0 or +1.
func (d Date) Compare(other Date) int {
	switch {
	case d.Year != other.Year:
		return sign(d.Year - other.Year)
	case d.Month != other.Month:
		return sign(int(d.Month) - int(other.Month))
	default:
		return sign(d.Day - other.Day)
	}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseISO(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DaysBetween counts whole days from `from` to `to`, rounding any partial day up.
func DaysBetween(from, to Date) int {
	secs := to.Time().Unix() - from.Time().Unix()
	return int(math.Ceil(float64(secs) / secondsPerDay))
}

// Range is an inclusive span of calendar days [Start, End].
type Range struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

func NewRange(start, end Date) (Range, error) {
	r := Range{Start: start, End: end}
	if err := r.Validate(); err != nil {
		return Range{}, err
	}
	return r, nil
}

func (r Range) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return ErrInvalidRange
	}
	if r.End.Before(r.Start) {
		return ErrInvalidRange
	}
	return nil
}

// Nights is the number of day boundaries crossed; a single-day range has zero nights.
func (r Range) Nights() int {
	return DaysBetween(r.Start, r.End)
}

// Days counts every day in the range, both ends included.
func (r Range) Days() int {
	return r.Nights() + 1
}

func (r Range) Contains(d Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

func (r Range) Overlaps(other Range) bool {
	return !r.End.Before(other.Start) && !other.End.Before(r.Start)
}

// Each visits the days of the range in order until fn returns false.
func (r Range) Each(fn func(Date) bool) {
	for d := r.Start; !d.After(r.End); d = d.AddDays(1) {
		if !fn(d) {
			return
		}
	}
}

func sign(v int) int {
	switch {
	case v < 0:
		return -1
	case v > 0:
		return 1
	default:
		return 0
	}
}
