package daterange

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidFormat = errors.New("daterange: invalid date format")
	ErrParse         = errors.New("daterange: cannot parse date")
)

// Layout tokens: d = day, m = month, Y = four digit year. Any other rune is copied verbatim.
const (
	DayMonthYear = "d/m/Y"
	MonthDayYear = "m/d/Y"
)

type component byte

const (
	componentDay component = iota + 1
	componentMonth
	componentYear
)

// separators accepted on input regardless of the layout's own separator.
var separators = strings.NewReplacer("-", "/", ".", "/", " ", "/")

// Format parses and prints dates in a fixed textual layout such as "d/m/Y".
// The zero value behaves as DayMonthYear.
type Format struct {
	layout string
	order  [3]component
}

// ParseFormat validates a layout. Each of d, m and Y must appear exactly once.
func ParseFormat(layout string) (Format, error) {
	f := Format{layout: layout}
	n := 0
	seen := map[component]bool{}
	for _, r := range layout {
		var c component
		switch r {
		case 'd':
			c = componentDay
		case 'm':
			c = componentMonth
		case 'Y':
			c = componentYear
		default:
			continue
		}
		if seen[c] || n == len(f.order) {
			return Format{}, fmt.Errorf("%w: %q repeats a token", ErrInvalidFormat, layout)
		}
		seen[c] = true
		f.order[n] = c
		n++
	}
	if n != len(f.order) {
		return Format{}, fmt.Errorf("%w: %q needs d, m and Y", ErrInvalidFormat, layout)
	}
	return f, nil
}

// MustFormat panics on an invalid layout.
func MustFormat(layout string) Format {
	f, err := ParseFormat(layout)
	if err != nil {
		panic(err)
	}
	return f
}

func (f Format) Layout() string {
	return f.normalized().layout
}

// Parse reads three numeric components split on '/', '-', '.' or ' ' and assigns them
// by the layout's token order. Day and month take one or two digits, the year exactly
// four, so a year still being typed ("01/06/20") does not parse. Out-of-range
// components fail instead of rolling over.
func (f Format) Parse(text string) (Date, error) {
	f = f.normalized()
	parts := strings.Split(separators.Replace(strings.TrimSpace(text)), "/")
	if len(parts) != 3 {
		return Date{}, fmt.Errorf("%w: %q", ErrParse, text)
	}
	var day, month, year int
	for i, part := range parts {
		n, ok := digits(part)
		if !ok || !f.order[i].fits(part) {
			return Date{}, fmt.Errorf("%w: %q", ErrParse, text)
		}
		switch f.order[i] {
		case componentDay:
			day = n
		case componentMonth:
			month = n
		case componentYear:
			year = n
		}
	}
	d, err := New(year, time.Month(month), day)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q out of range", ErrParse, text)
	}
	return d, nil
}

// Format prints d with day and month zero-padded to two digits.
func (f Format) Format(d Date) string {
	f = f.normalized()
	var b strings.Builder
	for _, r := range f.layout {
		switch r {
		case 'd':
			fmt.Fprintf(&b, "%02d", d.Day)
		case 'm':
			fmt.Fprintf(&b, "%02d", int(d.Month))
		case 'Y':
			fmt.Fprintf(&b, "%04d", d.Year)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Canonicalize re-prints text in the layout, e.g. "1-6-2024" -> "01/06/2024".
func (f Format) Canonicalize(text string) (string, error) {
	d, err := f.Parse(text)
	if err != nil {
		return "", err
	}
	return f.Format(d), nil
}

func (f Format) normalized() Format {
	if f.layout == "" {
		return MustFormat(DayMonthYear)
	}
	return f
}

func (c component) fits(part string) bool {
	if c == componentYear {
		return len(part) == 4
	}
	return len(part) <= 2
}

func digits(s string) (int, bool) {
	if s == "" || len(s) > 4 {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}
