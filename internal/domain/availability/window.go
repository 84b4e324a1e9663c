package availability

import "bookingrule/internal/domain/shared/daterange"

// IsWindowFree reports whether none of the `nights` days after start is blocked.
// The start day itself is not checked: the calendar widget only lets customers pick
// days that are already free.
func IsWindowFree(start daterange.Date, nights int, blocked BlockedDates) bool {
	_, conflict := FirstConflict(start, nights, blocked)
	return !conflict
}

// FirstConflict returns the earliest blocked day in start+1 .. start+nights.
func FirstConflict(start daterange.Date, nights int, blocked BlockedDates) (daterange.Date, bool) {
	for i := 1; i <= nights; i++ {
		next := start.AddDays(i)
		if blocked.Contains(next) {
			return next, true
		}
	}
	return daterange.Date{}, false
}
