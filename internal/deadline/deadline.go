// Package deadline turns day offsets into concrete dates.
package deadline

import "time"

// AddOffset returns base moved by offsetDays. In calendar mode every day
// counts; in business-day mode only Monday to Friday count and weekends are
// walked over. A negative offset walks backwards. Holidays are not modeled.
// An offset of 0 returns base unchanged in both modes.
func AddOffset(base time.Time, offsetDays int, businessDaysOnly bool) time.Time {
	if offsetDays == 0 {
		return base
	}
	if !businessDaysOnly {
		return base.AddDate(0, 0, offsetDays)
	}

	step := 1
	remaining := offsetDays
	if offsetDays < 0 {
		step = -1
		remaining = -offsetDays
	}

	d := base
	for remaining > 0 {
		d = d.AddDate(0, 0, step)
		if IsBusinessDay(d) {
			remaining--
		}
	}
	return d
}

// IsBusinessDay reports whether t falls on Monday through Friday.
func IsBusinessDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}

// BusinessDaysBetween counts business days in (from, to]. It returns a
// negative count when to is before from.
func BusinessDaysBetween(from, to time.Time) int {
	if to.Before(from) {
		return -BusinessDaysBetween(to, from)
	}
	n := 0
	for d := from.AddDate(0, 0, 1); !d.After(to); d = d.AddDate(0, 0, 1) {
		if IsBusinessDay(d) {
			n++
		}
	}
	return n
}
