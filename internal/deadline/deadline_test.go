package deadline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddOffset_Table(t *testing.T) {
	tests := []struct {
		name     string
		base     time.Time
		offset   int
		business bool
		want     time.Time
	}{
		{"calendar forward", date(2025, 1, 1), 3, false, date(2025, 1, 4)},
		{"calendar forward ten", date(2025, 1, 1), 10, false, date(2025, 1, 11)},
		{"calendar backward", date(2025, 1, 1), -1, false, date(2024, 12, 31)},
		{"calendar across leap day", date(2024, 2, 28), 1, false, date(2024, 2, 29)},
		{"business friday plus one", date(2025, 1, 3), 1, true, date(2025, 1, 6)},
		{"business friday plus five", date(2025, 1, 3), 5, true, date(2025, 1, 10)},
		{"business saturday plus one", date(2025, 1, 4), 1, true, date(2025, 1, 6)},
		{"business monday minus one", date(2025, 1, 6), -1, true, date(2025, 1, 3)},
		{"business sunday minus one", date(2025, 1, 5), -1, true, date(2025, 1, 3)},
		{"business wednesday plus ten", date(2025, 1, 1), 10, true, date(2025, 1, 15)},
		{"zero calendar", date(2025, 1, 4), 0, false, date(2025, 1, 4)},
		{"zero business on weekend", date(2025, 1, 4), 0, true, date(2025, 1, 4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddOffset(tt.base, tt.offset, tt.business))
		})
	}
}

func TestAddOffset_PreservesTimeOfDay(t *testing.T) {
	base := time.Date(2025, 1, 3, 14, 30, 0, 0, time.UTC)
	got := AddOffset(base, 1, true)
	assert.Equal(t, time.Date(2025, 1, 6, 14, 30, 0, 0, time.UTC), got)
}

func drawDate(rt *rapid.T) time.Time {
	days := rapid.IntRange(0, 365*30).Draw(rt, "days")
	return date(2000, 1, 1).AddDate(0, 0, days)
}

func TestProperty_ZeroOffsetIsIdentity(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		d := drawDate(rt)
		business := rapid.Bool().Draw(rt, "business")
		if got := AddOffset(d, 0, business); !got.Equal(d) {
			rt.Fatalf("AddOffset(%s, 0, %v) = %s", d, business, got)
		}
	})
}

func TestProperty_Deterministic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		d := drawDate(rt)
		n := rapid.IntRange(-60, 60).Draw(rt, "offset")
		business := rapid.Bool().Draw(rt, "business")
		a := AddOffset(d, n, business)
		b := AddOffset(d, n, business)
		if !a.Equal(b) {
			rt.Fatalf("non-deterministic result: %s vs %s", a, b)
		}
	})
}

func TestProperty_CalendarRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		d := drawDate(rt)
		n := rapid.IntRange(-500, 500).Draw(rt, "offset")
		back := AddOffset(AddOffset(d, n, false), -n, false)
		if !back.Equal(d) {
			rt.Fatalf("round trip of %d days from %s landed on %s", n, d, back)
		}
	})
}

func TestProperty_BusinessOffsetLandsOnWeekday(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		d := drawDate(rt)
		n := rapid.IntRange(1, 90).Draw(rt, "offset")
		got := AddOffset(d, n, true)
		if !IsBusinessDay(got) {
			rt.Fatalf("AddOffset(%s, %d, true) = %s (%s)", d, n, got, got.Weekday())
		}
		if counted := BusinessDaysBetween(d, got); counted != n {
			rt.Fatalf("counted %d business days between %s and %s, want %d", counted, d, got, n)
		}
	})
}

func TestProperty_BusinessNeverShorterThanCalendar(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		d := drawDate(rt)
		n := rapid.IntRange(1, 90).Draw(rt, "offset")
		if AddOffset(d, n, true).Before(AddOffset(d, n, false)) {
			rt.Fatalf("business offset of %d from %s ended before the calendar offset", n, d)
		}
	})
}

func TestBusinessDaysBetween(t *testing.T) {
	assert.Equal(t, 1, BusinessDaysBetween(date(2025, 1, 3), date(2025, 1, 6)))
	assert.Equal(t, 0, BusinessDaysBetween(date(2025, 1, 4), date(2025, 1, 5)))
	assert.Equal(t, -1, BusinessDaysBetween(date(2025, 1, 6), date(2025, 1, 3)))
}
