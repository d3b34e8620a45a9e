package entitlement

import (
	"time"
)

// =============================================================================
// DATE - Calendar-day value type (the engine never needs finer granularity)
// =============================================================================

// Date is a calendar day. All comparisons and arithmetic operate on UTC
// midnight so wall-clock components can never leak into day math.
type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an arbitrary time to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// Comparison
func (d Date) Before(other Date) bool        { return d.normalize().Before(other.normalize()) }
func (d Date) Equal(other Date) bool         { return d.normalize().Equal(other.normalize()) }
func (d Date) After(other Date) bool         { return d.normalize().After(other.normalize()) }
func (d Date) BeforeOrEqual(other Date) bool { return d.Before(other) || d.Equal(other) }
func (d Date) AfterOrEqual(other Date) bool  { return d.After(other) || d.Equal(other) }

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (d Date) AddDays(n int) Date   { return Date{Time: d.normalize().AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date { return Date{Time: d.normalize().AddDate(0, n, 0)} }
func (d Date) AddYears(n int) Date  { return Date{Time: d.normalize().AddDate(n, 0, 0)} }

// Properties
func (d Date) Year() int             { return d.Time.Year() }
func (d Date) Month() time.Month     { return d.Time.Month() }
func (d Date) Day() int              { return d.Time.Day() }
func (d Date) Weekday() time.Weekday { return d.Time.Weekday() }
func (d Date) IsZero() bool          { return d.Time.IsZero() }

func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
func (d Date) IsWorkday() bool { return !d.IsWeekend() }

func (d Date) String() string { return d.normalize().Format("2006-01-02") }

// Earlier/Later pick a bound; used for clipping absence overlap windows.
func (d Date) Earlier(other Date) Date {
	if d.Before(other) {
		return d
	}
	return other
}

func (d Date) Later(other Date) Date {
	if d.After(other) {
		return d
	}
	return other
}

// =============================================================================
// DATE UTILITIES
// =============================================================================

// DaysBetween returns the signed number of whole days from `from` to `to`.
// Note this is a difference, not an inclusive span: DaysBetween(d, d) == 0.
func DaysBetween(from, to Date) int {
	return int(to.normalize().Sub(from.normalize()).Hours() / 24)
}

func StartOfYear(year int) Date { return NewDate(year, time.January, 1) }
func EndOfYear(year int) Date   { return NewDate(year, time.December, 31) }

// MonthsBetween counts calendar-month boundaries crossed from `from` to `to`.
// July 2024 to September 2024 is 2; December 2024 to January 2025 is 1.
func MonthsBetween(from, to Date) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}
