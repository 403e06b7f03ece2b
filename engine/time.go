package engine

import (
	"time"
)

// =============================================================================
// DATE - Day-granular calendar date
// =============================================================================
// All engine arithmetic is day-granular: interest accrues monthly on the
// anniversary day, maturities land on a calendar day. Normalizing to UTC
// midnight up front keeps comparisons free of timezone surprises.

type Date struct {
	Time time.Time
}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses "2006-01-02". A malformed or empty string yields the zero
// Date, which the engine treats as "no date" rather than an error.
func ParseDate(s string) Date {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}
	}
	return DateOf(t)
}

// Comparison
func (d Date) Before(other Date) bool { return d.normalize().Before(other.normalize()) }
func (d Date) Equal(other Date) bool  { return d.normalize().Equal(other.normalize()) }
func (d Date) After(other Date) bool  { return d.normalize().After(other.normalize()) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

func (d Date) normalize() time.Time {
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (d Date) AddDays(n int) Date   { return Date{Time: d.Time.AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date { return Date{Time: d.Time.AddDate(0, n, 0)} }
func (d Date) AddYears(n int) Date  { return Date{Time: d.Time.AddDate(n, 0, 0)} }

// Properties
func (d Date) Year() int         { return d.Time.Year() }
func (d Date) Month() time.Month { return d.Time.Month() }
func (d Date) Day() int          { return d.Time.Day() }
func (d Date) IsZero() bool      { return d.Time.IsZero() }

func (d Date) String() string {
	return d.Time.Format("2006-01-02")
}

// =============================================================================
// MONTH ARITHMETIC
// =============================================================================

// MonthsBetween returns the number of whole months elapsed from 'from' to
// 'to'. A partial month does not count: Jan 15 -> Feb 14 is 0 months,
// Jan 15 -> Feb 15 is 1. The result is negative when 'to' precedes 'from'.
func MonthsBetween(from, to Date) int {
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	return months
}

// ElapsedMonths is MonthsBetween clamped to zero; used where "before the
// start date" simply means "nothing has accrued yet".
func ElapsedMonths(from, to Date) int {
	m := MonthsBetween(from, to)
	if m < 0 {
		return 0
	}
	return m
}
