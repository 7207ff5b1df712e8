package ledger

import "time"

// =============================================================================
// DAYS - Dates are compared at day granularity in UTC
// =============================================================================

const dayLayout = "2006-01-02"

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func NewDay(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func FormatDay(t time.Time) string { return t.Format(dayLayout) }

func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(dayLayout, s, time.UTC)
}

// OnOrBefore reports whether a falls on or before b's calendar day.
func OnOrBefore(a, b time.Time) bool { return !Day(a).After(Day(b)) }

func StartOfMonth(t time.Time) time.Time { return NewDay(t.Year(), t.Month(), 1) }
func EndOfMonth(t time.Time) time.Time   { return StartOfMonth(t).AddDate(0, 1, -1) }

// =============================================================================
// PERIOD RANGES - Canonical periods are one month long
// =============================================================================

// Range is an inclusive [Begin, End] pair of days.
type Range struct {
	Begin time.Time
	End   time.Time
}

// MonthRange returns the calendar month containing date.
func MonthRange(date time.Time) Range {
	return Range{Begin: StartOfMonth(date), End: EndOfMonth(date)}
}

// RangeOf returns the range of a stored period.
func RangeOf(p BudgetPeriod) Range {
	return Range{Begin: Day(p.BeginDate), End: Day(p.EndDate)}
}

// Next returns the period directly after r. It starts the day after r.End
// and spans one month.
func (r Range) Next() Range {
	begin := Day(r.End).AddDate(0, 0, 1)
	return Range{Begin: begin, End: begin.AddDate(0, 1, -1)}
}

// Previous returns the period directly before r. It ends the day before
// r.Begin and spans one month.
func (r Range) Previous() Range {
	end := Day(r.Begin).AddDate(0, 0, -1)
	return Range{Begin: Day(r.Begin).AddDate(0, -1, 0), End: end}
}

func (r Range) Contains(date time.Time) bool {
	d := Day(date)
	return !d.Before(r.Begin) && !d.After(r.End)
}

// Matches reports whether p covers exactly this range.
func (r Range) Matches(p BudgetPeriod) bool {
	return Day(p.BeginDate).Equal(r.Begin) && Day(p.EndDate).Equal(r.End)
}

func (r Range) String() string {
	return "[" + FormatDay(r.Begin) + ", " + FormatDay(r.End) + "]"
}
