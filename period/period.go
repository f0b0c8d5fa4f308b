/*
Package period computes calendar navigation data for the planner views.

PURPOSE:
  Month grids, week boundaries and ISO date keys used by the month, week
  and day planners, the habit grid and routines. Everything here is pure
  date arithmetic: no storage, no network.

TIMEZONE POLICY:
  Date keys ("2006-01-02", "2006-01") are civil dates. The only place a
  timezone matters is turning an instant into a date (what day is it for
  the viewer?). That conversion always goes through Calendar.Location,
  never UTC. Arithmetic on keys is done on civil dates pinned to UTC
  midnight so DST transitions can never shift a day.

KEYS:
  Date:      "YYYY-MM-DD"  (day planner, habit checks, task dates)
  YearMonth: "YYYY-MM"     (month planner, habits, month notes)
  WeekStart: "YYYY-MM-DD"  always a Monday (week reviews, week tasks)

NAVIGATION:
  ShiftDay / ShiftWeek / ShiftMonth parse the canonical key, move it and
  format it again. Repeated navigation never accumulates drift because
  no intermediate display state is carried.

SEE ALSO:
  - grid.go: 6x7 month grid
  - planner/: consumers of the keys
*/
package period

import (
	"errors"
	"fmt"
	"time"
)

const (
	DateLayout      = "2006-01-02"
	YearMonthLayout = "2006-01"

	// GridCells is the fixed size of a month grid: 6 weeks of 7 days.
	GridCells = 42
)

// ErrInvalidKey is returned when a date or month key cannot be parsed.
var ErrInvalidKey = errors.New("invalid period key")

// =============================================================================
// CALENDAR - Location-bound "today" and instant-to-date conversion
// =============================================================================

// Calendar binds date computations to a viewer's timezone.
type Calendar struct {
	Location *time.Location

	// FirstWeekday is the weekday of the first grid column.
	FirstWeekday time.Weekday

	// Now returns the current instant. Defaults to time.Now.
	Now func() time.Time
}

// NewCalendar returns a calendar for loc with Sunday-first grids.
// A nil loc means time.Local.
func NewCalendar(loc *time.Location) *Calendar {
	if loc == nil {
		loc = time.Local
	}
	return &Calendar{Location: loc, FirstWeekday: time.Sunday, Now: time.Now}
}

// Default is the calendar used by the package-level helpers.
var Default = NewCalendar(nil)

func (c *Calendar) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c *Calendar) loc() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// LocalISODate formats t as YYYY-MM-DD using the calendar's local
// year, month and day.
func (c *Calendar) LocalISODate(t time.Time) string {
	local := t.In(c.loc())
	return civil(local.Year(), local.Month(), local.Day()).Format(DateLayout)
}

// Today is the local date key for the current instant.
func (c *Calendar) Today() string {
	return c.LocalISODate(c.now())
}

// CurrentMonth is the local YYYY-MM key for the current instant.
func (c *Calendar) CurrentMonth() string {
	local := c.now().In(c.loc())
	return civil(local.Year(), local.Month(), 1).Format(YearMonthLayout)
}

// WeekStartLocal returns the Monday of the week containing t's local date.
func (c *Calendar) WeekStartLocal(t time.Time) string {
	local := t.In(c.loc())
	return mondayOf(civil(local.Year(), local.Month(), local.Day())).Format(DateLayout)
}

// LocalISODate formats t using the Default calendar.
func LocalISODate(t time.Time) string { return Default.LocalISODate(t) }

// =============================================================================
// KEY PARSING
// =============================================================================

// ParseDate parses a YYYY-MM-DD key into a civil date at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", ErrInvalidKey, s)
	}
	return t, nil
}

// ParseYearMonth parses a YYYY-MM key into the first of that month.
func ParseYearMonth(s string) (time.Time, error) {
	t, err := time.Parse(YearMonthLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: month %q", ErrInvalidKey, s)
	}
	return t, nil
}

// YearMonthOf returns the YYYY-MM key for a date key.
func YearMonthOf(date string) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.Format(YearMonthLayout), nil
}

// =============================================================================
// MONTHS
// =============================================================================

// MonthDateRange returns the first and last calendar day of the month.
func MonthDateRange(yearMonth string) (string, string, error) {
	first, err := ParseYearMonth(yearMonth)
	if err != nil {
		return "", "", err
	}
	// Day 0 of the next month is the last day of this one.
	last := civil(first.Year(), first.Month()+1, 0)
	return first.Format(DateLayout), last.Format(DateLayout), nil
}

// DaysInMonth returns the number of days in the month.
func DaysInMonth(yearMonth string) (int, error) {
	first, err := ParseYearMonth(yearMonth)
	if err != nil {
		return 0, err
	}
	return civil(first.Year(), first.Month()+1, 0).Day(), nil
}

// ShiftMonth moves a month key by n months.
func ShiftMonth(yearMonth string, n int) (string, error) {
	first, err := ParseYearMonth(yearMonth)
	if err != nil {
		return "", err
	}
	return civil(first.Year(), first.Month()+time.Month(n), 1).Format(YearMonthLayout), nil
}

// PrevMonth is the month key immediately preceding yearMonth.
func PrevMonth(yearMonth string) (string, error) { return ShiftMonth(yearMonth, -1) }

// NextMonth is the month key immediately following yearMonth.
func NextMonth(yearMonth string) (string, error) { return ShiftMonth(yearMonth, 1) }

// InMonth reports whether date falls inside yearMonth.
func InMonth(date, yearMonth string) bool {
	ym, err := YearMonthOf(date)
	return err == nil && ym == yearMonth
}

// =============================================================================
// WEEKS
// =============================================================================

// Week describes a Monday-first week and its neighbours.
type Week struct {
	Start string   `json:"start"`
	End   string   `json:"end"`
	Prev  string   `json:"prev"`
	Next  string   `json:"next"`
	Days  []string `json:"days"`
}

// Contains reports whether the date key falls inside the week. Keys
// compare lexically because they are zero-padded.
func (w Week) Contains(date string) bool {
	return date >= w.Start && date <= w.End
}

// WeekStart normalizes a date key to the Monday of its week.
func WeekStart(date string) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return mondayOf(t).Format(DateLayout), nil
}

// WeekEnd returns the Sunday closing the week that starts at weekStart.
func WeekEnd(weekStart string) (string, error) {
	return ShiftDay(weekStart, 6)
}

// ShiftWeek moves a week key by n whole weeks.
func ShiftWeek(weekStart string, n int) (string, error) {
	return ShiftDay(weekStart, 7*n)
}

// WeekOf returns the week containing date.
func WeekOf(date string) (Week, error) {
	t, err := ParseDate(date)
	if err != nil {
		return Week{}, err
	}
	start := mondayOf(t)
	w := Week{
		Start: start.Format(DateLayout),
		End:   start.AddDate(0, 0, 6).Format(DateLayout),
		Prev:  start.AddDate(0, 0, -7).Format(DateLayout),
		Next:  start.AddDate(0, 0, 7).Format(DateLayout),
		Days:  make([]string, 7),
	}
	for i := range w.Days {
		w.Days[i] = start.AddDate(0, 0, i).Format(DateLayout)
	}
	return w, nil
}

// =============================================================================
// DAYS
// =============================================================================

// ShiftDay moves a date key by n days.
func ShiftDay(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(DateLayout), nil
}

// DaysBetween counts whole days from -> to (negative when to is earlier).
func DaysBetween(from, to string) (int, error) {
	a, err := ParseDate(from)
	if err != nil {
		return 0, err
	}
	b, err := ParseDate(to)
	if err != nil {
		return 0, err
	}
	return int(b.Sub(a).Hours() / 24), nil
}

func civil(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func mondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}
