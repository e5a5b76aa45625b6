package generic

import (
	"sync"
	"time"
)

// =============================================================================
// FINANCIAL / CALENDAR YEAR
// =============================================================================
//
// A financial year runs 1 July to 30 June and is labelled by the year it
// starts in. Rates keyed to financial year FY are published as effective
// from calendar year FY+1. These two functions are the only place the
// offset lives.

type FinancialYear int
type CalendarYear int

// CalendarToFinancialYear converts a caller-facing calendar year into the
// financial year the rate tables are keyed by.
func CalendarToFinancialYear(cy CalendarYear) FinancialYear { return FinancialYear(cy - 1) }

// FinancialYearToCalendar converts a table key back into the calendar year
// stamped on output records.
func FinancialYearToCalendar(fy FinancialYear) CalendarYear { return CalendarYear(fy + 1) }

// FinancialYearOf returns the financial year containing t.
func FinancialYearOf(t time.Time) FinancialYear {
	if t.Month() >= time.July {
		return FinancialYear(t.Year())
	}
	return FinancialYear(t.Year() - 1)
}

// FinancialYearStart returns 1 July of fy in UTC.
func FinancialYearStart(fy FinancialYear) time.Time {
	return time.Date(int(fy), time.July, 1, 0, 0, 0, 0, time.UTC)
}

// FinancialYearEnd returns 30 June of the following year in UTC.
func FinancialYearEnd(fy FinancialYear) time.Time {
	return time.Date(int(fy)+1, time.June, 30, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// CLOCK
// =============================================================================

// Clock is injected wherever expiry or timestamps matter so tests can move
// time without sleeping.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock is a settable clock for tests and replays.
type FixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func NewFixedClock(t time.Time) *FixedClock { return &FixedClock{t: t} }

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
