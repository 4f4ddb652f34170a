package core

import (
	"fmt"
	"time"
)

// Cycle identifies both the length of an accounting period and the
// duration of a subscription plan: one calendar month, quarter or year.
type Cycle string

const (
	Monthly   Cycle = "monthly"
	Quarterly Cycle = "quarterly"
	Yearly    Cycle = "yearly"
)

// cycleMonths maps each cycle to its length in calendar months. The
// registry keeps cycle dispatch in one place should new cadences ever
// be added.
var cycleMonths = map[Cycle]int{
	Monthly:   1,
	Quarterly: 3,
	Yearly:    12,
}

func (c Cycle) Valid() bool {
	_, ok := cycleMonths[c]
	return ok
}

// Months returns the cycle length in calendar months.
func (c Cycle) Months() int { return cycleMonths[c] }

// Advance moves t forward by one cycle using calendar-aware arithmetic.
// Day-of-month overflow clamps to the last valid day of the target
// month: 2024-01-31 plus one month is 2024-02-29. Clamping, not
// rollover, is the billing rule for every duration computation in this
// module.
func (c Cycle) Advance(t time.Time) time.Time {
	return addMonthsClamped(t, cycleMonths[c])
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	// Normalize to the first of the target month, then clamp the day.
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	last := time.Date(first.Year(), first.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
	if d > last {
		d = last
	}
	hh, mm, ss := t.Clock()
	return time.Date(first.Year(), first.Month(), d, hh, mm, ss, t.Nanosecond(), t.Location())
}

// Period identifies a single month, quarter or year for aggregation.
// Number carries the month (1-12) or quarter (1-4) and is ignored for
// yearly periods.
type Period struct {
	Kind   Cycle `json:"kind"`
	Year   int   `json:"year"`
	Number int   `json:"number,omitempty"`
}

func Month(year, month int) Period { return Period{Kind: Monthly, Year: year, Number: month} }
func Quarter(year, q int) Period   { return Period{Kind: Quarterly, Year: year, Number: q} }
func Year(year int) Period         { return Period{Kind: Yearly, Year: year} }

func (p Period) Validate() error {
	if !p.Kind.Valid() {
		return Invalid("kind", fmt.Sprintf("unknown period kind %q", p.Kind))
	}
	if p.Year < 2000 || p.Year > 2100 {
		return Invalid("year", fmt.Sprintf("%d outside [2000, 2100]", p.Year))
	}
	switch p.Kind {
	case Monthly:
		if p.Number < 1 || p.Number > 12 {
			return Invalid("number", fmt.Sprintf("month %d outside [1, 12]", p.Number))
		}
	case Quarterly:
		if p.Number < 1 || p.Number > 4 {
			return Invalid("number", fmt.Sprintf("quarter %d outside [1, 4]", p.Number))
		}
	}
	return nil
}

// DateRange returns the half-open [start, end) interval the period
// covers, midnight UTC on both ends.
func (p Period) DateRange() (start, end time.Time) {
	switch p.Kind {
	case Monthly:
		start = time.Date(p.Year, time.Month(p.Number), 1, 0, 0, 0, 0, time.UTC)
	case Quarterly:
		start = time.Date(p.Year, time.Month((p.Number-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
	default:
		start = time.Date(p.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
	}
	return start, start.AddDate(0, p.Kind.Months(), 0)
}

// Previous returns the adjacent period one unit back: January rolls to
// December of the prior year, Q1 to Q4 of the prior year.
func (p Period) Previous() Period {
	switch p.Kind {
	case Monthly:
		if p.Number == 1 {
			return Month(p.Year-1, 12)
		}
		return Month(p.Year, p.Number-1)
	case Quarterly:
		if p.Number == 1 {
			return Quarter(p.Year-1, 4)
		}
		return Quarter(p.Year, p.Number-1)
	default:
		return Year(p.Year - 1)
	}
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	start, end := p.DateRange()
	return !t.Before(start) && t.Before(end)
}

func (p Period) String() string {
	switch p.Kind {
	case Monthly:
		return fmt.Sprintf("%04d-%02d", p.Year, p.Number)
	case Quarterly:
		return fmt.Sprintf("%04d-Q%d", p.Year, p.Number)
	default:
		return fmt.Sprintf("%04d", p.Year)
	}
}
