package businessdays

import "time"

// Calendar answers business-day questions for SLA arithmetic. A business
// day is any weekday that is not a designated holiday. All calculations
// work on dates; times of day are discarded.
type Calendar struct {
	holidays map[civilDate]struct{}
}

type civilDate struct {
	year  int
	month time.Month
	day   int
}

func dateOf(t time.Time) civilDate {
	y, m, d := t.Date()
	return civilDate{year: y, month: m, day: d}
}

func New(holidays ...time.Time) *Calendar {
	c := &Calendar{holidays: make(map[civilDate]struct{}, len(holidays))}
	for _, h := range holidays {
		c.holidays[dateOf(h)] = struct{}{}
	}
	return c
}

// Truncate normalizes a timestamp to midnight UTC of its calendar date.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (c *Calendar) IsBusinessDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, holiday := c.holidays[dateOf(t)]
	return !holiday
}

// AddBusinessDays walks forward from t, one calendar day at a time,
// until n business days have been consumed. n must be non-negative.
func (c *Calendar) AddBusinessDays(t time.Time, n int) time.Time {
	d := Truncate(t)
	for remaining := n; remaining > 0; {
		d = d.AddDate(0, 0, 1)
		if c.IsBusinessDay(d) {
			remaining--
		}
	}
	return d
}

// BusinessDaysBetween counts the business days in (a, b]. When b is
// before a the count of (b, a] is negated, so the result is signed:
// zero means same date, positive means b is ahead of a.
func (c *Calendar) BusinessDaysBetween(a, b time.Time) int {
	from, to := Truncate(a), Truncate(b)
	if to.Before(from) {
		return -c.BusinessDaysBetween(to, from)
	}
	count := 0
	for d := from.AddDate(0, 0, 1); !d.After(to); d = d.AddDate(0, 0, 1) {
		if c.IsBusinessDay(d) {
			count++
		}
	}
	return count
}
