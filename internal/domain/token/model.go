// Package token allocates the daily visit token numbers handed out at the
// front desk. Tokens count up from 1 and restart at 1 on the first allocation
// of each calendar day.
package token

import "time"

// Counter is the persisted state of the allocator: the last token issued and
// the instant the current day's sequence was started.
type Counter struct {
	LastToken     int
	LastTokenDate time.Time
}

// Advance returns the counter state after one more allocation at now.
// When the stored date falls on an earlier calendar day than now (both
// evaluated in loc) the sequence restarts at 1 and the date moves to now.
// Otherwise the token increments and the stored date is kept.
func Advance(c Counter, now time.Time, loc *time.Location) Counter {
	if startOfDay(c.LastTokenDate, loc).Before(startOfDay(now, loc)) {
		return Counter{LastToken: 1, LastTokenDate: now}
	}
	return Counter{LastToken: c.LastToken + 1, LastTokenDate: c.LastTokenDate}
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
