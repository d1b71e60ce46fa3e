// Package sched provides the drift-free tick scheduling used by the
// cooperative monitor loop: the next due time advances by the fixed
// period from the previous due time, never from "now", so scheduling
// slippage does not accumulate over a long run.
package sched

import "time"

// Ticker tracks one periodic duty.
type Ticker struct {
	period time.Duration
	next   time.Time
}

// NewTicker creates a ticker whose first due time is start+period.
func NewTicker(start time.Time, period time.Duration) *Ticker {
	return &Ticker{period: period, next: start.Add(period)}
}

// Due reports whether the duty should fire at now and, if so, advances
// the due time by one period. A due time that has already passed fires
// on the next check rather than being skipped; a long stall is worked
// off one fire per check, so a slow pass never triggers a tight burst.
func (t *Ticker) Due(now time.Time) bool {
	if now.Before(t.next) {
		return false
	}
	t.next = t.next.Add(t.period)
	return true
}

// Next returns the pending due time.
func (t *Ticker) Next() time.Time { return t.next }

// Period returns the fixed period.
func (t *Ticker) Period() time.Duration { return t.period }
