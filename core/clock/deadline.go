package clock

import "time"

// Deadline is a one-shot countdown: armed with a duration, it reports
// whether that duration has elapsed since arming. Used to bound the wait
// for missing transactions (spec.md §4's WAIT_FOR_TRANSACTIONS) and similar
// single-shot timeouts.
type Deadline struct {
	clk     Clock
	at      time.Time
	armed   bool
}

// NewDeadline returns an unarmed deadline.
func NewDeadline(clk Clock) *Deadline {
	return &Deadline{clk: clk}
}

// Arm starts the countdown, expiring after d.
func (dl *Deadline) Arm(d time.Duration) {
	dl.at = dl.clk.Now().Add(d)
	dl.armed = true
}

// Armed reports whether Arm has been called without an intervening Clear.
func (dl *Deadline) Armed() bool {
	return dl.armed
}

// Expired reports whether the armed deadline has passed. An unarmed
// deadline never expires.
func (dl *Deadline) Expired() bool {
	return dl.armed && !dl.clk.Now().Before(dl.at)
}

// Clear disarms the deadline.
func (dl *Deadline) Clear() {
	dl.armed = false
}
