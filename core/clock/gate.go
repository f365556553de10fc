package clock

import "time"

// Gate rate-limits an action (typically a log line or a state transition
// decision) so it fires at most once per interval. It holds no goroutine of
// its own; callers poll Ready on every handler entry.
type Gate struct {
	clk      Clock
	interval time.Duration
	last     time.Time
	armed    bool
}

// NewGate returns a Gate whose first Ready call always returns true.
func NewGate(clk Clock, interval time.Duration) *Gate {
	return &Gate{clk: clk, interval: interval}
}

// Reset arms the gate so the next Ready call (after interval has elapsed)
// returns true, measured from now.
func (g *Gate) Reset() {
	g.last = g.clk.Now()
	g.armed = true
}

// Ready reports whether interval has elapsed since the gate was last fired
// or reset, and if so fires it (resetting the internal clock). The first
// call after construction always returns true.
func (g *Gate) Ready() bool {
	now := g.clk.Now()
	if !g.armed || now.Sub(g.last) >= g.interval {
		g.last = now
		g.armed = true
		return true
	}
	return false
}
