package coordinator

import (
	"time"

	"github.com/ethereum/go-ethereum/metrics"

	"github.com/XiaodongWuFetch/ledger/core/types"
)

// Metrics is the coordinator's observability surface (spec.md §2, Counters
// & Observability Surface): one increment-only counter per state visit plus
// a latency timer, registered against a caller-supplied
// github.com/ethereum/go-ethereum/metrics.Registry so a host process can
// export it however it sees fit. Telemetry registration itself (spec.md
// §1) remains an external concern; Metrics only creates the handles.
type Metrics struct {
	visits   [16]metrics.Counter
	latency  [16]metrics.Timer
}

// NewMetrics registers one counter and one timer per coordinator state
// against r. A nil registry registers against (and is visible only through)
// a private, unshared registry — safe for tests that don't care about
// export.
func NewMetrics(r metrics.Registry) *Metrics {
	if r == nil {
		r = metrics.NewRegistry()
	}
	m := &Metrics{}
	for s := types.StateReloadState; s <= types.StateTransmitBlock; s++ {
		name := "coordinator/state/" + s.String()
		m.visits[s] = metrics.NewRegisteredCounter(name+"/visits", r)
		m.latency[s] = metrics.NewRegisteredTimer(name+"/latency", r)
	}
	return m
}

func (m *Metrics) visit(s types.CoordinatorState) {
	if m == nil || int(s) >= len(m.visits) || m.visits[s] == nil {
		return
	}
	m.visits[s].Inc(1)
}

func (m *Metrics) observeLatency(s types.CoordinatorState, d time.Duration) {
	if m == nil || int(s) >= len(m.latency) || m.latency[s] == nil {
		return
	}
	m.latency[s].Update(d)
}
