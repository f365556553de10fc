// Package execstate maps the raw lifecycle states reported by the
// execution engine into the coordinator's simplified view (spec.md §4.2).
package execstate

import (
	"fmt"

	"github.com/XiaodongWuFetch/ledger/core/types"
)

// EngineState is the raw state the execution engine reports via getState().
type EngineState uint8

const (
	EngineIdle EngineState = iota
	EngineActive
	EngineTransactionsUnavailable
	EngineAborted
	EngineFailed
)

func (s EngineState) String() string {
	switch s {
	case EngineIdle:
		return "IDLE"
	case EngineActive:
		return "ACTIVE"
	case EngineTransactionsUnavailable:
		return "TRANSACTIONS_UNAVAILABLE"
	case EngineAborted:
		return "ABORTED"
	case EngineFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(s))
	}
}

// Map converts an engine-reported state into the coordinator's view per the
// table in spec.md §4.2. It never returns an error: unrecognised engine
// states map to ExecError so callers always reset rather than hang.
func Map(s EngineState) types.ExecState {
	switch s {
	case EngineIdle:
		return types.ExecIdle
	case EngineActive:
		return types.ExecRunning
	case EngineTransactionsUnavailable:
		return types.ExecStalled
	case EngineAborted, EngineFailed:
		return types.ExecError
	default:
		return types.ExecError
	}
}
