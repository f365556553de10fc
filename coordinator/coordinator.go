// Package coordinator implements the block coordinator: the deterministic
// state machine that drives a node through chain reconciliation,
// transaction synchronization, speculative execution, state commitment and
// (optionally) block production. See spec.md §4.1 for the state table this
// package implements handler-for-handler.
package coordinator

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/XiaodongWuFetch/ledger/config"
	"github.com/XiaodongWuFetch/ledger/core/ancestry"
	"github.com/XiaodongWuFetch/ledger/core/clock"
	"github.com/XiaodongWuFetch/ledger/core/txset"
	"github.com/XiaodongWuFetch/ledger/core/types"
)

// Collaborators bundles every external contract the coordinator drives
// (spec.md §6). Optional ones may be left nil; the coordinator checks
// before calling them.
type Collaborators struct {
	Chain       MainChain
	State       StateStore
	Engine      ExecutionEngine
	TxIndex     TransactionIndex
	Packer      BlockPacker
	Sink        BlockSink
	Status      StatusCache
	Stake       StakeOracle       // optional
	Synergetic  SynergeticExecMgr // optional
	DAG         DAG               // optional
	Miner       ProofMiner
}

// Tunables is the coordinator's view of config.Tunables (spec.md §6).
type Tunables = config.Tunables

// Coordinator is the single-threaded state machine driver. All fields below
// are only ever touched from the goroutine running Run; there is no lock
// across a state transition (spec.md §5), except LastExecuted which is
// exposed read-only to other subsystems via an atomic container.
type Coordinator struct {
	collab  Collaborators
	tunable Tunables
	clk     clock.Clock
	mining  Identity
	metrics *Metrics

	state types.CoordinatorState

	currentBlock *types.Block
	nextBlock    *types.Block

	pendingTxs   *txset.Tracker
	ancestorPath *ancestry.Path

	lastExecuted *types.LastExecutedBlock
	nextBlockAt  time.Time

	// per-cycle wait bookkeeping (spec.md §4.1 WAIT_FOR_TRANSACTIONS)
	prevState    types.CoordinatorState
	askDeadline  *clock.Deadline
	askedForTxs  bool
	txTimeout    *clock.Deadline
	txGate       *clock.Gate
	execGate     *clock.Gate
	infoGate     *clock.Gate
}

// Identity is re-exported for wiring convenience.
type Identity = types.Identity

// Option configures a Coordinator at construction time.
type Option func(*Coordinator)

// WithClock overrides the monotonic time source (for tests).
func WithClock(c clock.Clock) Option {
	return func(co *Coordinator) { co.clk = c }
}

// WithMiningIdentity sets the identity used as Block.Miner when this node
// mints. Leaving it unset disables minting regardless of tunables.
func WithMiningIdentity(id Identity) Option {
	return func(co *Coordinator) { co.mining = id }
}

// WithMetrics attaches a Metrics surface (spec.md §2, Counters &
// Observability Surface). Leaving it unset uses a Metrics registered against
// a private registry that nothing else can read.
func WithMetrics(m *Metrics) Option {
	return func(co *Coordinator) { co.metrics = m }
}

// New constructs a Coordinator in its initial state, RELOAD_STATE
// (spec.md §3).
func New(collab Collaborators, tunable Tunables, opts ...Option) *Coordinator {
	co := &Coordinator{
		collab:       collab,
		tunable:      tunable,
		clk:          clock.Real{},
		state:        types.StateReloadState,
		lastExecuted: types.NewLastExecutedBlock(),
	}
	for _, opt := range opts {
		opt(co)
	}
	if co.metrics == nil {
		co.metrics = NewMetrics(nil)
	}
	co.askDeadline = clock.NewDeadline(co.clk)
	co.txTimeout = clock.NewDeadline(co.clk)
	co.txGate = clock.NewGate(co.clk, tunable.TxSyncNotifyInterval)
	co.execGate = clock.NewGate(co.clk, tunable.ExecNotifyInterval)
	co.infoGate = clock.NewGate(co.clk, tunable.PeriodicInfoLogInterval)
	co.ancestorPath = ancestry.New(nil)
	return co
}

// State returns the coordinator's current state. Exposed for tests and
// observability; never written from outside Run.
func (co *Coordinator) State() types.CoordinatorState { return co.state }

// LastExecuted returns the digest of the last block successfully committed.
// Safe to call concurrently with Run (spec.md §5).
func (co *Coordinator) LastExecuted() types.Digest { return co.lastExecuted.Load() }

// transition is what every handler returns: the next state, and an
// optional delay to honor before the driver re-enters the loop.
type transition struct {
	next  types.CoordinatorState
	delay time.Duration
}

func goTo(s types.CoordinatorState) transition { return transition{next: s} }

func goToAfter(s types.CoordinatorState, d time.Duration) transition {
	return transition{next: s, delay: d}
}

type handlerFunc func(co *Coordinator) transition

var handlers = map[types.CoordinatorState]handlerFunc{
	types.StateReloadState:                (*Coordinator).handleReloadState,
	types.StateReset:                      (*Coordinator).handleReset,
	types.StateSynchronising:              (*Coordinator).handleSynchronising,
	types.StateSynchronised:               (*Coordinator).handleSynchronised,
	types.StatePreExecBlockValidation:     (*Coordinator).handlePreExecBlockValidation,
	types.StateWaitForTransactions:        (*Coordinator).handleWaitForTransactions,
	types.StateSynergeticExecution:        (*Coordinator).handleSynergeticExecution,
	types.StateScheduleBlockExecution:     (*Coordinator).handleScheduleBlockExecution,
	types.StateWaitForExecution:           (*Coordinator).handleWaitForExecution,
	types.StatePostExecBlockValidation:    (*Coordinator).handlePostExecBlockValidation,
	types.StateNewSynergeticExecution:     (*Coordinator).handleNewSynergeticExecution,
	types.StatePackNewBlock:               (*Coordinator).handlePackNewBlock,
	types.StateExecuteNewBlock:            (*Coordinator).handleExecuteNewBlock,
	types.StateWaitForNewBlockExecution:   (*Coordinator).handleWaitForNewBlockExecution,
	types.StateProofSearch:                (*Coordinator).handleProofSearch,
	types.StateTransmitBlock:              (*Coordinator).handleTransmitBlock,
}

// Run drives the state machine until ctx is cancelled. It never blocks
// indefinitely inside a handler: every wait is decomposed into check,
// yield-with-delay, re-enter (spec.md §4.1, §9). ctx cancellation is
// observed between states, never preempting a handler mid-flight
// (spec.md §5).
func (co *Coordinator) Run(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		handler, ok := handlers[co.state]
		if !ok {
			log.Error("block coordinator: no handler for state", "state", co.state)
			co.state = types.StateReset
			timer.Reset(0)
			continue
		}

		co.metrics.visit(co.state)
		t0 := co.clk.Now()
		tr := handler(co)
		co.metrics.observeLatency(co.state, co.clk.Now().Sub(t0))

		co.prevState = co.state
		co.state = tr.next
		timer.Reset(tr.delay)
	}
}

// Step runs exactly one handler invocation and returns the state it left
// the machine in. Exposed so tests can drive the machine one transition at
// a time without an explicit clock/timer harness.
func (co *Coordinator) Step() types.CoordinatorState {
	handler, ok := handlers[co.state]
	if !ok {
		co.prevState = co.state
		co.state = types.StateReset
		return co.state
	}
	co.metrics.visit(co.state)
	tr := handler(co)
	co.prevState = co.state
	co.state = tr.next
	return co.state
}
