package dagepoch

import (
	"sync"

	"github.com/XiaodongWuFetch/ledger/core/types"
)

// Adapter exposes a Manager through the coordinator's DAG collaborator
// contract (spec.md §6), which only ever threads an opaque handle through
// CreateEpoch/SatisfyEpoch/RevertToEpoch/CommitEpoch by block_number. The
// node-id requirements a real deployment would derive from a block's
// declared off-chain work are supplied out of band via Declare, since the
// DAG contract itself (by design, per spec.md §1) carries no opinion on
// what those requirements are.
type Adapter struct {
	*Manager

	mu       sync.Mutex
	declared map[uint64][]string
}

// NewAdapter returns an Adapter wrapping a fresh Manager.
func NewAdapter() *Adapter {
	return &Adapter{Manager: NewManager(), declared: make(map[uint64][]string)}
}

// Declare records the off-chain node ids blockNumber's epoch requires, to
// be picked up by the next CreateEpoch(blockNumber) call.
func (a *Adapter) Declare(blockNumber uint64, nodeIDs []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.declared[blockNumber] = nodeIDs
}

func (a *Adapter) CreateEpoch(blockNumber uint64) (types.DAGEpochHandle, error) {
	a.mu.Lock()
	nodeIDs := a.declared[blockNumber]
	a.mu.Unlock()

	h, err := a.Manager.CreateEpoch(blockNumber, nodeIDs)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (a *Adapter) CurrentEpoch() types.DAGEpochHandle {
	h := a.Manager.CurrentEpoch()
	if h == nil {
		return nil
	}
	return h
}

func (a *Adapter) SatisfyEpoch(h types.DAGEpochHandle) bool {
	hh, ok := asHandle(h)
	if !ok {
		return true
	}
	return a.Manager.SatisfyEpoch(hh)
}

func (a *Adapter) RevertToEpoch(blockNumber uint64) bool {
	return a.Manager.RevertToEpoch(blockNumber)
}

func (a *Adapter) CommitEpoch(h types.DAGEpochHandle) {
	hh, ok := asHandle(h)
	if !ok {
		return
	}
	a.Manager.CommitEpoch(hh)
}

func asHandle(h types.DAGEpochHandle) (*Handle, bool) {
	if h == nil {
		return nil, false
	}
	hh, ok := h.(*Handle)
	return hh, ok
}
