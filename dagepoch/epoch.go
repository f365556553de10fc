// Package dagepoch is a concrete, optional implementation of the
// coordinator's DAG collaborator contract (spec.md §6): an epoch groups the
// off-chain node IDs a block declares it depends on, and is satisfied once
// every declared node has arrived. It is built on github.com/heimdalr/dag,
// which the teacher repository itself depends on.
package dagepoch

import (
	"fmt"
	"sync"

	"github.com/heimdalr/dag"

	"github.com/XiaodongWuFetch/ledger/core/types"
)

// Handle is the per-block epoch handle the coordinator stores on Block.DAGEpoch
// and passes back into SatisfyEpoch / RevertToEpoch / CommitEpoch.
type Handle struct {
	number uint64
	nodes  []string
}

func (h *Handle) BlockNumber() uint64 { return h.number }

// node is the heimdalr/dag vertex payload: a declared off-chain data node
// that may or may not have arrived yet.
type node struct {
	id      string
	present bool
}

// Manager tracks one DAG epoch per block number and a committed frontier —
// the highest block number whose epoch has been committed. Declaring the
// same node id in two different epochs is permitted; each epoch registers
// its own vertex for it, but presence is recorded once per node id and is
// shared by every epoch that declares that id.
type Manager struct {
	mu        sync.Mutex
	graph     *dag.DAG
	epochs    map[uint64]*Handle
	present   map[string]bool
	committed uint64 // highest committed block number; 0 means genesis only
}

// NewManager returns an empty Manager whose committed frontier starts at
// genesis (block number 0).
func NewManager() *Manager {
	return &Manager{
		graph:   dag.NewDAG(),
		epochs:  make(map[uint64]*Handle),
		present: make(map[string]bool),
	}
}

// CurrentEpoch returns the handle of the committed frontier, or nil if
// nothing has been committed yet.
func (m *Manager) CurrentEpoch() *Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epochs[m.committed]
}

// CreateEpoch opens a new epoch for blockNumber requiring the given
// off-chain node ids, registering each as a DAG vertex so dependency
// queries (e.g. descendants-of, in a richer deployment) are available to
// callers that need them. Re-creating an epoch for a block number already
// known replaces its node list.
func (m *Manager) CreateEpoch(blockNumber uint64, nodeIDs []string) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range nodeIDs {
		vid := fmt.Sprintf("%d:%s", blockNumber, id)
		if _, err := m.graph.GetVertex(vid); err != nil {
			if err := m.graph.AddVertexByID(vid, &node{id: id, present: m.present[id]}); err != nil {
				return nil, fmt.Errorf("dagepoch: add vertex %s: %w", vid, err)
			}
		}
	}
	h := &Handle{number: blockNumber, nodes: nodeIDs}
	m.epochs[blockNumber] = h
	return h, nil
}

// NotePresent records that an off-chain node has arrived, so subsequent
// SatisfyEpoch calls can observe it.
func (m *Manager) NotePresent(nodeID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.present[nodeID] = true
}

// SatisfyEpoch reports whether every node declared by h has arrived.
func (m *Manager) SatisfyEpoch(h *Handle) bool {
	if h == nil {
		return true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range h.nodes {
		if !m.present[id] {
			return false
		}
	}
	return true
}

// RevertToEpoch moves the committed frontier back to blockNumber. It
// succeeds only if that epoch was previously created (or is genesis).
func (m *Manager) RevertToEpoch(blockNumber uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if blockNumber == 0 {
		m.committed = 0
		return true
	}
	if _, ok := m.epochs[blockNumber]; !ok {
		return false
	}
	m.committed = blockNumber
	return true
}

// CommitEpoch advances the committed frontier to h's block number. Commits
// must occur in ascending block_number order along the executed prefix
// (spec.md §5).
func (m *Manager) CommitEpoch(h *Handle) {
	if h == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if h.number > m.committed || h.number == 0 {
		m.committed = h.number
	}
}

var _ types.DAGEpochHandle = (*Handle)(nil)
