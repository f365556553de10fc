// Package stake is a concrete, swappable implementation of the
// coordinator's StakeOracle collaborator (spec.md §6): it answers whether
// this node may mint the next block and what weight that block should
// carry, from a simple per-identity stake table. Weight arithmetic uses
// github.com/holiman/uint256, the teacher's own 256-bit unsigned type, so a
// long-running chain's accumulated weight never silently wraps.
package stake

import (
	"sync"

	"github.com/holiman/uint256"

	"github.com/XiaodongWuFetch/ledger/core/types"
)

// Oracle tracks a flat per-identity stake table and a simple
// proportional-turn rule: an identity may mint once its accumulated
// priority is at least every other known identity's.
type Oracle struct {
	mu       sync.Mutex
	stake    map[types.Identity]*uint256.Int
	priority map[types.Identity]*uint256.Int
	current  *types.Block // last block this node observed, for UpdateCurrentBlock bookkeeping
}

// NewOracle returns an Oracle with the given initial stake table. Identities
// absent from the table are treated as having zero stake and may never mint.
func NewOracle(initialStake map[types.Identity]uint64) *Oracle {
	o := &Oracle{
		stake:    make(map[types.Identity]*uint256.Int, len(initialStake)),
		priority: make(map[types.Identity]*uint256.Int, len(initialStake)),
	}
	for id, s := range initialStake {
		o.stake[id] = uint256.NewInt(s)
		o.priority[id] = uint256.NewInt(0)
	}
	return o
}

// ShouldGenerateBlock reports whether miner may mint on top of previous.
// The rule: miner must hold nonzero stake, and its accumulated priority
// must be the maximum among all known identities (ties broken in favor of
// the caller, since only one node is asking).
func (o *Oracle) ShouldGenerateBlock(previous *types.Block, miner types.Identity) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	s, ok := o.stake[miner]
	if !ok || s.IsZero() {
		return false
	}
	mine := o.priority[miner]
	for id, p := range o.priority {
		if id == miner {
			continue
		}
		if p.Gt(mine) {
			return false
		}
	}
	return true
}

// ValidMinerForBlock reports whether miner is known to hold stake at all —
// the minimal check a follower node performs before accepting a block
// authored by miner.
func (o *Oracle) ValidMinerForBlock(previous *types.Block, miner types.Identity) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	s, ok := o.stake[miner]
	return ok && !s.IsZero()
}

// GetBlockGenerationWeight returns the weight a block by miner on top of
// previous should carry: the previous block's weight (0 when previous is
// nil) plus the miner's stake share (stake / 2^16) plus one. A miner with no
// stake gets the previous weight plus one.
func (o *Oracle) GetBlockGenerationWeight(previous *types.Block, miner types.Identity) uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	var base uint64
	if previous != nil {
		base = previous.Weight
	}
	s, ok := o.stake[miner]
	if !ok || s.IsZero() {
		return base + 1
	}
	share := new(uint256.Int).Div(s, uint256.NewInt(1<<16))
	return base + share.Uint64() + 1
}

// UpdateCurrentBlock advances every known identity's priority relative to
// the just-committed or just-minted block: the block's own miner resets to
// zero (it just had its turn), everyone else's priority grows by their
// stake, so low-stake identities eventually catch up.
func (o *Oracle) UpdateCurrentBlock(b *types.Block) {
	if b == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.current = b
	for id, s := range o.stake {
		if id == b.Miner {
			o.priority[id] = uint256.NewInt(0)
			continue
		}
		o.priority[id] = new(uint256.Int).Add(o.priority[id], s)
	}
}
