// Package txset implements the transaction-set tracker (spec.md §4.3): the
// set of digests required by the current block, built lazily on entry into
// WAIT_FOR_TRANSACTIONS and discarded on exit. It is never serialized or
// shared across coordinator iterations.
package txset

import (
	mapset "github.com/deckarep/golang-set/v2"

	"github.com/XiaodongWuFetch/ledger/core/types"
)

// Tracker caches the digests still pending for the block currently being
// waited on.
type Tracker struct {
	pending mapset.Set[types.Digest]
}

// FromBlock constructs a tracker holding every digest referenced by b's
// slices. Insertion order is irrelevant (spec.md §3).
func FromBlock(b *types.Block) *Tracker {
	return &Tracker{pending: mapset.NewSet[types.Digest](b.AllDigests()...)}
}

// Empty reports whether every digest has been removed.
func (t *Tracker) Empty() bool {
	return t == nil || t.pending == nil || t.pending.Cardinality() == 0
}

// Digests returns the digests still pending, in no particular order.
func (t *Tracker) Digests() []types.Digest {
	if t == nil || t.pending == nil {
		return nil
	}
	return t.pending.ToSlice()
}

// Filter removes, in place, every digest for which present returns true.
// This is the "filter in place against the storage layer's transaction
// index" behavior of spec.md §4.3.
func (t *Tracker) Filter(present func(types.Digest) bool) {
	if t == nil || t.pending == nil {
		return
	}
	for _, d := range t.pending.ToSlice() {
		if present(d) {
			t.pending.Remove(d)
		}
	}
}
