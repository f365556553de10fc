// Package ancestry implements the ancestor-path cache (spec.md §4.4): a
// sequence of block pointers from the current tip down to the last
// processed ancestor, built with a single lookup during fork reconciliation
// and consumed one element per SYNCHRONISING iteration.
package ancestry

import "github.com/XiaodongWuFetch/ledger/core/types"

// TruncationPolicy mirrors the policy the main chain store is asked to
// apply when a path lookup is bounded by a length limit.
type TruncationPolicy uint8

const (
	// ReturnLeastRecent keeps the end of the path nearest the common
	// ancestor when the requested range exceeds the limit.
	ReturnLeastRecent TruncationPolicy = iota
)

// Path holds an ordered sequence of blocks, least-recent first — the
// common ancestor with the last-processed block at index 0, the heaviest
// tip at the last index (spec.md §3, §4.1 SYNCHRONISING). Elements are
// consumed from the front one at a time as reconciliation walks ancestor to
// tip; see the Open Question in spec.md §9 for why the cache is cleared
// rather than extended once exhausted.
type Path struct {
	blocks []*types.Block
}

// New wraps a least-recent-first slice of blocks as returned by the chain
// store's getPathToCommonAncestor.
func New(blocks []*types.Block) *Path {
	return &Path{blocks: blocks}
}

// Empty reports whether the cache currently holds no path.
func (p *Path) Empty() bool {
	return p == nil || len(p.blocks) == 0
}

// Len returns the number of blocks remaining in the cache.
func (p *Path) Len() int {
	if p == nil {
		return 0
	}
	return len(p.blocks)
}

// CommonAncestor returns the front (least-recent) element of the path: the
// common parent shared with the previously executed chain.
func (p *Path) CommonAncestor() *types.Block {
	if p.Empty() {
		return nil
	}
	return p.blocks[0]
}

// Next returns the second element: the next block to execute after the
// common ancestor.
func (p *Path) Next() *types.Block {
	if p == nil || len(p.blocks) < 2 {
		return nil
	}
	return p.blocks[1]
}

// PopFront drops the common-ancestor slot now that SYNCHRONISING has set
// current_block to Next(); the former Next() becomes the new front.
func (p *Path) PopFront() {
	if p == nil || len(p.blocks) < 2 {
		return
	}
	p.blocks = p.blocks[1:]
}

// Clear discards the cached path. Called on reconciliation completion,
// when the residual length falls below the fast-sync threshold, or on
// RESET (spec.md §4.4).
func (p *Path) Clear() {
	if p == nil {
		return
	}
	p.blocks = nil
}
