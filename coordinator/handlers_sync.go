package coordinator

import (
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/XiaodongWuFetch/ledger/core/ancestry"
	"github.com/XiaodongWuFetch/ledger/core/types"
)

// handleReloadState is startup recovery (spec.md §4.1 RELOAD_STATE).
func (co *Coordinator) handleReloadState() transition {
	b := co.collab.Chain.GetHeaviestBlock()
	co.currentBlock = b

	if b != nil && !b.PreviousHash.IsZero() {
		ok := co.collab.State.RevertToHash(b.MerkleHash, b.Number)
		if ok {
			co.collab.Engine.SetLastProcessedBlock(b.Hash)
			co.lastExecuted.Store(b.Hash)
		} else {
			log.Warn("block coordinator: reload revert failed", "block", b.Hash, "number", b.Number)
		}
	}
	return goTo(types.StateReset)
}

// handleReset clears per-cycle fields and returns to SYNCHRONISING
// (spec.md §4.1 RESET).
func (co *Coordinator) handleReset() transition {
	if co.collab.Stake != nil {
		if co.nextBlock != nil {
			co.collab.Stake.UpdateCurrentBlock(co.nextBlock)
		} else if co.currentBlock != nil {
			co.collab.Stake.UpdateCurrentBlock(co.currentBlock)
		}
	}

	co.currentBlock = nil
	co.nextBlock = nil
	co.pendingTxs = nil
	co.ancestorPath.Clear()

	co.nextBlockAt = co.clk.Now().Add(co.tunable.BlockPeriod)

	return goTo(types.StateSynchronising)
}

// handleSynchronising catches up to the heaviest tip, performing fork
// surgery via the ancestor-path cache when the executed prefix has
// diverged (spec.md §4.1 SYNCHRONISING).
func (co *Coordinator) handleSynchronising() transition {
	if co.currentBlock == nil {
		co.currentBlock = co.collab.Chain.GetHeaviestBlock()
	}
	if co.currentBlock == nil {
		if co.infoGate.Ready() {
			log.Info("block coordinator: no current block yet, waiting for heaviest tip")
		}
		return goToAfter(types.StateReset, 500*time.Millisecond)
	}

	lastProcessed := co.collab.Engine.LastProcessedBlock()

	// Checked ahead of the "nothing executed yet" branch below: GENESIS is
	// the zero digest, so a genesis-only chain has current_block.Hash ==
	// last_processed == GENESIS without anything ever having run through
	// SCHEDULE_BLOCK_EXECUTION. Ordering the equality check first is what
	// keeps that case converging on SYNCHRONISED instead of re-walking to
	// genesis forever.
	if co.currentBlock.Hash == lastProcessed {
		return goTo(types.StateSynchronised)
	}

	if lastProcessed.IsZero() {
		if co.currentBlock.PreviousHash.IsZero() {
			return goTo(types.StatePreExecBlockValidation)
		}
		prev, ok := co.collab.Chain.Get(co.currentBlock.PreviousHash)
		if !ok {
			return goTo(types.StateReset)
		}
		co.currentBlock = prev
		return goTo(types.StateSynchronising)
	}

	// Fork reconciliation.
	if co.ancestorPath.Empty() {
		path, err := co.collab.Chain.GetPathToCommonAncestor(
			co.currentBlock.Hash, lastProcessed,
			co.tunable.CommonPathToAncestorLengthLimit, ancestry.ReturnLeastRecent)
		if err != nil {
			return goTo(types.StateReset)
		}
		if len(path) < 2 {
			log.Error("block coordinator: ancestor path shorter than two entries", "len", len(path))
			return goTo(types.StateReset)
		}
		co.ancestorPath = ancestry.New(path)

		parent := co.ancestorPath.CommonAncestor()
		if !co.collab.State.HashExists(parent.MerkleHash, parent.Number) {
			co.collab.State.RevertToHash(types.GenesisMerkleRoot, 0)
			co.collab.Engine.SetLastProcessedBlock(types.GenesisDigest)
			co.ancestorPath.Clear()
			return goToAfter(types.StateReset, 5*time.Second)
		}

		reverted := co.collab.State.RevertToHash(parent.MerkleHash, parent.Number)
		if co.collab.DAG != nil {
			reverted = co.collab.DAG.RevertToEpoch(parent.Number) && reverted
		}
		if !reverted {
			co.ancestorPath.Clear()
			return goToAfter(types.StateReset, 5*time.Second)
		}
	}

	next := co.ancestorPath.Next()
	if next == nil {
		co.ancestorPath.Clear()
		return goTo(types.StateReset)
	}
	co.currentBlock = next
	co.ancestorPath.PopFront()
	if co.ancestorPath.Len() < co.tunable.ThresholdForFastSyncing {
		co.ancestorPath.Clear()
	}
	return goTo(types.StatePreExecBlockValidation)
}

// handleSynchronised is the idle state once the executed prefix matches
// the heaviest tip; it may branch into the minting pipeline
// (spec.md §4.1 SYNCHRONISED).
func (co *Coordinator) handleSynchronised() transition {
	if co.collab.Chain.GetHeaviestBlockHash() != co.collab.Engine.LastProcessedBlock() {
		return goTo(types.StateReset)
	}

	if co.tunable.MiningEnabled && co.tunable.MiningAllowed && co.mining != "" && !co.clk.Now().Before(co.nextBlockAt) {
		if co.collab.Stake != nil && !co.collab.Stake.ShouldGenerateBlock(co.currentBlock, co.mining) {
			return goToAfter(types.StateSynchronised, 100*time.Millisecond)
		}

		var weight uint64 = 1
		if co.collab.Stake != nil {
			weight = co.collab.Stake.GetBlockGenerationWeight(co.currentBlock, co.mining)
		}

		next := &types.Block{
			PreviousHash: co.currentBlock.Hash,
			Number:       co.currentBlock.Number + 1,
			Miner:        co.mining,
			Weight:       weight,
			Log2NumLanes: log2(co.tunable.NumLanes),
			Proof:        types.Proof{Difficulty: co.tunable.BlockDifficulty},
		}
		if co.collab.DAG != nil {
			epoch, err := co.collab.DAG.CreateEpoch(next.Number)
			if err == nil {
				next.DAGEpoch = epoch
			}
		}

		co.nextBlock = next
		co.currentBlock = nil
		return goTo(types.StateNewSynergeticExecution)
	}

	return goToAfter(types.StateSynchronised, 100*time.Millisecond)
}

// log2 returns floor(log2(v)), and 0 for v <= 1; for a power of two this is
// the n with 1<<n == v. A v that is not a power of two is not rejected (the
// caller is responsible for supplying a valid lane count).
func log2(v uint64) uint8 {
	var n uint8
	for v > 1 {
		v >>= 1
		n++
	}
	return n
}
