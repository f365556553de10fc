package coordinator

import (
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/XiaodongWuFetch/ledger/core/execstate"
	"github.com/XiaodongWuFetch/ledger/core/txset"
	"github.com/XiaodongWuFetch/ledger/core/types"
)

// rejectAndReset removes b from the chain — the structural-rejection and
// transient-failure path shared by every validating state (spec.md §7) —
// and returns the RESET transition.
func (co *Coordinator) rejectAndReset(b *types.Block, reason string) transition {
	if b != nil {
		log.Warn("block coordinator: rejecting block", "hash", b.Hash, "number", b.Number, "reason", reason)
		co.collab.Chain.RemoveBlock(b.Hash)
	}
	return goTo(types.StateReset)
}

// handlePreExecBlockValidation performs structural validation of
// current_block (spec.md §4.1 PRE_EXEC_BLOCK_VALIDATION).
func (co *Coordinator) handlePreExecBlockValidation() transition {
	b := co.currentBlock

	if !b.PreviousHash.IsZero() {
		previous, ok := co.collab.Chain.Get(b.PreviousHash)
		if !ok {
			return co.rejectAndReset(b, "previous block missing")
		}
		if co.collab.Stake != nil {
			if !co.collab.Stake.ValidMinerForBlock(previous, b.Miner) {
				return co.rejectAndReset(b, "invalid miner")
			}
			if want := co.collab.Stake.GetBlockGenerationWeight(previous, b.Miner); want != b.Weight {
				return co.rejectAndReset(b, "weight mismatch")
			}
		}
		if b.Number != previous.Number+1 {
			return co.rejectAndReset(b, "non-contiguous block number")
		}
		if b.NumLanes() != co.tunable.NumLanes {
			return co.rejectAndReset(b, "lane count mismatch")
		}
		if b.NumSlices() != co.tunable.NumSlices {
			return co.rejectAndReset(b, "slice count mismatch")
		}

		if co.collab.Synergetic != nil {
			if err := co.collab.Synergetic.PrepareWorkQueue(b, previous); err != nil {
				return co.rejectAndReset(b, "synergetic work queue: "+err.Error())
			}
		}
	}

	co.txGate.Reset()
	return goTo(types.StateWaitForTransactions)
}

// handleWaitForTransactions gates execution on mempool availability, with
// a bounded peer solicitation and overall timeout (spec.md §4.1
// WAIT_FOR_TRANSACTIONS).
func (co *Coordinator) handleWaitForTransactions() transition {
	b := co.currentBlock

	if co.prevState != types.StateWaitForTransactions {
		co.askDeadline.Arm(co.tunable.WaitBeforeAskingForMissingTx)
		co.askedForTxs = false
		co.txTimeout.Clear()
		co.pendingTxs = nil
	} else if co.askedForTxs && co.txTimeout.Expired() {
		return co.rejectAndReset(b, "transactions did not arrive in time")
	} else if !co.askedForTxs && co.askDeadline.Expired() {
		if co.pendingTxs == nil {
			co.pendingTxs = txset.FromBlock(b)
			co.pendingTxs.Filter(co.collab.TxIndex.HasTransaction)
		}
		co.collab.TxIndex.IssueCallForMissingTxs(co.pendingTxs.Digests())
		co.askedForTxs = true
		co.txTimeout.Arm(co.tunable.WaitForTxTimeout)
	}

	if co.pendingTxs == nil {
		co.pendingTxs = txset.FromBlock(b)
	}
	co.pendingTxs.Filter(co.collab.TxIndex.HasTransaction)

	dagSatisfied := true
	if co.collab.DAG != nil {
		dagSatisfied = co.collab.DAG.SatisfyEpoch(b.DAGEpoch)
	}

	if co.pendingTxs.Empty() && dagSatisfied {
		co.pendingTxs = nil
		return goTo(types.StateSynergeticExecution)
	}

	if co.txGate.Ready() {
		log.Info("block coordinator: waiting for transactions", "block", b.Hash, "pending", len(co.pendingTxs.Digests()))
	}
	return goToAfter(types.StateWaitForTransactions, 200*time.Millisecond)
}

// handleSynergeticExecution performs the optional pre-execution work
// validation pass (spec.md §4.1 SYNERGETIC_EXECUTION).
func (co *Coordinator) handleSynergeticExecution() transition {
	b := co.currentBlock
	if co.collab.Synergetic != nil && !b.PreviousHash.IsZero() {
		if !co.collab.Synergetic.ValidateWorkAndUpdateState(b.Number, co.tunable.NumLanes) {
			return co.rejectAndReset(b, "synergetic work validation failed")
		}
	}
	return goTo(types.StateScheduleBlockExecution)
}

// handleScheduleBlockExecution hands the block to the execution engine
// (spec.md §4.1 SCHEDULE_BLOCK_EXECUTION).
func (co *Coordinator) handleScheduleBlockExecution() transition {
	if co.collab.Engine.Execute(co.currentBlock) != Scheduled {
		return goTo(types.StateReset)
	}
	co.execGate.Reset()
	return goTo(types.StateWaitForExecution)
}

// handleWaitForExecution polls the execution engine's status
// (spec.md §4.1 WAIT_FOR_EXECUTION, §4.2).
func (co *Coordinator) handleWaitForExecution() transition {
	switch execstate.Map(co.collab.Engine.GetState()) {
	case types.ExecIdle:
		return goTo(types.StatePostExecBlockValidation)
	case types.ExecRunning:
		if co.execGate.Ready() {
			log.Info("block coordinator: execution running", "block", co.currentBlock.Hash)
		}
		return goToAfter(types.StateWaitForExecution, 20*time.Millisecond)
	default: // Stalled or Error
		return goTo(types.StateReset)
	}
}

// handlePostExecBlockValidation verifies the resulting Merkle root and
// commits or rolls back accordingly (spec.md §4.1 POST_EXEC_BLOCK_VALIDATION).
func (co *Coordinator) handlePostExecBlockValidation() transition {
	b := co.currentBlock

	if !b.PreviousHash.IsZero() && co.collab.State.CurrentHash() != b.MerkleHash {
		previous, ok := co.collab.Chain.Get(b.PreviousHash)
		reverted := ok
		if ok {
			reverted = co.collab.State.RevertToHash(previous.MerkleHash, previous.Number)
			if co.collab.DAG != nil {
				reverted = co.collab.DAG.RevertToEpoch(previous.Number) && reverted
			}
		}
		if reverted {
			co.collab.Engine.SetLastProcessedBlock(previous.Hash)
		} else {
			log.Error("block coordinator: cannot revert to previous block, hard-resetting to genesis", "block", b.Hash)
			co.collab.State.RevertToHash(types.GenesisMerkleRoot, 0)
			co.collab.Engine.SetLastProcessedBlock(types.GenesisDigest)
			if co.collab.DAG != nil {
				co.collab.DAG.RevertToEpoch(0)
			}
		}
		co.collab.Chain.RemoveBlock(b.Hash)
		return goTo(types.StateReset)
	}

	for _, d := range b.AllDigests() {
		co.collab.Status.Update(d, TxExecuted)
	}
	co.collab.State.Commit(b.Number)
	if co.collab.DAG != nil && b.DAGEpoch != nil {
		co.collab.DAG.CommitEpoch(b.DAGEpoch)
	}
	co.lastExecuted.Store(b.Hash)

	return goTo(types.StateReset)
}
