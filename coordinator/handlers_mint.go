package coordinator

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"

	"github.com/XiaodongWuFetch/ledger/core/execstate"
	"github.com/XiaodongWuFetch/ledger/core/types"
)

// handleNewSynergeticExecution runs the mint pipeline's optional
// pre-execution work validation over next_block
// (spec.md §4.1 NEW_SYNERGETIC_EXECUTION).
func (co *Coordinator) handleNewSynergeticExecution() transition {
	if co.collab.Synergetic != nil {
		previous, ok := co.collab.Chain.Get(co.nextBlock.PreviousHash)
		if !ok {
			return goTo(types.StateReset)
		}
		if err := co.collab.Synergetic.PrepareWorkQueue(co.nextBlock, previous); err != nil {
			return goTo(types.StateReset)
		}
		if !co.collab.Synergetic.ValidateWorkAndUpdateState(co.nextBlock.Number, co.tunable.NumLanes) {
			return goTo(types.StateReset)
		}
	}
	return goTo(types.StatePackNewBlock)
}

// handlePackNewBlock invokes the block packer to assemble next_block's body
// (spec.md §4.1 PACK_NEW_BLOCK).
func (co *Coordinator) handlePackNewBlock() transition {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("packer panicked: %v", r)
			}
		}()
		return co.collab.Packer.GenerateBlock(co.nextBlock, co.tunable.NumLanes, co.tunable.NumSlices, co.collab.Chain)
	}()
	if err != nil {
		log.Warn("block coordinator: packer failed", "err", err)
		return goTo(types.StateReset)
	}
	co.nextBlockAt = co.clk.Now().Add(co.tunable.BlockPeriod)
	return goTo(types.StateExecuteNewBlock)
}

// handleExecuteNewBlock schedules next_block's speculative execution
// (spec.md §4.1 EXECUTE_NEW_BLOCK).
func (co *Coordinator) handleExecuteNewBlock() transition {
	if co.collab.Engine.Execute(co.nextBlock) != Scheduled {
		return goTo(types.StateReset)
	}
	co.execGate.Reset()
	return goTo(types.StateWaitForNewBlockExecution)
}

// handleWaitForNewBlockExecution polls next_block's speculative execution
// and, once idle, captures its Merkle root and commits
// (spec.md §4.1 WAIT_FOR_NEW_BLOCK_EXECUTION).
func (co *Coordinator) handleWaitForNewBlockExecution() transition {
	switch execstate.Map(co.collab.Engine.GetState()) {
	case types.ExecIdle:
		co.nextBlock.MerkleHash = co.collab.State.CurrentHash()
		co.collab.State.Commit(co.nextBlock.Number)
		if co.collab.DAG != nil && co.nextBlock.DAGEpoch != nil {
			co.collab.DAG.CommitEpoch(co.nextBlock.DAGEpoch)
		}
		return goTo(types.StateProofSearch)
	case types.ExecRunning:
		if co.execGate.Ready() {
			log.Info("block coordinator: mint execution running", "number", co.nextBlock.Number)
		}
		return goToAfter(types.StateWaitForNewBlockExecution, 20*time.Millisecond)
	default:
		return goTo(types.StateReset)
	}
}

// handleProofSearch runs a bounded, cooperative proof-search attempt over
// next_block. On success it recomputes the block's content digest — the
// Merkle root was unknown at SCHEDULE time, so the hash could not be closed
// until now — and transmits; otherwise it self-loops
// (spec.md §4.1 PROOF_SEARCH).
func (co *Coordinator) handleProofSearch() transition {
	if !co.collab.Miner.Mine(co.nextBlock, co.tunable.ProofSearchAttemptBudget) {
		return goTo(types.StateProofSearch)
	}
	co.nextBlock.Hash = contentDigest(co.nextBlock)
	co.collab.Engine.SetLastProcessedBlock(co.nextBlock.Hash)
	return goTo(types.StateTransmitBlock)
}

// handleTransmitBlock adds the minted block to the chain and broadcasts it
// (spec.md §4.1 TRANSMIT_BLOCK).
func (co *Coordinator) handleTransmitBlock() transition {
	b := co.nextBlock
	result, err := co.collab.Chain.AddBlock(b)
	if err != nil || result != Added {
		log.Warn("block coordinator: minted block not added", "hash", b.Hash, "err", err, "result", result)
		return goTo(types.StateReset)
	}
	for _, d := range b.AllDigests() {
		co.collab.Status.Update(d, TxExecuted)
	}
	co.lastExecuted.Store(b.Hash)
	co.collab.Sink.OnBlock(b)
	return goTo(types.StateReset)
}

// contentDigest computes the block's closing hash once its proof has been
// found. The wire format and cryptographic proof algorithm are both out of
// scope (spec.md §1); this is an internal convenience, not a protocol
// specification.
func contentDigest(b *types.Block) types.Digest {
	h := sha256.New()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], b.Number)
	h.Write(buf[:])
	h.Write(b.PreviousHash[:])
	h.Write(b.MerkleHash[:])
	binary.BigEndian.PutUint64(buf[:], b.Proof.Nonce)
	h.Write(buf[:])
	h.Write([]byte(b.Miner))
	return types.BytesToDigest(h.Sum(nil))
}
