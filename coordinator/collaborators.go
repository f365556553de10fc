package coordinator

import (
	"github.com/XiaodongWuFetch/ledger/core/ancestry"
	"github.com/XiaodongWuFetch/ledger/core/execstate"
	"github.com/XiaodongWuFetch/ledger/core/types"
)

// AddBlockResult is the outcome of MainChain.AddBlock.
type AddBlockResult uint8

const (
	Added AddBlockResult = iota
	AlreadyPresent
	Rejected
)

// ScheduleResult is the outcome of ExecutionEngine.Execute.
type ScheduleResult uint8

const (
	Scheduled ScheduleResult = iota
	ScheduleRejected
)

// MainChain is the persistent store of blocks and their ancestry, owning
// the block graph (spec.md §6, §9 "Cyclic structures"). The coordinator
// never traverses the graph itself — only through this contract.
type MainChain interface {
	GetHeaviestBlock() *types.Block
	GetHeaviestBlockHash() types.Digest
	Get(hash types.Digest) (*types.Block, bool)
	AddBlock(b *types.Block) (AddBlockResult, error)
	RemoveBlock(hash types.Digest)
	// GetPathToCommonAncestor returns an ordered path from the common
	// ancestor of tip and target to tip (least-recent first), bounded by
	// limit and truncated per policy when the true path is longer.
	GetPathToCommonAncestor(tip, target types.Digest, limit int, policy ancestry.TruncationPolicy) ([]*types.Block, error)
	Reset()
}

// StateStore is the Merkle-versioned state store.
type StateStore interface {
	CurrentHash() types.MerkleRoot
	LastCommitHash() types.MerkleRoot
	HashExists(root types.MerkleRoot, blockNumber uint64) bool
	RevertToHash(root types.MerkleRoot, blockNumber uint64) bool
	Commit(blockNumber uint64)
}

// ExecutionEngine is the deterministic transaction execution engine.
type ExecutionEngine interface {
	Execute(block *types.Block) ScheduleResult
	GetState() execstate.EngineState
	SetLastProcessedBlock(hash types.Digest)
	LastProcessedBlock() types.Digest
}

// TransactionIndex is the storage layer's view of locally available
// transactions and its peer-solicitation mechanism.
type TransactionIndex interface {
	HasTransaction(d types.Digest) bool
	IssueCallForMissingTxs(digests []types.Digest)
}

// BlockPacker selects and assembles a new block body. It may return an
// error or panic; the coordinator recovers a panic and treats both
// identically (RESET), but an error is preferred in idiomatic Go.
type BlockPacker interface {
	GenerateBlock(next *types.Block, numLanes uint64, numSlices int, chain MainChain) error
}

// BlockSink receives newly minted, chain-added blocks for broadcast.
type BlockSink interface {
	OnBlock(b *types.Block)
}

// StatusCache records per-transaction lifecycle updates.
type StatusCache interface {
	Update(d types.Digest, status TxStatus)
}

// TxStatus is the lifecycle status StatusCache.Update records.
type TxStatus uint8

const (
	TxExecuted TxStatus = iota
)

// StakeOracle is the optional consensus-weight collaborator.
type StakeOracle interface {
	ShouldGenerateBlock(previous *types.Block, miner types.Identity) bool
	ValidMinerForBlock(previous *types.Block, miner types.Identity) bool
	GetBlockGenerationWeight(previous *types.Block, miner types.Identity) uint64
	UpdateCurrentBlock(b *types.Block)
}

// SynergeticExecMgr is the optional off-chain work validation collaborator.
type SynergeticExecMgr interface {
	PrepareWorkQueue(current, previous *types.Block) error
	ValidateWorkAndUpdateState(blockNumber uint64, numLanes uint64) bool
}

// DAG is the optional epoch-grouping collaborator.
type DAG interface {
	CurrentEpoch() types.DAGEpochHandle
	CreateEpoch(blockNumber uint64) (types.DAGEpochHandle, error)
	SatisfyEpoch(h types.DAGEpochHandle) bool
	RevertToEpoch(blockNumber uint64) bool
	CommitEpoch(h types.DAGEpochHandle)
}

// ProofMiner searches for a proof closing a block's hash, in bounded,
// cooperative slices.
type ProofMiner interface {
	Mine(b *types.Block, attemptBudget uint64) bool
}
