// Package config loads the block coordinator's tunables (spec.md §6) from
// TOML, via github.com/naoina/toml — the same TOML library the teacher
// repository's own node configuration uses.
package config

import (
	"io"
	"os"
	"time"

	"github.com/naoina/toml"
)

// Tunables holds every configurable constant named in spec.md §6.
type Tunables struct {
	// CommonPathToAncestorLengthLimit bounds how far back a single
	// getPathToCommonAncestor lookup is allowed to walk.
	CommonPathToAncestorLengthLimit int `toml:"common_path_to_ancestor_length_limit"`

	// ThresholdForFastSyncing is the residual ancestor-path length below
	// which the cache is discarded in favor of step-wise lookup.
	ThresholdForFastSyncing int `toml:"threshold_for_fast_syncing"`

	// WaitBeforeAskingForMissingTx is how long WAIT_FOR_TRANSACTIONS waits
	// before issuing a peer solicitation for missing digests.
	WaitBeforeAskingForMissingTx time.Duration `toml:"wait_before_asking_for_missing_tx"`

	// WaitForTxTimeout bounds the overall wait for missing transactions
	// once peers have been asked.
	WaitForTxTimeout time.Duration `toml:"wait_for_tx_timeout"`

	// TxSyncNotifyInterval rate-limits the WAIT_FOR_TRANSACTIONS progress log.
	TxSyncNotifyInterval time.Duration `toml:"tx_sync_notify_interval"`

	// ExecNotifyInterval rate-limits the WAIT_FOR_EXECUTION progress log.
	ExecNotifyInterval time.Duration `toml:"exec_notify_interval"`

	// PeriodicInfoLogInterval rate-limits the coordinator's general
	// progress log, independent of any one state.
	PeriodicInfoLogInterval time.Duration `toml:"periodic_info_log_interval"`

	// BlockPeriod is the minimum spacing between mint attempts.
	BlockPeriod time.Duration `toml:"block_period"`

	// BlockDifficulty seeds a newly packed block's proof target.
	BlockDifficulty uint64 `toml:"block_difficulty"`

	// NumLanes and NumSlices must satisfy 1<<log2(NumLanes) == NumLanes and
	// slices.length == NumSlices for every accepted block.
	NumLanes  uint64 `toml:"num_lanes"`
	NumSlices int    `toml:"num_slices"`

	// MiningEnabled is the operator's own on/off switch; MiningAllowed lets
	// an external gate (e.g. still syncing) suppress minting independently.
	MiningEnabled bool `toml:"mining_enabled"`
	MiningAllowed bool `toml:"mining_allowed"`

	// ProofSearchAttemptBudget bounds how many proof attempts PROOF_SEARCH
	// spends per cooperative entry.
	ProofSearchAttemptBudget uint64 `toml:"proof_search_attempt_budget"`
}

// DefaultTunables returns the defaults named in spec.md §6.
func DefaultTunables() Tunables {
	return Tunables{
		CommonPathToAncestorLengthLimit: 2048,
		ThresholdForFastSyncing:         100,
		WaitBeforeAskingForMissingTx:     30 * time.Second,
		WaitForTxTimeout:                 30 * time.Second,
		TxSyncNotifyInterval:             time.Second,
		ExecNotifyInterval:               500 * time.Millisecond,
		PeriodicInfoLogInterval:          10 * time.Second,
		BlockPeriod:                      15 * time.Second,
		BlockDifficulty:                  1 << 20,
		NumLanes:                         1,
		NumSlices:                        1,
		MiningEnabled:                    false,
		MiningAllowed:                    true,
		ProofSearchAttemptBudget:         1 << 16,
	}
}

// Load reads TOML tunables from r, starting from the defaults so a partial
// file only overrides what it names.
func Load(r io.Reader) (Tunables, error) {
	t := DefaultTunables()
	data, err := io.ReadAll(r)
	if err != nil {
		return t, err
	}
	if len(data) == 0 {
		return t, nil
	}
	if err := toml.Unmarshal(data, &t); err != nil {
		return t, err
	}
	return t, nil
}

// LoadFile reads tunables from a TOML file at path.
func LoadFile(path string) (Tunables, error) {
	f, err := os.Open(path)
	if err != nil {
		return DefaultTunables(), err
	}
	defer f.Close()
	return Load(f)
}
