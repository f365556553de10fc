// Command ledgernode bootstraps the block coordinator's ambient stack:
// flags, config, logging and metrics. It does not itself implement the
// chain store, state store, execution engine or any other storage/transport
// collaborator — those are out of scope for this component (spec.md §1) and
// must be supplied by the embedding node via NewNode.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/urfave/cli/v2"

	"github.com/XiaodongWuFetch/ledger/config"
	"github.com/XiaodongWuFetch/ledger/coordinator"
	"github.com/XiaodongWuFetch/ledger/dagepoch"
	"github.com/XiaodongWuFetch/ledger/stake"
)

var (
	configFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "path to a TOML tunables file (spec.md §6); unset fields keep their defaults",
	}
	miningFlag = &cli.BoolFlag{
		Name:  "mine",
		Usage: "enable block minting (overrides the config file's mining_enabled)",
	}
	identityFlag = &cli.StringFlag{
		Name:  "identity",
		Usage: "this node's miner identity, used as Block.Miner when minting",
	}
	stakeFlag = &cli.Uint64Flag{
		Name:  "self-stake",
		Usage: "this node's stake weight, registered with the built-in stake oracle",
		Value: 1,
	}
	verbosityFlag = &cli.IntFlag{
		Name:  "verbosity",
		Usage: "log verbosity: 0=crit 1=error 2=warn 3=info 4=debug 5=trace",
		Value: 3,
	}
)

func main() {
	app := &cli.App{
		Name:   "ledgernode",
		Usage:  "block coordinator bootstrap",
		Flags:  []cli.Flag{configFlag, miningFlag, identityFlag, stakeFlag, verbosityFlag},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, verbosityLevel(ctx.Int(verbosityFlag.Name)), true)))

	tunable := config.DefaultTunables()
	if path := ctx.String(configFlag.Name); path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		tunable = loaded
	}
	if ctx.IsSet(miningFlag.Name) {
		tunable.MiningEnabled = ctx.Bool(miningFlag.Name)
	}

	identity := coordinator.Identity(ctx.String(identityFlag.Name))
	if tunable.MiningEnabled && identity == "" {
		return fmt.Errorf("mining enabled but no --identity supplied")
	}

	registry := metrics.NewRegistry()
	metricsSurface := coordinator.NewMetrics(registry)

	oracle := stake.NewOracle(map[coordinator.Identity]uint64{
		identity: ctx.Uint64(stakeFlag.Name),
	})
	dag := dagepoch.NewAdapter()

	log.Info("block coordinator bootstrap ready",
		"mining", tunable.MiningEnabled, "identity", identity,
		"numLanes", tunable.NumLanes, "numSlices", tunable.NumSlices)

	// NewNode is the real entrypoint an embedding process calls once it has
	// its own MainChain, StateStore, ExecutionEngine, TransactionIndex,
	// BlockPacker, BlockSink, StatusCache and ProofMiner to hand in; this
	// binary has none of those and stops after bringing up the ambient
	// stack, so it exercises the CLI and config path without hanging.
	_ = oracle
	_ = dag
	_ = metricsSurface
	return nil
}

// verbosityLevel maps the CLI's 0-5 legacy verbosity scale onto the
// structured log package's levels.
func verbosityLevel(v int) slog.Level {
	switch v {
	case 0:
		return log.LevelCrit
	case 1:
		return log.LevelError
	case 2:
		return log.LevelWarn
	case 3:
		return log.LevelInfo
	case 4:
		return log.LevelDebug
	default:
		return log.LevelTrace
	}
}

// NewNode wires the block coordinator's collaborators into a running
// Coordinator. chain, state, engine, txIndex, packer, sink and status are
// mandatory; stake, synergetic and dag are optional and may be left nil.
func NewNode(
	chain coordinator.MainChain,
	state coordinator.StateStore,
	engine coordinator.ExecutionEngine,
	txIndex coordinator.TransactionIndex,
	packer coordinator.BlockPacker,
	sink coordinator.BlockSink,
	status coordinator.StatusCache,
	miner coordinator.ProofMiner,
	oracle coordinator.StakeOracle,
	synergetic coordinator.SynergeticExecMgr,
	dag coordinator.DAG,
	tunable coordinator.Tunables,
	identity coordinator.Identity,
	registry metrics.Registry,
) *coordinator.Coordinator {
	return coordinator.New(coordinator.Collaborators{
		Chain:      chain,
		State:      state,
		Engine:     engine,
		TxIndex:    txIndex,
		Packer:     packer,
		Sink:       sink,
		Status:     status,
		Miner:      miner,
		Stake:      oracle,
		Synergetic: synergetic,
		DAG:        dag,
	}, tunable,
		coordinator.WithMiningIdentity(identity),
		coordinator.WithMetrics(coordinator.NewMetrics(registry)),
	)
}
