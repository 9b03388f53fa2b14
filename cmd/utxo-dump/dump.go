package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/setavenger/utxo-dump/internal/config"
	"github.com/setavenger/utxo-dump/internal/database/factory"
	"github.com/setavenger/utxo-dump/internal/dataexport"
	"github.com/setavenger/utxo-dump/internal/indexer"
	"github.com/setavenger/utxo-dump/internal/ledger"
	"github.com/setavenger/utxo-dump/internal/logging"
	"github.com/setavenger/utxo-dump/internal/server"
)

var (
	coinType    string
	startHeight uint64
	endHeight   uint64
	dbEngine    string
	kvEngine    string
)

func init() {
	for _, cmd := range []*cobra.Command{redisCSVDumpCmd, dbCSVDumpCmd, kvCSVDumpCmd} {
		cmd.Flags().StringVar(&coinType, "coin", "bitcoin", "Coin name used in the logs")
		cmd.Flags().Uint64Var(&startHeight, "start-height", 0, "First block to apply (default: start_height from config)")
		cmd.Flags().Uint64Var(&endHeight, "end-height", 0, "Last block to apply (default: end_height from config, 0 is the node's tip)")
	}
	dbCSVDumpCmd.Flags().StringVar(&dbEngine, "engine", config.BackendPostgres, "Relational engine: postgres or sqlite")
	kvCSVDumpCmd.Flags().StringVar(&kvEngine, "engine", config.BackendPebble, "Embedded engine: pebble or leveldb")
}

var redisCSVDumpCmd = &cobra.Command{
	Use:   "rediscsvdump <dump-folder>",
	Short: "Keep the unspent set in a redis hash and dump it as csv",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDump(cmd, args, config.BackendRedis)
	},
}

var dbCSVDumpCmd = &cobra.Command{
	Use:   "dbcsvdump <dump-folder>",
	Short: "Keep the unspent set in a relational table and dump it as csv",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch dbEngine {
		case config.BackendPostgres, config.BackendSQLite:
		default:
			return errors.Newf("engine %q is not relational", dbEngine)
		}
		return runDump(cmd, args, dbEngine)
	},
}

var kvCSVDumpCmd = &cobra.Command{
	Use:   "kvcsvdump <dump-folder>",
	Short: "Keep the unspent set in an embedded key value store and dump it as csv",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		switch kvEngine {
		case config.BackendPebble, config.BackendLevelDB, config.BackendMemory:
		default:
			return errors.Newf("engine %q is not an embedded store", kvEngine)
		}
		return runDump(cmd, args, kvEngine)
	},
}

func runDump(cmd *cobra.Command, args []string, backend string) error {
	dumpFolder := config.DumpFolder
	if len(args) == 1 {
		dumpFolder = args[0]
	}
	if cmd.Flags().Changed("start-height") {
		config.StartHeight = startHeight
	}
	if cmd.Flags().Changed("end-height") {
		config.EndHeight = endHeight
	}
	if config.EndHeight != 0 && config.EndHeight < config.StartHeight {
		return errors.Newf("end height %d below start height %d", config.EndHeight, config.StartHeight)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// the tmp file is created before any block so a bad dump folder fails fast
	exporter := dataexport.NewExporter(dumpFolder, config.DumpName)
	if err := exporter.Prepare(); err != nil {
		return err
	}
	defer exporter.Abort()

	store, err := factory.OpenStore(ctx, backend)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.L.Err(err).Msg("store close failed")
		}
	}()

	updater := ledger.NewUpdater(store, exporter, ledger.Options{
		CommitErrorsFatal: config.CommitErrorsFatal,
	})

	if config.HTTPHost != "" {
		api := server.NewApiHandler(updater, config.ChainToString(config.Chain), backend)
		go func() {
			if err := server.RunServer(ctx, config.HTTPHost, api); err != nil {
				logging.L.Err(err).Msg("status server stopped")
			}
		}()
	}

	source := indexer.NewRestSource(config.RestEndpoint, config.ChainParams())
	summary, err := indexer.Run(ctx, source, updater, coinType, config.StartHeight, config.EndHeight)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logging.L.Info().Msg("Program interrupted, no snapshot written")
		}
		return err
	}

	logging.L.Info().
		Str("path", summary.Path).
		Uint64("rows", summary.Rows).
		Msg("dump finished")
	return nil
}
