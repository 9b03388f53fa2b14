package main

import (
	"os"
	"path"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/setavenger/utxo-dump/internal/config"
	"github.com/setavenger/utxo-dump/internal/logging"
)

var (
	Version = "0.0.0"

	// Global flags
	datadir    string
	configFile string
)

func init() {
	rootCmd.PersistentFlags().StringVar(
		&datadir,
		"datadir",
		config.DefaultBaseDirectory,
		"Set the base directory for utxo-dump. Default directory is ~/.utxo-dump",
	)
	rootCmd.PersistentFlags().StringVar(
		&configFile,
		"config",
		"",
		"Path to config file (default: datadir/utxodump.toml)",
	)

	rootCmd.AddCommand(redisCSVDumpCmd, dbCSVDumpCmd, kvCSVDumpCmd, iterCmd)
}

var rootCmd = &cobra.Command{
	Use:   "utxo-dump",
	Short: "Maintain the unspent output set and dump it as csv",
	Long: `utxo-dump pulls blocks from a bitcoind REST endpoint, keeps the set of
unspent outputs in redis, postgres, sqlite, pebble or leveldb and writes a
csv snapshot of the set once the last block is applied.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == iterCmd.Name() {
			// stdout carries the rows
			logging.SetOutput(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
		}

		config.BaseDirectory = datadir
		config.SetDirectories()

		logging.L.Info().Msgf("base directory %s", config.BaseDirectory)

		if configFile == "" {
			configFile = path.Join(config.BaseDirectory, config.ConfigFileName)
		}
		if err := config.LoadConfigs(configFile); err != nil {
			return err
		}

		if config.LogsPath != "" && cmd.Name() != iterCmd.Name() {
			if err := logging.SetLogOutput(config.LogsPath, "utxodump.log"); err != nil {
				logging.L.Warn().Err(err).Msg("Failed to initialize file logging")
			}
		}
		return nil
	},
}

func main() {
	defer logging.Close()

	if err := rootCmd.Execute(); err != nil {
		logging.L.Err(err).Msg("program failed")
		logging.Close()
		os.Exit(1)
	}
	logging.L.Info().Msg("Program shut down")
}
