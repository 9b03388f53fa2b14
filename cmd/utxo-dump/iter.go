package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/setavenger/utxo-dump/internal/config"
	"github.com/setavenger/utxo-dump/internal/database/factory"
	"github.com/setavenger/utxo-dump/internal/dataexport"
	"github.com/setavenger/utxo-dump/internal/ledger"
	"github.com/setavenger/utxo-dump/internal/logging"
	"github.com/setavenger/utxo-dump/internal/types"
)

var (
	iterBackend string
	iterBTC     bool
)

func init() {
	iterCmd.Flags().StringVar(&iterBackend, "backend", "", "Store to read (default: backend from config)")
	iterCmd.Flags().BoolVar(&iterBTC, "btc", false, "Print values in BTC instead of satoshis")
}

var iterCmd = &cobra.Command{
	Use:   "iter",
	Short: "Print every ledger entry of the store to stdout",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend := config.Backend
		if iterBackend != "" {
			backend = iterBackend
		}

		store, err := factory.OpenStore(cmd.Context(), backend)
		if err != nil {
			return err
		}
		defer store.Close()

		it, err := store.ScanAll(cmd.Context())
		if err != nil {
			return err
		}
		defer it.Close()

		out := bufio.NewWriter(cmd.OutOrStdout())
		delim := string(dataexport.Delimiter)
		fmt.Fprintln(out, strings.Join(dataexport.Header, delim))

		var (
			utxo types.UTXO
			rows uint64
		)
		for it.Next() {
			if err = types.DecodePair(&utxo, []byte(it.Key()), it.Value()); err != nil {
				return err
			}

			value := fmt.Sprint(utxo.Value)
			if iterBTC {
				value = ledger.FormatBTC(utxo.Value)
			}
			fmt.Fprintln(out, strings.Join([]string{
				utxo.TxidHex(),
				fmt.Sprint(utxo.Vout),
				fmt.Sprint(utxo.BlockHeight),
				value,
				utxo.Address,
			}, delim))
			rows++
		}
		if err = it.Err(); err != nil {
			return err
		}
		if err = out.Flush(); err != nil {
			return err
		}

		logging.L.Info().Uint64("rows", rows).Msg("iteration done")
		return nil
	},
}
