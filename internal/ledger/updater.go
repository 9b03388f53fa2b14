// Package ledger applies blocks to the unspent output store and hands the
// final state to the snapshot exporter.
package ledger

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/shopspring/decimal"

	"github.com/setavenger/utxo-dump/internal/database"
	"github.com/setavenger/utxo-dump/internal/dataexport"
	"github.com/setavenger/utxo-dump/internal/logging"
	"github.com/setavenger/utxo-dump/internal/metrics"
	"github.com/setavenger/utxo-dump/internal/types"
)

// satsPerBTC is used for the value column of the completion summary
var satsPerBTC = decimal.NewFromInt(100_000_000)

type Options struct {
	// CommitErrorsFatal aborts the run when a block commit fails.
	// When false the failure is logged and counted and the next block follows.
	CommitErrorsFatal bool
}

// Updater owns the counters of one run. OnBlock calls must not overlap.
type Updater struct {
	store    database.Store
	scoped   database.BlockScoped
	exporter *dataexport.Exporter
	opts     Options

	mu       sync.Mutex
	counters types.Counters
}

func NewUpdater(store database.Store, exporter *dataexport.Exporter, opts Options) *Updater {
	u := &Updater{
		store:    store,
		exporter: exporter,
		opts:     opts,
	}
	if scoped, ok := store.(database.BlockScoped); ok {
		u.scoped = scoped
	}
	return u
}

func (u *Updater) OnStart(coinType string, height uint64) {
	u.mu.Lock()
	u.counters = types.Counters{StartHeight: height}
	u.mu.Unlock()

	logging.L.Info().
		Str("coin", coinType).
		Uint64("height", height).
		Msg("starting ledger update")
}

// OnBlock removes every output spent by the block and inserts every output it creates.
// Transactions are applied in block order so an output spent later in the same block
// is gone once the block is applied.
func (u *Updater) OnBlock(ctx context.Context, block *types.Block, height uint64) error {
	if u.scoped != nil {
		if err := u.scoped.BeginBlock(ctx, height); err != nil {
			return err
		}
	}

	var inCount, outCount, deleted uint64
	for _, tx := range block.Txs {
		n, err := u.applyTransaction(ctx, tx, height)
		if err != nil {
			u.rollback(height)
			return errors.Wrapf(err, "block %d tx %s", height, tx.Txid)
		}
		deleted += uint64(n)
		inCount += tx.InCount()
		outCount += tx.OutCount()
	}

	if u.scoped != nil {
		if err := u.scoped.CommitBlock(ctx); err != nil {
			metrics.CommitFailures.Inc()
			if u.opts.CommitErrorsFatal {
				return err
			}
			logging.L.Err(err).Uint64("height", height).Msg("commit failed, continuing")
		}
	}

	u.mu.Lock()
	u.counters.TxCount += block.TxCount()
	u.counters.InCount += inCount
	u.counters.OutCount += outCount
	u.counters.Blocks++
	u.counters.LastHeight = height
	u.mu.Unlock()

	metrics.BlocksProcessed.Inc()
	metrics.TxsProcessed.Add(float64(block.TxCount()))
	metrics.InputsProcessed.Add(float64(inCount))
	metrics.OutputsProcessed.Add(float64(outCount))
	metrics.KeysDeleted.Add(float64(deleted))
	metrics.LastHeight.Set(float64(height))

	logging.L.Trace().
		Uint64("height", height).
		Str("hash", block.Hash.String()).
		Uint64("txs", block.TxCount()).
		Msg("block applied")

	return nil
}

func (u *Updater) applyTransaction(ctx context.Context, tx *types.Transaction, height uint64) (int, error) {
	var deleted int
	if len(tx.Inputs) > 0 {
		keys := make([]string, len(tx.Inputs))
		for i := range tx.Inputs {
			keys[i] = types.InputReferenceKey(tx.Inputs[i])
		}
		n, err := u.store.DeleteMany(ctx, keys)
		if err != nil {
			return n, err
		}
		if n != len(keys) {
			logging.L.Debug().
				Str("txid", tx.Txid.String()).
				Int("inputs", len(keys)).
				Int("deleted", n).
				Msg("inputs reference outputs not in the ledger")
		}
		deleted = n
	}

	for vout := range tx.Outputs {
		out := &tx.Outputs[vout]
		value := types.EncodeEntry(types.Entry{
			BlockHeight: height,
			Value:       out.Value,
			Address:     out.Address,
		})
		if err := u.store.Upsert(ctx, types.OutputKey(&tx.Txid, uint32(vout)), value); err != nil {
			return deleted, err
		}
	}
	return deleted, nil
}

func (u *Updater) rollback(height uint64) {
	if u.scoped == nil {
		return
	}
	if err := u.scoped.RollbackBlock(); err != nil {
		logging.L.Err(err).Uint64("height", height).Msg("rollback failed")
	}
}

// OnComplete publishes the snapshot of the ledger as of height.
func (u *Updater) OnComplete(ctx context.Context, height uint64) (*dataexport.Summary, error) {
	u.mu.Lock()
	u.counters.EndHeight = height
	counters := u.counters
	u.mu.Unlock()

	summary, err := u.exporter.Export(ctx, u.store, counters)
	if err != nil {
		return nil, err
	}
	metrics.SnapshotRows.Set(float64(summary.Rows))

	logging.L.Info().
		Uint64("start_height", counters.StartHeight).
		Uint64("end_height", counters.EndHeight).
		Uint64("blocks", counters.Blocks).
		Uint64("txs", counters.TxCount).
		Uint64("inputs", counters.InCount).
		Uint64("outputs", counters.OutCount).
		Uint64("rows", summary.Rows).
		Str("unspent_btc", FormatBTC(summary.TotalValue)).
		Str("path", summary.Path).
		Msg("ledger update complete")

	return summary, nil
}

// Snapshot returns a copy of the counters, safe to call from other goroutines.
func (u *Updater) Snapshot() types.Counters {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.counters
}

// FormatBTC renders an amount in satoshis as BTC with eight decimals.
func FormatBTC(sats uint64) string {
	return decimal.NewFromInt(int64(sats)).Div(satsPerBTC).StringFixed(8)
}
