package indexer

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/setavenger/utxo-dump/internal/dataexport"
	"github.com/setavenger/utxo-dump/internal/logging"
	"github.com/setavenger/utxo-dump/internal/types"
)

// ProgressInterval is the number of blocks between two progress reports.
var ProgressInterval uint64 = 1000

// prefetchDepth bounds how many blocks are pulled ahead of the one being applied
const prefetchDepth = 16

type BlockSource interface {
	TipHeight(ctx context.Context) (uint64, error)
	BlockAt(ctx context.Context, height uint64) (*types.Block, error)
}

// Callback receives the blocks in order. OnBlock calls never overlap.
type Callback interface {
	OnStart(coinType string, height uint64)
	OnBlock(ctx context.Context, block *types.Block, height uint64) error
	OnComplete(ctx context.Context, height uint64) (*dataexport.Summary, error)
}

type fetched struct {
	height uint64
	block  *types.Block
	err    error
}

// Run feeds the blocks start..end to cb and completes it.
// An end of 0 follows the source up to its tip at call time.
// Cancelling ctx stops the run without completing cb.
func Run(
	ctx context.Context,
	source BlockSource,
	cb Callback,
	coinType string,
	startHeight, endHeight uint64,
) (*dataexport.Summary, error) {
	if endHeight == 0 {
		tip, err := source.TipHeight(ctx)
		if err != nil {
			logging.L.Err(err).Msg("failed to pull chain tip")
			return nil, err
		}
		endHeight = tip
	}
	if startHeight > endHeight {
		return nil, errors.Newf("start height %d is above end height %d", startHeight, endHeight)
	}

	logging.L.Info().
		Uint64("start_height", startHeight).
		Uint64("end_height", endHeight).
		Msg("starting block run")

	cb.OnStart(coinType, startHeight)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	blocks := make(chan fetched, prefetchDepth)
	go func() {
		defer close(blocks)
		for height := startHeight; height <= endHeight; height++ {
			block, err := source.BlockAt(ctx, height)
			select {
			case blocks <- fetched{height: height, block: block, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
			logging.L.Trace().Uint64("height", height).Msg("pulled block")
		}
	}()

	started := time.Now()
	var applied uint64
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case f, ok := <-blocks:
			if !ok {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				logging.L.Info().
					Uint64("blocks", applied).
					Dur("took", time.Since(started)).
					Msg("all blocks applied")
				return cb.OnComplete(ctx, endHeight)
			}
			if f.err != nil {
				logging.L.Err(f.err).Uint64("height", f.height).Msg("failed to pull block")
				return nil, errors.Wrapf(f.err, "pull block %d", f.height)
			}
			if err := cb.OnBlock(ctx, f.block, f.height); err != nil {
				logging.L.Err(err).
					Str("blockhash", f.block.Hash.String()).
					Uint64("height", f.height).
					Msg("failed handling block")
				return nil, err
			}

			applied++
			if applied%ProgressInterval == 0 {
				logging.L.Info().
					Uint64("height", f.height).
					Uint64("blocks", applied).
					Dur("elapsed", time.Since(started)).
					Msgf("applied block %d", f.height)
			}
		}
	}
}
