package indexer

import (
	"context"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setavenger/utxo-dump/internal/dataexport"
	"github.com/setavenger/utxo-dump/internal/types"
)

type fakeSource struct {
	tip    uint64
	failAt uint64
}

func (f *fakeSource) TipHeight(context.Context) (uint64, error) { return f.tip, nil }

func (f *fakeSource) BlockAt(_ context.Context, height uint64) (*types.Block, error) {
	if f.failAt != 0 && height == f.failAt {
		return nil, errors.New("node went away")
	}
	var h chainhash.Hash
	h[0] = byte(height)
	return &types.Block{Hash: h}, nil
}

type recorder struct {
	startHeight uint64
	heights     []uint64
	completed   bool
	endHeight   uint64
	onBlock     func(height uint64) error
}

func (r *recorder) OnStart(_ string, height uint64) { r.startHeight = height }

func (r *recorder) OnBlock(_ context.Context, _ *types.Block, height uint64) error {
	r.heights = append(r.heights, height)
	if r.onBlock != nil {
		return r.onBlock(height)
	}
	return nil
}

func (r *recorder) OnComplete(_ context.Context, height uint64) (*dataexport.Summary, error) {
	r.completed = true
	r.endHeight = height
	return &dataexport.Summary{}, nil
}

func TestRunInOrder(t *testing.T) {
	rec := &recorder{}
	_, err := Run(context.Background(), &fakeSource{tip: 100}, rec, "bitcoin", 3, 7)
	require.NoError(t, err)

	assert.Equal(t, uint64(3), rec.startHeight)
	assert.Equal(t, []uint64{3, 4, 5, 6, 7}, rec.heights)
	assert.True(t, rec.completed)
	assert.Equal(t, uint64(7), rec.endHeight)
}

func TestRunUpToTip(t *testing.T) {
	rec := &recorder{}
	_, err := Run(context.Background(), &fakeSource{tip: 4}, rec, "bitcoin", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []uint64{0, 1, 2, 3, 4}, rec.heights)
	assert.Equal(t, uint64(4), rec.endHeight)
}

func TestRunStartAboveEnd(t *testing.T) {
	rec := &recorder{}
	_, err := Run(context.Background(), &fakeSource{tip: 4}, rec, "bitcoin", 9, 5)
	require.Error(t, err)
	assert.Empty(t, rec.heights)
	assert.False(t, rec.completed)
}

func TestRunSourceFailure(t *testing.T) {
	rec := &recorder{}
	_, err := Run(context.Background(), &fakeSource{tip: 10, failAt: 3}, rec, "bitcoin", 0, 10)
	require.Error(t, err)
	assert.Equal(t, []uint64{0, 1, 2}, rec.heights)
	assert.False(t, rec.completed)
}

func TestRunBlockFailureStops(t *testing.T) {
	boom := errors.New("store down")
	rec := &recorder{onBlock: func(height uint64) error {
		if height == 2 {
			return boom
		}
		return nil
	}}
	_, err := Run(context.Background(), &fakeSource{tip: 10}, rec, "bitcoin", 0, 10)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []uint64{0, 1, 2}, rec.heights)
	assert.False(t, rec.completed)
}

func TestRunCancelledDoesNotComplete(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := &recorder{onBlock: func(height uint64) error {
		if height == 2 {
			cancel()
		}
		return nil
	}}
	_, err := Run(ctx, &fakeSource{tip: 5}, rec, "bitcoin", 0, 5)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, rec.completed)
}
