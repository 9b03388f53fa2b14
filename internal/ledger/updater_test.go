package ledger

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/setavenger/utxo-dump/internal/database"
	"github.com/setavenger/utxo-dump/internal/database/dbmemory"
	"github.com/setavenger/utxo-dump/internal/database/dbsql"
	"github.com/setavenger/utxo-dump/internal/dataexport"
	"github.com/setavenger/utxo-dump/internal/types"
)

func hashFromByte(b byte) chainhash.Hash {
	var h chainhash.Hash
	h[0] = b
	h[31] = b
	return h
}

func coinbaseBlock(txid chainhash.Hash, outputs ...types.Output) *types.Block {
	return &types.Block{
		Hash: hashFromByte(0xb0),
		Txs:  []*types.Transaction{{Txid: txid, Outputs: outputs}},
	}
}

func readSnapshot(t *testing.T, path string) []string {
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestCoinbaseOnlyBlock(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := dbmemory.New()
	u := NewUpdater(store, dataexport.NewExporter(dir, "unspent"), Options{CommitErrorsFatal: true})

	txid := hashFromByte(0x01)
	u.OnStart("bitcoin", 0)
	require.NoError(t, u.OnBlock(ctx, coinbaseBlock(txid,
		types.Output{Value: 5_000_000_000, Address: "addr1"},
		types.Output{Value: 0, Address: "addr2"},
	), 0))

	assert.Equal(t, 2, store.Len())
	c := u.Snapshot()
	assert.Equal(t, uint64(2), c.OutCount)
	assert.Equal(t, uint64(0), c.InCount)
	assert.Equal(t, uint64(1), c.TxCount)

	summary, err := u.OnComplete(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "unspent-0-0.csv"), summary.Path)

	lines := readSnapshot(t, summary.Path)
	require.Len(t, lines, 3)
	assert.Equal(t, "txid;indexOut;height;value;address", lines[0])
	assert.Equal(t, txid.String()+";0;0;5000000000;addr1", lines[1])
	assert.Equal(t, txid.String()+";1;0;0;addr2", lines[2])
}

func TestSpendRemovesOutput(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := dbmemory.New()
	u := NewUpdater(store, dataexport.NewExporter(dir, "unspent"), Options{CommitErrorsFatal: true})

	t0 := hashFromByte(0x01)
	t1 := hashFromByte(0x02)

	u.OnStart("bitcoin", 0)
	require.NoError(t, u.OnBlock(ctx, coinbaseBlock(t0, types.Output{Value: 50, Address: "A"}), 0))
	require.NoError(t, u.OnBlock(ctx, &types.Block{
		Hash: hashFromByte(0xb1),
		Txs: []*types.Transaction{{
			Txid:    t1,
			Inputs:  []wire.OutPoint{{Hash: t0, Index: 0}},
			Outputs: []types.Output{{Value: 40, Address: "B"}},
		}},
	}, 1))

	_, ok := store.Get(types.OutputKey(&t0, 0))
	assert.False(t, ok)

	summary, err := u.OnComplete(ctx, 1)
	require.NoError(t, err)
	lines := readSnapshot(t, summary.Path)
	require.Len(t, lines, 2)
	assert.Equal(t, t1.String()+";0;1;40;B", lines[1])
	assert.Equal(t, uint64(40), summary.TotalValue)
}

func TestSpendWithinSameBlock(t *testing.T) {
	ctx := context.Background()
	store := dbmemory.New()
	u := NewUpdater(store, dataexport.NewExporter(t.TempDir(), "unspent"), Options{CommitErrorsFatal: true})

	t0 := hashFromByte(0x01)
	t1 := hashFromByte(0x02)
	block := &types.Block{
		Hash: hashFromByte(0xb0),
		Txs: []*types.Transaction{
			{Txid: t0, Outputs: []types.Output{{Value: 10, Address: "A"}, {Value: 20, Address: "B"}}},
			{Txid: t1, Inputs: []wire.OutPoint{{Hash: t0, Index: 1}}, Outputs: []types.Output{{Value: 19, Address: "C"}}},
		},
	}

	u.OnStart("bitcoin", 5)
	require.NoError(t, u.OnBlock(ctx, block, 5))

	c := u.Snapshot()
	assert.Equal(t, int(c.OutCount-c.InCount), store.Len())
	_, ok := store.Get(types.OutputKey(&t0, 1))
	assert.False(t, ok)
	_, ok = store.Get(types.OutputKey(&t1, 0))
	assert.True(t, ok)
}

func TestLedgerConsistencyOverManyBlocks(t *testing.T) {
	ctx := context.Background()
	store := dbmemory.New()
	u := NewUpdater(store, dataexport.NewExporter(t.TempDir(), "unspent"), Options{CommitErrorsFatal: true})

	u.OnStart("bitcoin", 0)
	prev := hashFromByte(0x10)
	require.NoError(t, u.OnBlock(ctx, coinbaseBlock(prev,
		types.Output{Value: 1, Address: "a"},
		types.Output{Value: 2, Address: "b"},
		types.Output{Value: 3, Address: "c"},
	), 0))

	for height := uint64(1); height < 15; height++ {
		next := hashFromByte(byte(0x10 + height))
		block := &types.Block{Hash: hashFromByte(byte(height)), Txs: []*types.Transaction{{
			Txid:    next,
			Inputs:  []wire.OutPoint{{Hash: prev, Index: 0}},
			Outputs: []types.Output{{Value: height, Address: "x"}, {Value: height, Address: "y"}},
		}}}
		require.NoError(t, u.OnBlock(ctx, block, height))
		prev = next
	}

	c := u.Snapshot()
	assert.Equal(t, uint64(15), c.Blocks)
	assert.Equal(t, uint64(14), c.LastHeight)
	assert.Equal(t, int(c.OutCount-c.InCount), store.Len())
}

func TestEmptyBlockKeepsLedger(t *testing.T) {
	ctx := context.Background()
	store := dbmemory.New()
	u := NewUpdater(store, dataexport.NewExporter(t.TempDir(), "unspent"), Options{})

	u.OnStart("bitcoin", 7)
	require.NoError(t, u.OnBlock(ctx, &types.Block{Hash: hashFromByte(1)}, 7))
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, uint64(0), u.Snapshot().TxCount)
}

// scopedStore records the block lifecycle on top of the map store.
type scopedStore struct {
	*dbmemory.Memory
	commitErr  error
	upsertErr  error
	begun      int
	committed  int
	rolledBack int
}

func (s *scopedStore) BeginBlock(context.Context, uint64) error { s.begun++; return nil }

func (s *scopedStore) CommitBlock(context.Context) error {
	if s.commitErr != nil {
		return s.commitErr
	}
	s.committed++
	return nil
}

func (s *scopedStore) RollbackBlock() error { s.rolledBack++; return nil }

func (s *scopedStore) Upsert(ctx context.Context, key string, value []byte) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	return s.Memory.Upsert(ctx, key, value)
}

func TestCommitFailureFatal(t *testing.T) {
	store := &scopedStore{
		Memory:    dbmemory.New(),
		commitErr: database.StoreErr(errors.New("connection reset"), "commit block 3"),
	}
	u := NewUpdater(store, dataexport.NewExporter(t.TempDir(), "unspent"), Options{CommitErrorsFatal: true})

	u.OnStart("bitcoin", 3)
	err := u.OnBlock(context.Background(), coinbaseBlock(hashFromByte(1), types.Output{Value: 1}), 3)
	require.Error(t, err)
	assert.True(t, errors.Is(err, database.ErrStore))
	assert.Equal(t, uint64(0), u.Snapshot().Blocks)
}

func TestCommitFailureTolerated(t *testing.T) {
	store := &scopedStore{
		Memory:    dbmemory.New(),
		commitErr: database.StoreErr(errors.New("connection reset"), "commit block 3"),
	}
	u := NewUpdater(store, dataexport.NewExporter(t.TempDir(), "unspent"), Options{CommitErrorsFatal: false})

	u.OnStart("bitcoin", 3)
	require.NoError(t, u.OnBlock(context.Background(), coinbaseBlock(hashFromByte(1), types.Output{Value: 1}), 3))
	assert.Equal(t, uint64(1), u.Snapshot().Blocks)
	assert.Equal(t, 1, store.begun)
}

func TestUpsertFailureRollsBack(t *testing.T) {
	store := &scopedStore{
		Memory:    dbmemory.New(),
		upsertErr: database.StoreErr(errors.New("disk full"), "upsert"),
	}
	u := NewUpdater(store, dataexport.NewExporter(t.TempDir(), "unspent"), Options{CommitErrorsFatal: true})

	u.OnStart("bitcoin", 0)
	err := u.OnBlock(context.Background(), coinbaseBlock(hashFromByte(1), types.Output{Value: 1}), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, database.ErrStore))
	assert.Equal(t, 1, store.rolledBack)
	assert.Equal(t, 0, store.committed)
}

func TestSQLiteBackedRun(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := dbsql.Open(ctx, dbsql.SQLite, dbsql.SQLiteDSN(filepath.Join(dir, "ledger.db")), "results")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	u := NewUpdater(store, dataexport.NewExporter(dir, "unspent"), Options{CommitErrorsFatal: true})
	t0 := hashFromByte(0x01)
	t1 := hashFromByte(0x02)

	u.OnStart("bitcoin", 0)
	require.NoError(t, u.OnBlock(ctx, coinbaseBlock(t0, types.Output{Value: 50, Address: "A"}), 0))
	require.NoError(t, u.OnBlock(ctx, &types.Block{
		Hash: hashFromByte(0xb1),
		Txs: []*types.Transaction{{
			Txid:    t1,
			Inputs:  []wire.OutPoint{{Hash: t0, Index: 0}},
			Outputs: []types.Output{{Value: 40, Address: "B"}, {Value: 9, Address: "C"}},
		}},
	}, 1))

	summary, err := u.OnComplete(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), summary.Rows)
	assert.Equal(t, filepath.Join(dir, "unspent-0-1.csv"), summary.Path)
}

func TestFormatBTC(t *testing.T) {
	assert.Equal(t, "50.00000000", FormatBTC(5_000_000_000))
	assert.Equal(t, "0.00000001", FormatBTC(1))
	assert.Equal(t, "0.00000000", FormatBTC(0))
}
