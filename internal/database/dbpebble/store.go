package dbpebble

import (
	"context"
	"io"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/pebble"

	"github.com/setavenger/utxo-dump/internal/database"
	"github.com/setavenger/utxo-dump/internal/logging"
)

// Store keeps the ledger in pebble. Inside a block all writes go into one
// indexed batch so later transactions of the block see earlier outputs.
type Store struct {
	DB      *pebble.DB
	dbBatch *pebble.Batch
	height  uint64
}

func NewStore(db *pebble.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) BeginBlock(_ context.Context, height uint64) error {
	if s.dbBatch != nil {
		return database.StoreErr(errors.New("batch already open"), "begin block %d", height)
	}
	s.dbBatch = s.DB.NewIndexedBatch()
	s.height = height
	return nil
}

func (s *Store) CommitBlock(_ context.Context) error {
	if s.dbBatch == nil {
		return database.StoreErr(errors.New("no batch open"), "commit")
	}
	defer s.closeBatch()

	writeBatchStart := time.Now()
	err := s.dbBatch.Commit(pebble.NoSync)
	if err != nil {
		return database.StoreErr(err, "commit block %d", s.height)
	}
	logging.L.Trace().
		Uint64("height", s.height).
		Dur("write_batch_duration", time.Since(writeBatchStart)).
		Msg("batch written")
	return nil
}

func (s *Store) RollbackBlock() error {
	s.closeBatch()
	return nil
}

func (s *Store) closeBatch() {
	if s.dbBatch == nil {
		return
	}
	if err := s.dbBatch.Close(); err != nil {
		logging.L.Err(err).Msg("failed to close db batch")
	}
	s.dbBatch = nil
}

func (s *Store) exists(key []byte) (bool, error) {
	var (
		closer io.Closer
		err    error
	)
	if s.dbBatch != nil {
		_, closer, err = s.dbBatch.Get(key)
	} else {
		_, closer, err = s.DB.Get(key)
	}
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, closer.Close()
}

func (s *Store) DeleteMany(_ context.Context, keys []string) (int, error) {
	var deleted int
	for _, key := range keys {
		k := KeyUnspent(key)
		ok, err := s.exists(k)
		if err != nil {
			return deleted, database.StoreErr(err, "lookup %s", key)
		}
		if !ok {
			continue
		}
		if s.dbBatch != nil {
			err = s.dbBatch.Delete(k, nil)
		} else {
			err = s.DB.Delete(k, pebble.NoSync)
		}
		if err != nil {
			return deleted, database.StoreErr(err, "delete %s", key)
		}
		deleted++
	}
	return deleted, nil
}

func (s *Store) Upsert(_ context.Context, key string, value []byte) error {
	k := KeyUnspent(key)
	if ok, err := s.exists(k); err != nil {
		return database.StoreErr(err, "lookup %s", key)
	} else if ok {
		logging.L.Warn().Str("key", key).Msg("overwrote existing ledger entry")
	}

	var err error
	if s.dbBatch != nil {
		err = s.dbBatch.Set(k, value, nil)
	} else {
		err = s.DB.Set(k, value, pebble.NoSync)
	}
	if err != nil {
		return database.StoreErr(err, "set %s", key)
	}
	return nil
}

func (s *Store) ScanAll(_ context.Context) (database.Iterator, error) {
	if s.dbBatch != nil {
		return nil, database.StoreErr(errors.New("batch still open"), "scan")
	}
	lb, ub := BoundsUnspent()
	it, err := s.DB.NewIter(&pebble.IterOptions{LowerBound: lb, UpperBound: ub})
	if err != nil {
		return nil, database.StoreErr(err, "new iterator")
	}
	return &iterator{it: it}, nil
}

func (s *Store) Close() error {
	s.closeBatch()
	if err := s.DB.Flush(); err != nil {
		logging.L.Err(err).Msg("failed flushing pebble")
	}
	return s.DB.Close()
}

type iterator struct {
	it      *pebble.Iterator
	started bool
}

func (i *iterator) Next() bool {
	if !i.started {
		i.started = true
		return i.it.First()
	}
	return i.it.Next()
}

func (i *iterator) Key() string   { return string(i.it.Key()[1:]) }
func (i *iterator) Value() []byte { return i.it.Value() }
func (i *iterator) Err() error    { return database.StoreErr(i.it.Error(), "pebble iterate") }
func (i *iterator) Close() error  { return i.it.Close() }
