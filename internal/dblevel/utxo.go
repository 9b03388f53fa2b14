package dblevel

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/setavenger/utxo-dump/internal/database"
	"github.com/setavenger/utxo-dump/internal/logging"
)

// unspentPrefix separates ledger entries from anything else in the same db
var unspentPrefix = []byte("u/")

func unspentKey(key string) []byte {
	k := make([]byte, len(unspentPrefix)+len(key))
	copy(k, unspentPrefix)
	copy(k[len(unspentPrefix):], key)
	return k
}

// kv is what leveldb.DB and leveldb.Transaction have in common
type kv interface {
	Has(key []byte, ro *opt.ReadOptions) (bool, error)
	Put(key, value []byte, wo *opt.WriteOptions) error
	Delete(key []byte, wo *opt.WriteOptions) error
}

// UTXOStore applies each block inside a leveldb transaction.
type UTXOStore struct {
	db     *leveldb.DB
	tr     *leveldb.Transaction
	height uint64
}

func NewUTXOStore(db *leveldb.DB) *UTXOStore {
	return &UTXOStore{db: db}
}

func (s *UTXOStore) target() kv {
	if s.tr != nil {
		return s.tr
	}
	return s.db
}

func (s *UTXOStore) BeginBlock(_ context.Context, height uint64) error {
	if s.tr != nil {
		return database.StoreErr(errors.New("transaction already open"), "begin block %d", height)
	}
	tr, err := s.db.OpenTransaction()
	if err != nil {
		return database.StoreErr(err, "begin block %d", height)
	}
	s.tr = tr
	s.height = height
	return nil
}

func (s *UTXOStore) CommitBlock(_ context.Context) error {
	if s.tr == nil {
		return database.StoreErr(errors.New("no transaction open"), "commit")
	}
	tr := s.tr
	s.tr = nil
	if err := tr.Commit(); err != nil {
		tr.Discard()
		return database.StoreErr(err, "commit block %d", s.height)
	}
	return nil
}

func (s *UTXOStore) RollbackBlock() error {
	if s.tr != nil {
		s.tr.Discard()
		s.tr = nil
	}
	return nil
}

func (s *UTXOStore) DeleteMany(_ context.Context, keys []string) (int, error) {
	var deleted int
	t := s.target()
	for _, key := range keys {
		k := unspentKey(key)
		ok, err := t.Has(k, nil)
		if err != nil {
			logging.L.Err(err).Str("key", key).Msg("error checking utxo")
			return deleted, database.StoreErr(err, "has %s", key)
		}
		if !ok {
			continue
		}
		if err = t.Delete(k, nil); err != nil {
			logging.L.Err(err).Str("key", key).Msg("error deleting utxo")
			return deleted, database.StoreErr(err, "delete %s", key)
		}
		deleted++
	}
	return deleted, nil
}

func (s *UTXOStore) Upsert(_ context.Context, key string, value []byte) error {
	t := s.target()
	k := unspentKey(key)
	if ok, err := t.Has(k, nil); err != nil {
		logging.L.Err(err).Str("key", key).Msg("error checking utxo")
		return database.StoreErr(err, "has %s", key)
	} else if ok {
		logging.L.Warn().Str("key", key).Msg("overwrote existing ledger entry")
	}
	if err := t.Put(k, value, nil); err != nil {
		logging.L.Err(err).Str("key", key).Msg("error inserting utxo")
		return database.StoreErr(err, "put %s", key)
	}
	return nil
}

func (s *UTXOStore) ScanAll(_ context.Context) (database.Iterator, error) {
	if s.tr != nil {
		return nil, database.StoreErr(errors.New("transaction still open"), "scan")
	}
	return &levelIterator{iter: s.db.NewIterator(util.BytesPrefix(unspentPrefix), nil)}, nil
}

func (s *UTXOStore) Close() error {
	_ = s.RollbackBlock()
	err := s.db.Close()
	if err != nil {
		logging.L.Err(err).Msg("error closing utxos db")
	}
	return err
}

type levelIterator struct {
	iter iterator.Iterator
}

func (i *levelIterator) Next() bool    { return i.iter.Next() }
func (i *levelIterator) Key() string   { return string(i.iter.Key()[len(unspentPrefix):]) }
func (i *levelIterator) Value() []byte { return i.iter.Value() }

func (i *levelIterator) Err() error {
	err := i.iter.Error()
	if err != nil {
		logging.L.Err(err).Msg("error iterating over db")
	}
	return database.StoreErr(err, "leveldb iterate")
}

func (i *levelIterator) Close() error {
	i.iter.Release()
	return nil
}
