// Package dbredis keeps the ledger as fields of one redis hash.
// There is no atomicity across keys: every delete and set is its own call.
package dbredis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/setavenger/utxo-dump/internal/database"
	"github.com/setavenger/utxo-dump/internal/logging"
)

// DefaultHash is the hash the ledger lives in unless configured otherwise.
const DefaultHash = "bitcoin_unspent"

// scanCount is the HSCAN COUNT hint.
const scanCount = 1000

type Store struct {
	rdb  redis.Cmdable
	hash string
	// closer is nil for clients handed in by the caller
	closer interface{ Close() error }
}

// Open parses a redis:// url, connects and logs the server version.
func Open(ctx context.Context, redisURL, hash string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, database.ConnectionErr(err, "invalid redis url")
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err = client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, database.ConnectionErr(err, "failed reaching redis at %s", opts.Addr)
	}

	version := serverVersion(pingCtx, client)
	logging.L.Info().
		Str("addr", opts.Addr).
		Str("version", version).
		Str("hash", hash).
		Msg("connected to redis")

	s := New(client, hash)
	s.closer = client
	return s, nil
}

func New(rdb redis.Cmdable, hash string) *Store {
	return &Store{rdb: rdb, hash: hash}
}

func serverVersion(ctx context.Context, client *redis.Client) string {
	info, err := client.InfoMap(ctx, "server").Result()
	if err != nil {
		return "unknown"
	}
	if v, ok := info["Server"]["redis_version"]; ok {
		return v
	}
	return "unknown"
}

// DeleteMany issues one HDEL per key. On failure the keys before the failing one
// are already gone and the returned count reflects that.
func (s *Store) DeleteMany(ctx context.Context, keys []string) (int, error) {
	var deleted int
	for _, key := range keys {
		n, err := s.rdb.HDel(ctx, s.hash, key).Result()
		if err != nil {
			return deleted, database.StoreErr(err, "hdel %s (after %d deletions)", key, deleted)
		}
		deleted += int(n)
	}
	return deleted, nil
}

func (s *Store) Upsert(ctx context.Context, key string, value []byte) error {
	added, err := s.rdb.HSet(ctx, s.hash, key, value).Result()
	if err != nil {
		return database.StoreErr(err, "hset %s", key)
	}
	if added == 0 {
		logging.L.Warn().Str("key", key).Msg("overwrote existing ledger entry")
	}
	return nil
}

func (s *Store) ScanAll(ctx context.Context) (database.Iterator, error) {
	return &hashIterator{
		iter: s.rdb.HScan(ctx, s.hash, 0, "", scanCount).Iterator(),
		ctx:  ctx,
	}, nil
}

// Len returns the number of ledger entries.
func (s *Store) Len(ctx context.Context) (int64, error) {
	n, err := s.rdb.HLen(ctx, s.hash).Result()
	if err != nil {
		return 0, database.StoreErr(err, "hlen")
	}
	return n, nil
}

func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// hashIterator turns the flat field, value, field, value stream of HSCAN into pairs.
// HSCAN may return a field more than once if the hash is rehashed during the scan,
// which can not happen here as nothing writes while scanning.
type hashIterator struct {
	iter  *redis.ScanIterator
	ctx   context.Context
	key   string
	value []byte
	err   error
}

func (it *hashIterator) Next() bool {
	if it.err != nil || !it.iter.Next(it.ctx) {
		return false
	}
	it.key = it.iter.Val()
	if !it.iter.Next(it.ctx) {
		it.err = it.iter.Err()
		if it.err == nil {
			it.err = errOddScan
		}
		return false
	}
	it.value = []byte(it.iter.Val())
	return true
}

func (it *hashIterator) Key() string   { return it.key }
func (it *hashIterator) Value() []byte { return it.value }

func (it *hashIterator) Err() error {
	if it.err != nil {
		return database.StoreErr(it.err, "hscan")
	}
	return database.StoreErr(it.iter.Err(), "hscan")
}

func (it *hashIterator) Close() error { return nil }
