// Package dblevel keeps the ledger in a goleveldb database.
package dblevel

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/setavenger/utxo-dump/internal/database"
	"github.com/setavenger/utxo-dump/internal/logging"
)

// OpenDBConnection opens the leveldb instance at path
func OpenDBConnection(path string) (*leveldb.DB, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{
		BlockCacheCapacity: 64 * opt.MiB,
		WriteBuffer:        32 * opt.MiB,
	})
	if err != nil {
		logging.L.Err(err).Str("path", path).Msg("error opening db connection")
		return nil, database.ConnectionErr(err, "failed opening leveldb at %s", path)
	}
	return db, nil
}
