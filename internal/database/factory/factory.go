// Package factory builds the configured ledger store.
package factory

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/setavenger/utxo-dump/internal/config"
	"github.com/setavenger/utxo-dump/internal/database"
	"github.com/setavenger/utxo-dump/internal/database/dbmemory"
	"github.com/setavenger/utxo-dump/internal/database/dbpebble"
	"github.com/setavenger/utxo-dump/internal/database/dbredis"
	"github.com/setavenger/utxo-dump/internal/database/dbsql"
	"github.com/setavenger/utxo-dump/internal/dblevel"
	"github.com/setavenger/utxo-dump/internal/logging"
)

// OpenStore connects to backend with the settings from the config package.
// Any failure is marked database.ErrConnection.
func OpenStore(ctx context.Context, backend string) (database.Store, error) {
	logging.L.Info().Str("backend", backend).Msg("opening store")

	switch backend {
	case config.BackendRedis:
		return dbredis.Open(ctx, config.RedisURL, config.RedisHash)

	case config.BackendPostgres:
		dsn := dbsql.PostgresDSN(config.PostgresUser, config.PostgresHost, config.PostgresDB)
		return dbsql.Open(ctx, dbsql.Postgres, dsn, config.SQLTable)

	case config.BackendSQLite:
		if err := ensureParent(config.SQLitePath); err != nil {
			return nil, err
		}
		return dbsql.Open(ctx, dbsql.SQLite, dbsql.SQLiteDSN(config.SQLitePath), config.SQLTable)

	case config.BackendPebble:
		path := config.KVPathFor(backend)
		if err := ensureDir(path); err != nil {
			return nil, err
		}
		db, err := dbpebble.OpenDB(path)
		if err != nil {
			return nil, err
		}
		return dbpebble.NewStore(db), nil

	case config.BackendLevelDB:
		path := config.KVPathFor(backend)
		if err := ensureDir(path); err != nil {
			return nil, err
		}
		db, err := dblevel.OpenDBConnection(path)
		if err != nil {
			return nil, err
		}
		return dblevel.NewUTXOStore(db), nil

	case config.BackendMemory:
		logging.L.Warn().Msg("memory backend selected, the ledger is lost on exit")
		return dbmemory.New(), nil

	default:
		return nil, database.ConnectionErr(errors.Newf("backend %q unknown", backend), "open store")
	}
}

func ensureDir(path string) error {
	if err := os.MkdirAll(path, 0750); err != nil {
		return database.ConnectionErr(err, "failed creating %s", path)
	}
	return nil
}

func ensureParent(path string) error {
	return ensureDir(filepath.Dir(path))
}
