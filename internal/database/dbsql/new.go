// Package dbsql keeps the ledger in a relational table (key, encoded).
// Postgres is reached through lib/pq, sqlite through modernc.org/sqlite.
package dbsql

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/cockroachdb/errors"
	_ "github.com/lib/pq"  // driver
	_ "modernc.org/sqlite" // driver

	"github.com/setavenger/utxo-dump/internal/database"
	"github.com/setavenger/utxo-dump/internal/logging"
)

type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

func (d Dialect) String() string {
	switch d {
	case Postgres:
		return "postgres"
	case SQLite:
		return "sqlite"
	default:
		return "unknown"
	}
}

func (d Dialect) placeholder(i int) string {
	if d == Postgres {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// PostgresDSN builds the connection url from the same three settings the
// dump tools always used.
func PostgresDSN(user, host, dbName string) string {
	return fmt.Sprintf("postgres://%s@%s/%s?sslmode=disable", user, host, dbName)
}

// SQLiteDSN returns a DSN tuned for a single writer doing bulk inserts.
func SQLiteDSN(path string) string {
	return "file:" + path +
		"?_txlock=immediate" + // BEGIN IMMEDIATE-style txns
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(OFF)" +
		"&_pragma=busy_timeout(5000)"
}

// Open connects, pings and makes sure the ledger table exists.
func Open(ctx context.Context, dialect Dialect, dsn, table string) (*Store, error) {
	if !tableNameRe.MatchString(table) {
		return nil, errors.Newf("invalid table name %q", table)
	}

	db, err := sql.Open(dialect.String(), dsn)
	if err != nil {
		return nil, database.ConnectionErr(err, "failed opening %s", dialect)
	}

	if dialect == SQLite {
		// one writer, avoids SQLITE_BUSY while a block transaction is open
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err = db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, database.ConnectionErr(err, "failed reaching %s", dialect)
	}

	if _, err = db.ExecContext(pingCtx, schemaSQL(dialect, table)); err != nil {
		db.Close()
		return nil, database.ConnectionErr(err, "failed creating table %s", table)
	}

	logging.L.Info().Str("dialect", dialect.String()).Str("table", table).Msg("connected to relational store")

	return New(db, dialect, table), nil
}

func schemaSQL(dialect Dialect, table string) string {
	if dialect == Postgres {
		return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  key     TEXT PRIMARY KEY,
  encoded BYTEA NOT NULL
)`, table)
	}
	return fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  key     TEXT PRIMARY KEY,
  encoded BLOB NOT NULL
) WITHOUT ROWID`, table)
}
