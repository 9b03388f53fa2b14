package dbsql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/setavenger/utxo-dump/internal/database"
	"github.com/setavenger/utxo-dump/internal/logging"
)

// maxDeleteParams keeps a single DELETE well below the postgres bind limit.
const maxDeleteParams = 1000

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Store implements database.Store and database.BlockScoped.
type Store struct {
	db      *sql.DB
	dialect Dialect
	table   string

	// per block state, nil outside BeginBlock/CommitBlock
	tx     *sql.Tx
	insert *sql.Stmt
	height uint64
}

func New(db *sql.DB, dialect Dialect, table string) *Store {
	return &Store{db: db, dialect: dialect, table: table}
}

func (s *Store) upsertSQL() string {
	return fmt.Sprintf(
		"INSERT INTO %s (key, encoded) VALUES (%s, %s) ON CONFLICT (key) DO UPDATE SET encoded = excluded.encoded",
		s.table, s.dialect.placeholder(1), s.dialect.placeholder(2),
	)
}

func (s *Store) deleteSQL(n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "DELETE FROM %s WHERE key IN (", s.table)
	for i := 1; i <= n; i++ {
		if i > 1 {
			b.WriteString(", ")
		}
		b.WriteString(s.dialect.placeholder(i))
	}
	b.WriteString(")")
	return b.String()
}

func (s *Store) conn() execer {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// BeginBlock opens the transaction all writes of one block go through.
func (s *Store) BeginBlock(ctx context.Context, height uint64) error {
	if s.tx != nil {
		return database.StoreErr(errors.New("block transaction already open"), "begin block %d", height)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return database.StoreErr(err, "begin block %d", height)
	}

	insert, err := tx.PrepareContext(ctx, s.upsertSQL())
	if err != nil {
		_ = tx.Rollback()
		return database.StoreErr(err, "prepare insert for block %d", height)
	}

	s.tx = tx
	s.insert = insert
	s.height = height
	return nil
}

func (s *Store) CommitBlock(ctx context.Context) error {
	if s.tx == nil {
		return database.StoreErr(errors.New("no block transaction open"), "commit")
	}
	defer s.reset()

	err := s.tx.Commit()
	if err != nil {
		return database.StoreErr(err, "commit block %d", s.height)
	}
	logging.L.Trace().Uint64("height", s.height).Msg("block committed")
	return nil
}

func (s *Store) RollbackBlock() error {
	if s.tx == nil {
		return nil
	}
	defer s.reset()

	err := s.tx.Rollback()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return database.StoreErr(err, "rollback block %d", s.height)
	}
	return nil
}

func (s *Store) reset() {
	if s.insert != nil {
		_ = s.insert.Close()
	}
	s.tx = nil
	s.insert = nil
}

func (s *Store) DeleteMany(ctx context.Context, keys []string) (int, error) {
	if len(keys) == 0 {
		return 0, nil
	}

	var deleted int
	for start := 0; start < len(keys); start += maxDeleteParams {
		end := min(start+maxDeleteParams, len(keys))
		chunk := keys[start:end]

		args := make([]any, len(chunk))
		for i, k := range chunk {
			args[i] = k
		}

		res, err := s.conn().ExecContext(ctx, s.deleteSQL(len(chunk)), args...)
		if err != nil {
			return deleted, database.StoreErr(err, "batch delete of %d keys", len(chunk))
		}
		n, err := res.RowsAffected()
		if err != nil {
			return deleted, database.StoreErr(err, "rows affected")
		}
		deleted += int(n)
	}

	return deleted, nil
}

func (s *Store) Upsert(ctx context.Context, key string, value []byte) error {
	var err error
	if s.insert != nil {
		_, err = s.insert.ExecContext(ctx, key, value)
	} else {
		_, err = s.db.ExecContext(ctx, s.upsertSQL(), key, value)
	}
	if err != nil {
		return database.StoreErr(err, "upsert %s", key)
	}
	return nil
}

func (s *Store) ScanAll(ctx context.Context) (database.Iterator, error) {
	if s.tx != nil {
		return nil, database.StoreErr(errors.New("block transaction still open"), "scan")
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT key, encoded FROM %s", s.table))
	if err != nil {
		return nil, database.StoreErr(err, "select all from %s", s.table)
	}
	return &rowIterator{rows: rows}, nil
}

func (s *Store) Close() error {
	if err := s.RollbackBlock(); err != nil {
		logging.L.Err(err).Msg("failed rolling back open block on close")
	}
	return s.db.Close()
}

type rowIterator struct {
	rows  *sql.Rows
	key   string
	value []byte
	err   error
}

func (it *rowIterator) Next() bool {
	if it.err != nil || !it.rows.Next() {
		return false
	}
	if err := it.rows.Scan(&it.key, &it.value); err != nil {
		it.err = err
		return false
	}
	return true
}

func (it *rowIterator) Key() string   { return it.key }
func (it *rowIterator) Value() []byte { return it.value }

func (it *rowIterator) Err() error {
	if it.err != nil {
		return database.StoreErr(it.err, "scan row")
	}
	return database.StoreErr(it.rows.Err(), "iterate rows")
}

func (it *rowIterator) Close() error {
	return it.rows.Close()
}
