// database defines the interfaces for the ledger stores
package database

import (
	"context"

	"github.com/cockroachdb/errors"
)

var (
	// ErrConnection marks a store that could not be reached at startup.
	ErrConnection = errors.New("store connection failed")
	// ErrStore marks a failed delete, upsert, scan or commit during a run.
	ErrStore = errors.New("store operation failed")
)

// Store is the capability set every ledger backend offers.
type Store interface {
	// DeleteMany removes the given keys and returns how many were present.
	// An empty batch is a no-op.
	DeleteMany(ctx context.Context, keys []string) (int, error)
	// Upsert writes value under key, overwriting an existing value.
	Upsert(ctx context.Context, key string, value []byte) error
	// ScanAll iterates the whole ledger in the backend's native order.
	// Must not run while blocks are still being applied.
	ScanAll(ctx context.Context) (Iterator, error)
	Close() error
}

// BlockScoped is implemented by stores that can apply one block atomically.
// Between BeginBlock and CommitBlock all DeleteMany and Upsert calls are staged.
type BlockScoped interface {
	BeginBlock(ctx context.Context, height uint64) error
	CommitBlock(ctx context.Context) error
	RollbackBlock() error
}

// Iterator walks key/value pairs. Value is only valid until the next call to Next.
type Iterator interface {
	Next() bool
	Key() string
	Value() []byte
	Err() error
	Close() error
}

// StoreErr wraps err and marks it as ErrStore.
func StoreErr(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrapf(err, format, args...), ErrStore)
}

// ConnectionErr wraps err and marks it as ErrConnection.
func ConnectionErr(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrapf(err, format, args...), ErrConnection)
}
