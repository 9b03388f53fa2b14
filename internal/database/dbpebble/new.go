package dbpebble

import (
	"github.com/cockroachdb/pebble"

	"github.com/setavenger/utxo-dump/internal/database"
)

func OpenDB(path string) (*pebble.DB, error) {
	opts := (&pebble.Options{}).EnsureDefaults()
	opts.Cache = pebble.NewCache(512 << 20) // 512 MiB cache
	defer opts.Cache.Unref()
	opts.BytesPerSync = 1 << 22 // smoother background flushes

	opts.MaxConcurrentCompactions = func() int { return 4 }

	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, database.ConnectionErr(err, "failed opening pebble at %s", path)
	}
	return db, nil
}
