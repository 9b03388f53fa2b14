// Package dbmemory is a map backed ledger store for dry runs and tests.
// Nothing survives the process.
package dbmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/setavenger/utxo-dump/internal/database"
)

type Memory struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func New() *Memory {
	return &Memory{entries: make(map[string][]byte)}
}

func (m *Memory) DeleteMany(_ context.Context, keys []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int
	for _, k := range keys {
		if _, ok := m.entries[k]; ok {
			delete(m.entries, k)
			deleted++
		}
	}
	return deleted, nil
}

func (m *Memory) Upsert(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := make([]byte, len(value))
	copy(v, value)
	m.entries[key] = v
	return nil
}

// ScanAll iterates a copy of the entries in key order.
func (m *Memory) ScanAll(_ context.Context) (database.Iterator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([][]byte, len(keys))
	for i, k := range keys {
		values[i] = m.entries[k]
	}
	return &iterator{keys: keys, values: values, pos: -1}, nil
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Get is used by tests to inspect single entries.
func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.entries[key]
	return v, ok
}

func (m *Memory) Close() error { return nil }

type iterator struct {
	keys   []string
	values [][]byte
	pos    int
}

func (it *iterator) Next() bool {
	it.pos++
	return it.pos < len(it.keys)
}

func (it *iterator) Key() string   { return it.keys[it.pos] }
func (it *iterator) Value() []byte { return it.values[it.pos] }
func (it *iterator) Err() error    { return nil }
func (it *iterator) Close() error  { return nil }
