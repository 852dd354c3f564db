// Package kv is the key-value adapter shared by the catalog overlay, the rating
// aggregator and the contribution queue. Backends: Redis, SQLite and memory.
package kv

import "context"

// Store is the operation set the service needs from a key-value store. Each
// call is a single round trip; HIncrBy and Swap are atomic per key.
type Store interface {
	// Get returns the value at key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// MGet returns one entry per key in order; missing keys yield nil.
	MGet(ctx context.Context, keys ...string) ([][]byte, error)
	// Set writes value at key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Swap writes value at key and returns the previous value (nil if none).
	Swap(ctx context.Context, key string, value []byte) ([]byte, error)
	// Del removes keys of any type. Missing keys are ignored.
	Del(ctx context.Context, keys ...string) error
	// Scan returns one page of keys matching a glob pattern. A returned
	// cursor of 0 means the iteration is complete.
	Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error)

	// HIncrBy applies all deltas to the hash at key in one transaction and
	// returns every integer field of the hash afterwards.
	HIncrBy(ctx context.Context, key string, deltas map[string]int64) (map[string]int64, error)
	// HGetAll returns all fields of the hash at key (empty map if absent).
	HGetAll(ctx context.Context, key string) (map[string]string, error)

	Ping(ctx context.Context) error
	Close() error
	// Name identifies the backend in logs and metrics.
	Name() string
}

// ScanAll follows scan cursors until the iteration is exhausted.
func ScanAll(ctx context.Context, s Store, match string, count int64) ([]string, error) {
	var (
		keys   []string
		cursor uint64
	)
	for {
		batch, next, err := s.Scan(ctx, cursor, match, count)
		if err != nil {
			return nil, err
		}
		keys = append(keys, batch...)
		if next == 0 {
			return dedupe(keys), nil
		}
		cursor = next
	}
}

// dedupe drops repeated keys; Redis SCAN may return a key more than once.
func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := keys[:0]
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}
