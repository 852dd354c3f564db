package kv

import (
	"context"
	"path"
	"sort"
	"strconv"
	"sync"
)

// MemoryStore keeps everything in process memory. It backs tests and the
// "memory" backend for local runs; contents vanish on restart.
type MemoryStore struct {
	mu     sync.Mutex
	values map[string][]byte
	hashes map[string]map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string][]byte),
		hashes: make(map[string]map[string]string),
	}
}

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(v), nil
}

func (m *MemoryStore) MGet(_ context.Context, keys ...string) ([][]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]byte, len(keys))
	for i, k := range keys {
		if v, ok := m.values[k]; ok {
			out[i] = clone(v)
		}
	}
	return out, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = clone(value)
	return nil
}

func (m *MemoryStore) Swap(_ context.Context, key string, value []byte) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.values[key]
	m.values[key] = clone(value)
	if !ok {
		return nil, nil
	}
	return old, nil
}

func (m *MemoryStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
		delete(m.hashes, k)
	}
	return nil
}

func (m *MemoryStore) Scan(_ context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	if match == "" {
		match = "*"
	}
	if count <= 0 {
		count = 10
	}

	m.mu.Lock()
	all := make([]string, 0, len(m.values)+len(m.hashes))
	for k := range m.values {
		all = append(all, k)
	}
	for k := range m.hashes {
		all = append(all, k)
	}
	m.mu.Unlock()

	sort.Strings(all)
	var matched []string
	for _, k := range all {
		if ok, _ := path.Match(match, k); ok {
			matched = append(matched, k)
		}
	}
	return page(matched, cursor, count)
}

func (m *MemoryStore) HIncrBy(_ context.Context, key string, deltas map[string]int64) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.hashes[key]
	if h == nil {
		h = make(map[string]string)
	}
	next := make(map[string]string, len(deltas))
	for field, delta := range deltas {
		cur := int64(0)
		if raw, ok := h[field]; ok {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return nil, ErrNotInteger
			}
			cur = n
		}
		next[field] = strconv.FormatInt(cur+delta, 10)
	}
	for f, v := range next {
		h[f] = v
	}
	m.hashes[key] = h
	return intFields(h), nil
}

func (m *MemoryStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]string, len(m.hashes[key]))
	for f, v := range m.hashes[key] {
		out[f] = v
	}
	return out, nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }
func (m *MemoryStore) Close() error               { return nil }
func (m *MemoryStore) Name() string               { return "memory" }

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// page slices an ordered key list with an offset cursor.
func page(keys []string, cursor uint64, count int64) ([]string, uint64, error) {
	start := int(cursor)
	if start >= len(keys) {
		return nil, 0, nil
	}
	end := start + int(count)
	if end >= len(keys) {
		return keys[start:], 0, nil
	}
	return keys[start:end], uint64(end), nil
}

// intFields keeps the fields of h that parse as integers.
func intFields(h map[string]string) map[string]int64 {
	out := make(map[string]int64, len(h))
	for f, raw := range h {
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			out[f] = n
		}
	}
	return out
}
