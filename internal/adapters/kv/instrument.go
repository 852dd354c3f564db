package kv

import (
	"context"
	"errors"
	"time"

	"github.com/okian/skillhub/pkg/metrics"
)

// instrumented records latency and errors for every call of the wrapped store.
type instrumented struct {
	next Store
}

// Instrument wraps s so every operation reports to pkg/metrics.
func Instrument(s Store) Store {
	if s == nil {
		return nil
	}
	return &instrumented{next: s}
}

func (i *instrumented) observe(op string, start time.Time, err error) {
	backend := i.next.Name()
	metrics.RecordKVOperation(backend, op, float64(time.Since(start).Microseconds())/1000.0)
	if err != nil && !errors.Is(err, ErrNotFound) {
		metrics.RecordKVError(backend, op)
	}
}

func (i *instrumented) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	v, err := i.next.Get(ctx, key)
	i.observe("get", start, err)
	return v, err
}

func (i *instrumented) MGet(ctx context.Context, keys ...string) ([][]byte, error) {
	start := time.Now()
	v, err := i.next.MGet(ctx, keys...)
	i.observe("mget", start, err)
	return v, err
}

func (i *instrumented) Set(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	err := i.next.Set(ctx, key, value)
	i.observe("set", start, err)
	return err
}

func (i *instrumented) Swap(ctx context.Context, key string, value []byte) ([]byte, error) {
	start := time.Now()
	v, err := i.next.Swap(ctx, key, value)
	i.observe("swap", start, err)
	return v, err
}

func (i *instrumented) Del(ctx context.Context, keys ...string) error {
	start := time.Now()
	err := i.next.Del(ctx, keys...)
	i.observe("del", start, err)
	return err
}

func (i *instrumented) Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	start := time.Now()
	keys, next, err := i.next.Scan(ctx, cursor, match, count)
	i.observe("scan", start, err)
	return keys, next, err
}

func (i *instrumented) HIncrBy(ctx context.Context, key string, deltas map[string]int64) (map[string]int64, error) {
	start := time.Now()
	v, err := i.next.HIncrBy(ctx, key, deltas)
	i.observe("hincrby", start, err)
	return v, err
}

func (i *instrumented) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	start := time.Now()
	v, err := i.next.HGetAll(ctx, key)
	i.observe("hgetall", start, err)
	return v, err
}

func (i *instrumented) Ping(ctx context.Context) error {
	start := time.Now()
	err := i.next.Ping(ctx)
	i.observe("ping", start, err)
	return err
}

func (i *instrumented) Close() error { return i.next.Close() }
func (i *instrumented) Name() string { return i.next.Name() }
