package kv

import (
	"context"
	"fmt"

	"github.com/okian/skillhub/internal/config"
)

// Open builds the store selected by cfg. It returns a nil Store and no error
// when no backend is configured; callers treat that as "persistence off".
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Backend() {
	case config.BackendNone:
		return nil, nil
	case config.BackendMemory:
		s = NewMemoryStore()
	case config.BackendRedis:
		s, err = NewRedisStore(ctx, RedisConfig{
			URL:      cfg.RedisURL,
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	case config.BackendSQLite:
		s, err = NewSQLiteStore(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.KVBackend)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(s), nil
}
