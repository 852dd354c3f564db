package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS kv (
    key   TEXT PRIMARY KEY,
    value BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS kv_hash (
    key   TEXT NOT NULL,
    field TEXT NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY (key, field)
);
`

// SQLiteStore implements Store on a single SQLite file. All access goes
// through one connection, so every multi-statement operation is serialised.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at path and runs migrations.
// Use ":memory:" for a throwaway database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

type kvRow struct {
	Key   string `db:"key"`
	Value []byte `db:"value"`
}

type hashRow struct {
	Field string `db:"field"`
	Value string `db:"value"`
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var v []byte
	err := s.db.GetContext(ctx, &v, `SELECT value FROM kv WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return v, nil
}

func (s *SQLiteStore) MGet(ctx context.Context, keys ...string) ([][]byte, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(`SELECT key, value FROM kv WHERE key IN (?)`, keys)
	if err != nil {
		return nil, fmt.Errorf("mget: %w", err)
	}
	var rows []kvRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("mget: %w", err)
	}
	byKey := make(map[string][]byte, len(rows))
	for _, r := range rows {
		byKey[r.Key] = r.Value
	}
	out := make([][]byte, len(keys))
	for i, k := range keys {
		out[i] = byKey[k]
	}
	return out, nil
}

const upsertKV = `
	INSERT INTO kv (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value
`

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	if _, err := s.db.ExecContext(ctx, upsertKV, key, value); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Swap(ctx context.Context, key string, value []byte) ([]byte, error) {
	var old []byte
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &old, `SELECT value FROM kv WHERE key = ?`, key)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		_, err = tx.ExecContext(ctx, upsertKV, key, value)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("swap %s: %w", key, err)
	}
	return old, nil
}

func (s *SQLiteStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		for _, table := range []string{"kv", "kv_hash"} {
			query, args, err := sqlx.In(`DELETE FROM `+table+` WHERE key IN (?)`, keys)
			if err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("del: %w", err)
	}
	return nil
}

// Scan uses the row offset as cursor. Redis MATCH patterns and SQLite GLOB
// share the same wildcard syntax.
func (s *SQLiteStore) Scan(ctx context.Context, cursor uint64, match string, count int64) ([]string, uint64, error) {
	if match == "" {
		match = "*"
	}
	if count <= 0 {
		count = 10
	}
	var keys []string
	err := s.db.SelectContext(ctx, &keys, `
		SELECT key FROM (SELECT key FROM kv UNION SELECT key FROM kv_hash)
		WHERE key GLOB ?
		ORDER BY key
		LIMIT ? OFFSET ?
	`, match, count, cursor)
	if err != nil {
		return nil, 0, fmt.Errorf("scan %s: %w", match, err)
	}
	if int64(len(keys)) < count {
		return keys, 0, nil
	}
	return keys, cursor + uint64(len(keys)), nil
}

func (s *SQLiteStore) HIncrBy(ctx context.Context, key string, deltas map[string]int64) (map[string]int64, error) {
	var rows []hashRow
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		for field, delta := range deltas {
			var raw string
			err := tx.GetContext(ctx, &raw, `SELECT value FROM kv_hash WHERE key = ? AND field = ?`, key, field)
			cur := int64(0)
			switch {
			case errors.Is(err, sql.ErrNoRows):
			case err != nil:
				return err
			default:
				if cur, err = strconv.ParseInt(raw, 10, 64); err != nil {
					return ErrNotInteger
				}
			}
			if _, err := tx.ExecContext(ctx, upsertHash, key, field, strconv.FormatInt(cur+delta, 10)); err != nil {
				return err
			}
		}
		return tx.SelectContext(ctx, &rows, `SELECT field, value FROM kv_hash WHERE key = ?`, key)
	})
	if err != nil {
		return nil, fmt.Errorf("hincrby %s: %w", key, err)
	}
	return intFields(rowsToMap(rows)), nil
}

func (s *SQLiteStore) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	var rows []hashRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT field, value FROM kv_hash WHERE key = ?`, key); err != nil {
		return nil, fmt.Errorf("hgetall %s: %w", key, err)
	}
	return rowsToMap(rows), nil
}

const upsertHash = `
	INSERT INTO kv_hash (key, field, value) VALUES (?, ?, ?)
	ON CONFLICT(key, field) DO UPDATE SET value = excluded.value
`

func (s *SQLiteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
func (s *SQLiteStore) Close() error                   { return s.db.Close() }
func (s *SQLiteStore) Name() string                   { return "sqlite" }

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func rowsToMap(rows []hashRow) map[string]string {
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Field] = r.Value
	}
	return out
}
