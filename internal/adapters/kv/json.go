package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// GetJSON decodes the value at key into T. ok is false when the key is absent.
func GetJSON[T any](ctx context.Context, s Store, key string) (v T, ok bool, err error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return v, false, nil
	}
	if err != nil {
		return v, false, err
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false, fmt.Errorf("decode %s: %w", key, err)
	}
	return v, true, nil
}

// SetJSON encodes v and stores it at key.
func SetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}

// SwapJSON stores v at key and decodes the previous value into T.
func SwapJSON[T any](ctx context.Context, s Store, key string, v any) (prev T, ok bool, err error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return prev, false, fmt.Errorf("encode %s: %w", key, err)
	}
	old, err := s.Swap(ctx, key, raw)
	if err != nil || old == nil {
		return prev, false, err
	}
	if err := json.Unmarshal(old, &prev); err != nil {
		return prev, false, fmt.Errorf("decode previous %s: %w", key, err)
	}
	return prev, true, nil
}

// MGetJSON decodes every present value; absent keys are left out of the map.
func MGetJSON[T any](ctx context.Context, s Store, keys ...string) (map[string]T, error) {
	out := make(map[string]T, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	raws, err := s.MGet(ctx, keys...)
	if err != nil {
		return nil, err
	}
	for i, raw := range raws {
		if raw == nil {
			continue
		}
		var v T
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("decode %s: %w", keys[i], err)
		}
		out[keys[i]] = v
	}
	return out, nil
}
