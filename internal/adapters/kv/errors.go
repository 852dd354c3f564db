package kv

import "errors"

// Sentinel kinds for key-value errors.
var (
	ErrNotFound       = errors.New("key not found")
	ErrUnknownBackend = errors.New("unknown kv backend")
	ErrNotInteger     = errors.New("hash value is not an integer")
)
