package fscatalog

import "errors"

var (
	// ErrMalformedMeta marks a metadata document that exists but does not parse.
	ErrMalformedMeta = errors.New("malformed skill metadata")
	ErrNoRoot        = errors.New("skills directory not found")
)
