package service

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to callers. The HTTP layer maps each to a status code.
var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("storage not configured")
)

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}
