package auth

import "errors"

var (
	// ErrUnauthorized means the credential is missing, wrong or expired.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotConfigured means no admin secret is set, so nobody can log in.
	ErrNotConfigured = errors.New("admin not configured")
)
