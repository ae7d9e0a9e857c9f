// Package common defines shared constants and sentinel errors used across
// ParcelTrack components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrStorage  = errors.New("storage error")

	// Caller errors. Neither is ever retried automatically.
	ErrValidation = errors.New("validation error")
	ErrForbidden  = errors.New("forbidden")

	// ErrInvalidTransition marks an illegal status change. Terminal
	// statuses (delivered, failed) accept no further transitions.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrCrypto marks a payload that is malformed or fails to
	// authenticate under the configured key. Treated as data corruption
	// and always surfaced, never swallowed.
	ErrCrypto = errors.New("crypto error")

	// ErrAuditGap marks a degraded success: the mutation was persisted
	// but the audit append failed, so the trail is missing an entry
	// until reconciliation.
	ErrAuditGap = errors.New("audit append failed after mutation")

	// Auth errors (invalid or malformed token, bad credentials).
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
