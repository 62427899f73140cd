package exception

import "errors"

// Hit statistics errors
var (
	// ErrInvalidIdentity is returned when a raw player id cannot be normalized.
	ErrInvalidIdentity = errors.New("stats: invalid identity")

	// ErrValidationRejected marks an event dropped by the pipeline filter.
	ErrValidationRejected = errors.New("stats: validation rejected")

	// ErrNegativeDamage is returned when a hit carries a negative damage delta.
	ErrNegativeDamage = errors.New("stats: negative damage")

	// ErrBackendNotConfigured is returned at startup when no backend location is supplied.
	ErrBackendNotConfigured = errors.New("stats: backend not configured")

	// ErrBackendUnavailable is returned when the store cannot serve a write.
	ErrBackendUnavailable = errors.New("stats: backend unavailable")

	// ErrSchemaMissing is returned when the hits table does not exist.
	ErrSchemaMissing = errors.New("stats: schema missing")

	// ErrInvalidTableName is returned when the configured base table name is not a plain identifier.
	ErrInvalidTableName = errors.New("stats: invalid table name")

	// ErrStatsNotFound is returned when no row exists for an identity.
	ErrStatsNotFound = errors.New("stats: not found")
)
