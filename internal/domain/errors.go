package domain

import "errors"

// Sentinel errors for the engine's error taxonomy. Insufficient indicator
// data is deliberately absent: it is represented as invalid Opt fields, not
// as an error, because partial analysis beats total failure.
var (
	// ErrDataSourceUnavailable wraps market data vendor failures. The
	// engine contains it: the affected ticker gets a PASS decision with
	// "data unavailable" reasoning instead of a propagated error.
	ErrDataSourceUnavailable = errors.New("market data source unavailable")

	// ErrRetrievalTimeout marks an aborted similarity retrieval. Callers
	// degrade to an empty historical context, never fail the evaluation.
	ErrRetrievalTimeout = errors.New("historical context retrieval timed out")

	// ErrInvalidConfig is raised eagerly at construction time and is fatal.
	ErrInvalidConfig = errors.New("invalid engine configuration")
)
