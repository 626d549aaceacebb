package gdd

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrModelNotFound is returned when a model ID does not exist.
	ErrModelNotFound = errors.New("gdd model not found")

	// ErrResetNotFound is returned when a reset ID does not exist for the
	// model it was requested under.
	ErrResetNotFound = errors.New("reset not found")

	// ErrNoApplicableParameters means the timeline has no version effective
	// on or before a requested date. Given the first-version-at-start-date
	// invariant this indicates corrupted data, not a user mistake.
	ErrNoApplicableParameters = errors.New("no applicable parameter version")

	// ErrInvalidResetDate is returned for a manual reset dated before the
	// current run's start or outside the computed range.
	ErrInvalidResetDate = errors.New("invalid reset date")

	// ErrDuplicateResetDate is returned when a reset already exists on the
	// requested date.
	ErrDuplicateResetDate = errors.New("a reset already exists on this date")

	// ErrConflict is returned when the per-model lock cannot be acquired
	// within the bounded wait. Callers should retry.
	ErrConflict = errors.New("model is being recalculated; try again")
)

// ValidationError rejects malformed input before any recompute is attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// DataGapError aborts a recompute when weather data is missing for one or
// more dates inside the computed range. No partial results are persisted.
type DataGapError struct {
	From time.Time
	To   time.Time
}

func (e *DataGapError) Error() string {
	if e.From.Equal(e.To) {
		return fmt.Sprintf("missing weather data for %s", e.From.Format("2006-01-02"))
	}
	return fmt.Sprintf("missing weather data for %s through %s",
		e.From.Format("2006-01-02"), e.To.Format("2006-01-02"))
}

// UpstreamError wraps a failed or timed-out weather read so it surfaces as
// an explicit upstream failure rather than an empty series.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("weather source unavailable: %v", e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
