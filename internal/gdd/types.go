// Package gdd implements the growing-degree-day accumulation core: the
// parameter timeline, the run/reset state machine, and the deterministic
// recalculation engine that regenerates a model's full value history.
package gdd

import (
	"context"
	"time"
)

// TempUnit is the temperature unit a model accumulates in. All math is done
// in the model's native unit; conversion is a display concern.
type TempUnit string

const (
	TempUnitC TempUnit = "C"
	TempUnitF TempUnit = "F"
)

// ResetType distinguishes how a run boundary came to exist.
type ResetType string

const (
	// ResetInitial marks the implicit reset at a model's start date.
	ResetInitial ResetType = "initial"
	// ResetManual is an explicit user action.
	ResetManual ResetType = "manual"
	// ResetThreshold is generated when a run's cumulative GDD reaches the
	// configured threshold. Threshold resets are derived data: they are
	// regenerated on every recompute and never read back as input.
	ResetThreshold ResetType = "threshold"
)

// Model is the computation-relevant view of a GDD model. BaseTemp,
// Threshold and ResetOnThreshold mirror the latest parameter version for
// display; the engine itself resolves parameters through the timeline.
type Model struct {
	ID               int
	LocationID       int
	Name             string
	Unit             TempUnit
	StartDate        time.Time
	BaseTemp         float64
	Threshold        float64
	ResetOnThreshold bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ParameterVersion is a dated snapshot of a model's parameters, effective
// from EffectiveFrom forward until superseded by a later version.
type ParameterVersion struct {
	BaseTemp         float64
	Threshold        float64
	ResetOnThreshold bool
	EffectiveFrom    time.Time
	CreatedAt        time.Time
}

// WeatherDay is one day of mean temperature for a location, already in the
// unit of the model being computed.
type WeatherDay struct {
	Date     time.Time
	MeanTemp float64
	Forecast bool
}

// DailyValue is one computed day. Entirely derived: every recompute replaces
// the full set.
type DailyValue struct {
	Date          time.Time
	DailyGDD      float64
	CumulativeGDD float64
	Run           int
	Forecast      bool
}

// Reset is a run boundary. RunNumber is the number of the run the reset
// starts.
type Reset struct {
	ID        int
	RunNumber int
	Date      time.Time
	Type      ResetType
	CreatedAt time.Time
}

// Run is a contiguous span of dates sharing one run number. EndDate is the
// zero time while the run is still open.
type Run struct {
	Number    int
	StartDate time.Time
	EndDate   time.Time
}

// Result is the complete replacement output of one recompute.
type Result struct {
	Values []DailyValue
	Runs   []Run
	Resets []Reset
}

// ModelStore is the persistence boundary for models and their computed
// state. Implementations must make ReplaceComputed atomic: a failed write
// leaves the previously persisted history untouched.
type ModelStore interface {
	CreateModel(ctx context.Context, m *Model) error
	GetModel(ctx context.Context, id int) (Model, error)
	UpdateModel(ctx context.Context, m *Model) error
	ListModels(ctx context.Context) ([]Model, error)
	ListModelsByLocation(ctx context.Context, locationID int) ([]Model, error)
	DeleteModel(ctx context.Context, id int) error

	ParameterVersions(ctx context.Context, modelID int) ([]ParameterVersion, error)
	SaveParameterVersion(ctx context.Context, modelID int, v ParameterVersion) error

	Resets(ctx context.Context, modelID int) ([]Reset, error)
	GetReset(ctx context.Context, modelID, resetID int) (Reset, error)
	SaveReset(ctx context.Context, modelID int, r Reset) error
	DeleteReset(ctx context.Context, modelID, resetID int) error

	RunValues(ctx context.Context, modelID, run int) ([]DailyValue, error)
	LatestValueOnOrBefore(ctx context.Context, modelID, run int, date time.Time) (DailyValue, bool, error)

	ReplaceComputed(ctx context.Context, modelID int, res *Result) error
}

// WeatherSource supplies daily mean temperatures for a location, ordered by
// date ascending. Days with no usable temperature data are omitted from the
// result; the engine treats the omission as a data gap rather than a zero.
type WeatherSource interface {
	MeanTemps(ctx context.Context, locationID int, unit TempUnit, from time.Time) ([]WeatherDay, error)
}

// Date truncates t to a UTC calendar date. All dates handled by this
// package are normalized through it.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NextDay returns the calendar day after d.
func NextDay(d time.Time) time.Time {
	return d.AddDate(0, 0, 1)
}

// PrevDay returns the calendar day before d.
func PrevDay(d time.Time) time.Time {
	return d.AddDate(0, 0, -1)
}
