package gdd

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// DefaultLockWait bounds how long a mutation waits for a model's lock
// before giving up with ErrConflict.
const DefaultLockWait = 5 * time.Second

// projectionWindowDays is how many trailing days feed the dashboard's
// GDD-rate estimate.
const projectionWindowDays = 7

// Service orchestrates the GDD core: it owns the per-model write lock,
// loads inputs through ModelStore and WeatherSource, runs the
// recalculation engine, and persists the replacement history atomically.
// Readers bypass the lock; the atomic replace keeps their snapshots
// consistent.
type Service struct {
	store   ModelStore
	weather WeatherSource
	logger  *zap.SugaredLogger
	locks   *modelLocks
	now     func() time.Time
}

// NewService creates a Service around the given store and weather source.
func NewService(store ModelStore, weather WeatherSource, logger *zap.SugaredLogger) *Service {
	return &Service{
		store:   store,
		weather: weather,
		logger:  logger,
		locks:   newModelLocks(DefaultLockWait),
		now:     time.Now,
	}
}

// CreateModelParams carries the fields of a model-creation request.
type CreateModelParams struct {
	Name             string
	LocationID       int
	Unit             TempUnit
	StartDate        time.Time
	BaseTemp         float64
	Threshold        float64
	ResetOnThreshold bool
}

func (p *CreateModelParams) validate() error {
	if p.Name == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if len(p.Name) > 100 {
		return &ValidationError{Field: "name", Reason: "must be at most 100 characters"}
	}
	if p.LocationID <= 0 {
		return &ValidationError{Field: "location_id", Reason: "must be a positive ID"}
	}
	if p.Unit != TempUnitC && p.Unit != TempUnitF {
		return &ValidationError{Field: "unit", Reason: "must be C or F"}
	}
	if p.StartDate.IsZero() {
		return &ValidationError{Field: "start_date", Reason: "must be set"}
	}
	if p.Threshold <= 0 {
		return &ValidationError{Field: "threshold", Reason: "must be positive"}
	}
	return nil
}

// CreateModel creates a model, records its initial parameter version
// effective from the start date, and computes its history.
func (s *Service) CreateModel(ctx context.Context, p CreateModelParams) (Model, error) {
	if err := p.validate(); err != nil {
		return Model{}, err
	}

	m := Model{
		LocationID:       p.LocationID,
		Name:             p.Name,
		Unit:             p.Unit,
		StartDate:        Date(p.StartDate),
		BaseTemp:         p.BaseTemp,
		Threshold:        p.Threshold,
		ResetOnThreshold: p.ResetOnThreshold,
	}
	if err := s.store.CreateModel(ctx, &m); err != nil {
		return Model{}, err
	}

	v := ParameterVersion{
		BaseTemp:         p.BaseTemp,
		Threshold:        p.Threshold,
		ResetOnThreshold: p.ResetOnThreshold,
		EffectiveFrom:    m.StartDate,
	}
	if err := s.store.SaveParameterVersion(ctx, m.ID, v); err != nil {
		return Model{}, err
	}

	if err := s.Recalculate(ctx, m.ID); err != nil {
		return Model{}, err
	}
	s.logger.Infow("created gdd model", "model_id", m.ID, "location_id", m.LocationID, "name", m.Name)
	return m, nil
}

// GetModel fetches a single model.
func (s *Service) GetModel(ctx context.Context, id int) (Model, error) {
	return s.store.GetModel(ctx, id)
}

// ListModels returns all models.
func (s *Service) ListModels(ctx context.Context) ([]Model, error) {
	return s.store.ListModels(ctx)
}

// ListModelsByLocation returns the models attached to a location.
func (s *Service) ListModelsByLocation(ctx context.Context, locationID int) ([]Model, error) {
	return s.store.ListModelsByLocation(ctx, locationID)
}

// UpdateModelParams carries a model-shell edit. Accumulation parameters are
// versioned and must go through UpdateParameters instead.
type UpdateModelParams struct {
	Name *string
	Unit *TempUnit
}

// UpdateModel edits a model's non-versioned fields.
func (s *Service) UpdateModel(ctx context.Context, id int, p UpdateModelParams) (Model, error) {
	m, err := s.store.GetModel(ctx, id)
	if err != nil {
		return Model{}, err
	}
	if p.Name != nil {
		if *p.Name == "" || len(*p.Name) > 100 {
			return Model{}, &ValidationError{Field: "name", Reason: "must be 1-100 characters"}
		}
		m.Name = *p.Name
	}
	if p.Unit != nil {
		if *p.Unit != TempUnitC && *p.Unit != TempUnitF {
			return Model{}, &ValidationError{Field: "unit", Reason: "must be C or F"}
		}
		m.Unit = *p.Unit
	}
	if err := s.store.UpdateModel(ctx, &m); err != nil {
		return Model{}, err
	}
	return m, nil
}

// DeleteModel removes a model and all of its parameters, resets, and
// values.
func (s *Service) DeleteModel(ctx context.Context, id int) error {
	if _, err := s.store.GetModel(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteModel(ctx, id)
}

// ParameterHistory returns a model's parameter versions, newest first.
func (s *Service) ParameterHistory(ctx context.Context, id int) ([]ParameterVersion, error) {
	if _, err := s.store.GetModel(ctx, id); err != nil {
		return nil, err
	}
	versions, err := s.store.ParameterVersions(ctx, id)
	if err != nil {
		return nil, err
	}
	out := NewParameterTimeline(versions).Versions()
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// UpdateParametersParams carries a parameter edit. Nil pointer fields keep
// their current values.
type UpdateParametersParams struct {
	BaseTemp           *float64
	Threshold          *float64
	ResetOnThreshold   *bool
	RecalculateHistory bool
	EffectiveFrom      *time.Time
}

// UpdateParameters records a new parameter version and recomputes the
// model. The prior versions stay in history untouched. A version dated in
// the past rewrites already-materialized values, so it is rejected unless
// the caller explicitly asks for RecalculateHistory.
func (s *Service) UpdateParameters(ctx context.Context, id int, p UpdateParametersParams) (Model, error) {
	m, err := s.store.GetModel(ctx, id)
	if err != nil {
		return Model{}, err
	}

	effective := Date(s.now())
	if p.EffectiveFrom != nil {
		effective = Date(*p.EffectiveFrom)
	}
	if p.Threshold != nil && *p.Threshold <= 0 {
		return Model{}, &ValidationError{Field: "threshold", Reason: "must be positive"}
	}
	if effective.Before(Date(s.now())) && !p.RecalculateHistory {
		return Model{}, &ValidationError{
			Field:  "effective_from",
			Reason: "recalculate_history is required when changing parameters for past dates",
		}
	}
	if effective.Before(Date(m.StartDate)) {
		effective = Date(m.StartDate)
	}

	v := ParameterVersion{
		BaseTemp:         m.BaseTemp,
		Threshold:        m.Threshold,
		ResetOnThreshold: m.ResetOnThreshold,
		EffectiveFrom:    effective,
	}
	changed := false
	if p.BaseTemp != nil && *p.BaseTemp != m.BaseTemp {
		v.BaseTemp = *p.BaseTemp
		changed = true
	}
	if p.Threshold != nil && *p.Threshold != m.Threshold {
		v.Threshold = *p.Threshold
		changed = true
	}
	if p.ResetOnThreshold != nil && *p.ResetOnThreshold != m.ResetOnThreshold {
		v.ResetOnThreshold = *p.ResetOnThreshold
		changed = true
	}

	if changed {
		if err := s.store.SaveParameterVersion(ctx, id, v); err != nil {
			return Model{}, err
		}
		m.BaseTemp = v.BaseTemp
		m.Threshold = v.Threshold
		m.ResetOnThreshold = v.ResetOnThreshold
		if err := s.store.UpdateModel(ctx, &m); err != nil {
			return Model{}, err
		}
	}

	if err := s.Recalculate(ctx, id); err != nil {
		return Model{}, err
	}
	return m, nil
}

// ManualReset closes the model's current run the day before date and opens
// a new run on date, then recomputes the full history.
func (s *Service) ManualReset(ctx context.Context, id int, date time.Time) error {
	m, err := s.store.GetModel(ctx, id)
	if err != nil {
		return err
	}

	release, err := s.locks.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	weather, err := s.loadWeather(ctx, m)
	if err != nil {
		return err
	}
	if len(weather) == 0 {
		return ErrInvalidResetDate
	}
	latest := Date(weather[len(weather)-1].Date)

	resets, err := s.store.Resets(ctx, id)
	if err != nil {
		return err
	}
	if err := ValidateManualReset(date, Date(m.StartDate), latest, resets); err != nil {
		return err
	}

	maxRun := 1
	for _, r := range resets {
		if r.RunNumber > maxRun {
			maxRun = r.RunNumber
		}
	}
	reset := Reset{
		RunNumber: maxRun + 1, // provisional; the recompute renumbers by date
		Date:      Date(date),
		Type:      ResetManual,
	}
	if err := s.store.SaveReset(ctx, id, reset); err != nil {
		return err
	}

	s.logger.Infow("manual gdd reset", "model_id", id, "reset_date", Date(date).Format("2006-01-02"))
	return s.recomputeLocked(ctx, m)
}

// Resets returns a model's resets ordered by run number.
func (s *Service) Resets(ctx context.Context, id int) ([]Reset, error) {
	if _, err := s.store.GetModel(ctx, id); err != nil {
		return nil, err
	}
	return s.store.Resets(ctx, id)
}

// DeleteReset removes a manual reset, merging its run into the previous one
// and renumbering everything after it via a full recompute. Threshold
// resets are derived data and cannot be deleted directly; they disappear on
// recompute when the crossing no longer occurs.
func (s *Service) DeleteReset(ctx context.Context, modelID, resetID int) error {
	m, err := s.store.GetModel(ctx, modelID)
	if err != nil {
		return err
	}
	r, err := s.store.GetReset(ctx, modelID, resetID)
	if err != nil {
		return err
	}
	if r.Type != ResetManual {
		return &ValidationError{Field: "reset", Reason: "only manual resets can be deleted"}
	}

	release, err := s.locks.acquire(ctx, modelID)
	if err != nil {
		return err
	}
	defer release()

	if err := s.store.DeleteReset(ctx, modelID, resetID); err != nil {
		return err
	}
	s.logger.Infow("deleted manual gdd reset", "model_id", modelID, "reset_id", resetID)
	return s.recomputeLocked(ctx, m)
}

// RunValues returns the daily values of one run, ordered by date.
func (s *Service) RunValues(ctx context.Context, modelID, run int) ([]DailyValue, error) {
	if _, err := s.store.GetModel(ctx, modelID); err != nil {
		return nil, err
	}
	return s.store.RunValues(ctx, modelID, run)
}

// Recalculate runs a full recompute for a model under its lock. External
// triggers (a parameter edit, a reset mutation, new weather arriving) all
// funnel through here; the result always replaces the entire history.
func (s *Service) Recalculate(ctx context.Context, id int) error {
	m, err := s.store.GetModel(ctx, id)
	if err != nil {
		return err
	}
	release, err := s.locks.acquire(ctx, id)
	if err != nil {
		return err
	}
	defer release()
	return s.recomputeLocked(ctx, m)
}

// recomputeLocked loads inputs, runs the engine, and persists the result.
// Callers must hold the model's lock.
func (s *Service) recomputeLocked(ctx context.Context, m Model) error {
	versions, err := s.store.ParameterVersions(ctx, m.ID)
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		return fmt.Errorf("model %d: %w", m.ID, ErrNoApplicableParameters)
	}
	timeline := NewParameterTimeline(versions)

	resets, err := s.store.Resets(ctx, m.ID)
	if err != nil {
		return err
	}

	weather, err := s.loadWeather(ctx, m)
	if err != nil {
		return err
	}

	res, err := Recompute(m, timeline, weather, resets)
	if err != nil {
		var gap *DataGapError
		if errors.As(err, &gap) {
			s.logger.Warnw("gdd recompute aborted on data gap",
				"model_id", m.ID, "from", gap.From.Format("2006-01-02"), "to", gap.To.Format("2006-01-02"))
		}
		return err
	}

	if err := s.store.ReplaceComputed(ctx, m.ID, res); err != nil {
		return fmt.Errorf("persisting recompute for model %d: %w", m.ID, err)
	}
	s.logger.Debugw("gdd recompute complete",
		"model_id", m.ID, "values", len(res.Values), "runs", len(res.Runs), "resets", len(res.Resets))
	return nil
}

func (s *Service) loadWeather(ctx context.Context, m Model) ([]WeatherDay, error) {
	weather, err := s.weather.MeanTemps(ctx, m.LocationID, m.Unit, Date(m.StartDate))
	if err != nil {
		return nil, &UpstreamError{Err: err}
	}
	return weather, nil
}

// DashboardEntry is one model's summary for the location dashboard.
type DashboardEntry struct {
	Model
	CurrentGDD         float64
	RunNumber          int
	LastReset          *time.Time
	ProjectedThreshold *time.Time
}

// Dashboard summarizes every model at a location: the cumulative value of
// the current run as of today, the last reset date, and a projection of
// when the run will reach its threshold based on the trailing mean daily
// GDD rate.
func (s *Service) Dashboard(ctx context.Context, locationID int) ([]DashboardEntry, error) {
	models, err := s.store.ListModelsByLocation(ctx, locationID)
	if err != nil {
		return nil, err
	}
	today := Date(s.now())

	entries := make([]DashboardEntry, 0, len(models))
	for _, m := range models {
		e := DashboardEntry{Model: m, RunNumber: 1}

		resets, err := s.store.Resets(ctx, m.ID)
		if err != nil {
			return nil, err
		}
		if r, ok := currentReset(resets, today); ok {
			e.RunNumber = r.RunNumber
			d := r.Date
			e.LastReset = &d
		}

		if v, ok, err := s.store.LatestValueOnOrBefore(ctx, m.ID, e.RunNumber, today); err != nil {
			return nil, err
		} else if ok {
			e.CurrentGDD = v.CumulativeGDD
		}

		if m.ResetOnThreshold && e.CurrentGDD < m.Threshold {
			if proj := s.projectThreshold(ctx, m, e.RunNumber, e.CurrentGDD, today); proj != nil {
				e.ProjectedThreshold = proj
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// currentReset picks the latest reset on or before today, falling back to
// the latest reset overall when every reset is in the future.
func currentReset(resets []Reset, today time.Time) (Reset, bool) {
	var best, latest Reset
	var haveBest, haveLatest bool
	for _, r := range resets {
		if !haveLatest || r.Date.After(latest.Date) {
			latest = r
			haveLatest = true
		}
		if r.Date.After(today) {
			continue
		}
		if !haveBest || r.Date.After(best.Date) {
			best = r
			haveBest = true
		}
	}
	if haveBest {
		return best, true
	}
	return latest, haveLatest
}

// projectThreshold extrapolates the current run's trailing mean daily GDD
// to estimate the date the threshold will be reached. Returns nil when the
// trailing rate is zero or there is no history to extrapolate from.
func (s *Service) projectThreshold(ctx context.Context, m Model, run int, current float64, today time.Time) *time.Time {
	values, err := s.store.RunValues(ctx, m.ID, run)
	if err != nil || len(values) == 0 {
		return nil
	}

	var trailing []float64
	for _, v := range values {
		if v.Date.After(today) {
			break
		}
		trailing = append(trailing, v.DailyGDD)
	}
	if len(trailing) == 0 {
		return nil
	}
	if len(trailing) > projectionWindowDays {
		trailing = trailing[len(trailing)-projectionWindowDays:]
	}

	rate := stat.Mean(trailing, nil)
	if rate <= 0 {
		return nil
	}
	days := int(math.Ceil((m.Threshold - current) / rate))
	if days < 1 {
		days = 1
	}
	proj := today.AddDate(0, 0, days)
	return &proj
}
