package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/turftrack/turftrack/internal/gdd"
)

// Store implements gdd.ModelStore and gdd.WeatherSource over gorm.
type Store struct {
	db *gorm.DB
}

// NewStore creates a store around an open gorm handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func toModel(m GDDModel) gdd.Model {
	return gdd.Model{
		ID:               m.ID,
		LocationID:       m.LocationID,
		Name:             m.Name,
		Unit:             gdd.TempUnit(m.Unit),
		StartDate:        gdd.Date(m.StartDate),
		BaseTemp:         m.BaseTemp,
		Threshold:        m.Threshold,
		ResetOnThreshold: m.ResetOnThreshold,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func fromModel(m *gdd.Model) GDDModel {
	return GDDModel{
		ID:               m.ID,
		LocationID:       m.LocationID,
		Name:             m.Name,
		Unit:             string(m.Unit),
		StartDate:        gdd.Date(m.StartDate),
		BaseTemp:         m.BaseTemp,
		Threshold:        m.Threshold,
		ResetOnThreshold: m.ResetOnThreshold,
	}
}

// CreateModel inserts a model, enforcing name uniqueness per location.
func (s *Store) CreateModel(ctx context.Context, m *gdd.Model) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&GDDModel{}).
		Where("location_id = ? AND name = ?", m.LocationID, m.Name).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return &gdd.ValidationError{Field: "name", Reason: "must be unique per location"}
	}

	row := fromModel(m)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}
	m.ID = row.ID
	m.CreatedAt = row.CreatedAt
	m.UpdatedAt = row.UpdatedAt
	return nil
}

// GetModel fetches one model by ID.
func (s *Store) GetModel(ctx context.Context, id int) (gdd.Model, error) {
	var row GDDModel
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return gdd.Model{}, gdd.ErrModelNotFound
		}
		return gdd.Model{}, err
	}
	return toModel(row), nil
}

// UpdateModel persists a model's mutable fields.
func (s *Store) UpdateModel(ctx context.Context, m *gdd.Model) error {
	return s.db.WithContext(ctx).Model(&GDDModel{ID: m.ID}).
		Updates(map[string]any{
			"name":               m.Name,
			"unit":               string(m.Unit),
			"base_temp":          m.BaseTemp,
			"threshold":          m.Threshold,
			"reset_on_threshold": m.ResetOnThreshold,
		}).Error
}

// ListModels returns every model.
func (s *Store) ListModels(ctx context.Context) ([]gdd.Model, error) {
	var rows []GDDModel
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]gdd.Model, len(rows))
	for i, r := range rows {
		out[i] = toModel(r)
	}
	return out, nil
}

// ListModelsByLocation returns the models attached to a location.
func (s *Store) ListModelsByLocation(ctx context.Context, locationID int) ([]gdd.Model, error) {
	var rows []GDDModel
	if err := s.db.WithContext(ctx).
		Where("location_id = ?", locationID).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]gdd.Model, len(rows))
	for i, r := range rows {
		out[i] = toModel(r)
	}
	return out, nil
}

// DeleteModel removes a model and cascades to its parameters, values, and
// resets in one transaction.
func (s *Store) DeleteModel(ctx context.Context, id int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, del := range []error{
			tx.Where("gdd_model_id = ?", id).Delete(&GDDValue{}).Error,
			tx.Where("gdd_model_id = ?", id).Delete(&GDDReset{}).Error,
			tx.Where("gdd_model_id = ?", id).Delete(&GDDModelParameters{}).Error,
			tx.Delete(&GDDModel{}, id).Error,
		} {
			if del != nil {
				return del
			}
		}
		return nil
	})
}

// ParameterVersions returns a model's parameter history in ascending
// effective-from order.
func (s *Store) ParameterVersions(ctx context.Context, modelID int) ([]gdd.ParameterVersion, error) {
	var rows []GDDModelParameters
	if err := s.db.WithContext(ctx).
		Where("gdd_model_id = ?", modelID).Order("effective_from").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]gdd.ParameterVersion, len(rows))
	for i, r := range rows {
		out[i] = gdd.ParameterVersion{
			BaseTemp:         r.BaseTemp,
			Threshold:        r.Threshold,
			ResetOnThreshold: r.ResetOnThreshold,
			EffectiveFrom:    gdd.Date(r.EffectiveFrom),
			CreatedAt:        r.CreatedAt,
		}
	}
	return out, nil
}

// SaveParameterVersion upserts a version at its exact effective-from date.
// Earlier versions are left alone; history is only ever superseded.
func (s *Store) SaveParameterVersion(ctx context.Context, modelID int, v gdd.ParameterVersion) error {
	effective := gdd.Date(v.EffectiveFrom)
	var existing GDDModelParameters
	err := s.db.WithContext(ctx).
		Where("gdd_model_id = ? AND effective_from = ?", modelID, effective).
		First(&existing).Error
	switch {
	case err == nil:
		return s.db.WithContext(ctx).Model(&existing).Updates(map[string]any{
			"base_temp":          v.BaseTemp,
			"threshold":          v.Threshold,
			"reset_on_threshold": v.ResetOnThreshold,
		}).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.db.WithContext(ctx).Create(&GDDModelParameters{
			GDDModelID:       modelID,
			BaseTemp:         v.BaseTemp,
			Threshold:        v.Threshold,
			ResetOnThreshold: v.ResetOnThreshold,
			EffectiveFrom:    effective,
		}).Error
	default:
		return err
	}
}

// Resets returns a model's resets ordered by run number.
func (s *Store) Resets(ctx context.Context, modelID int) ([]gdd.Reset, error) {
	var rows []GDDReset
	if err := s.db.WithContext(ctx).
		Where("gdd_model_id = ?", modelID).Order("run_number").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]gdd.Reset, len(rows))
	for i, r := range rows {
		out[i] = toReset(r)
	}
	return out, nil
}

func toReset(r GDDReset) gdd.Reset {
	return gdd.Reset{
		ID:        r.ID,
		RunNumber: r.RunNumber,
		Date:      gdd.Date(r.ResetDate),
		Type:      gdd.ResetType(r.ResetType),
		CreatedAt: r.CreatedAt,
	}
}

// GetReset fetches one reset, scoped to its model.
func (s *Store) GetReset(ctx context.Context, modelID, resetID int) (gdd.Reset, error) {
	var row GDDReset
	err := s.db.WithContext(ctx).
		Where("id = ? AND gdd_model_id = ?", resetID, modelID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return gdd.Reset{}, gdd.ErrResetNotFound
		}
		return gdd.Reset{}, err
	}
	return toReset(row), nil
}

// SaveReset inserts a reset row.
func (s *Store) SaveReset(ctx context.Context, modelID int, r gdd.Reset) error {
	return s.db.WithContext(ctx).Create(&GDDReset{
		GDDModelID: modelID,
		ResetDate:  gdd.Date(r.Date),
		RunNumber:  r.RunNumber,
		ResetType:  string(r.Type),
	}).Error
}

// DeleteReset removes one reset row.
func (s *Store) DeleteReset(ctx context.Context, modelID, resetID int) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND gdd_model_id = ?", resetID, modelID).Delete(&GDDReset{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gdd.ErrResetNotFound
	}
	return nil
}

// RunValues returns the daily values of one run ordered by date.
func (s *Store) RunValues(ctx context.Context, modelID, run int) ([]gdd.DailyValue, error) {
	var rows []GDDValue
	if err := s.db.WithContext(ctx).
		Where("gdd_model_id = ? AND run = ?", modelID, run).Order("date").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]gdd.DailyValue, len(rows))
	for i, r := range rows {
		out[i] = gdd.DailyValue{
			Date:          gdd.Date(r.Date),
			DailyGDD:      r.DailyGDD,
			CumulativeGDD: r.CumulativeGDD,
			Run:           r.Run,
			Forecast:      r.IsForecast,
		}
	}
	return out, nil
}

// LatestValueOnOrBefore returns the newest value of a run dated on or
// before date.
func (s *Store) LatestValueOnOrBefore(ctx context.Context, modelID, run int, date time.Time) (gdd.DailyValue, bool, error) {
	var row GDDValue
	err := s.db.WithContext(ctx).
		Where("gdd_model_id = ? AND run = ? AND date <= ?", modelID, run, gdd.Date(date)).
		Order("date DESC").First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return gdd.DailyValue{}, false, nil
		}
		return gdd.DailyValue{}, false, err
	}
	return gdd.DailyValue{
		Date:          gdd.Date(row.Date),
		DailyGDD:      row.DailyGDD,
		CumulativeGDD: row.CumulativeGDD,
		Run:           row.Run,
		Forecast:      row.IsForecast,
	}, true, nil
}

// ReplaceComputed atomically installs the output of a recompute: all daily
// values are replaced, threshold resets are regenerated, and surviving
// resets are renumbered. A failure anywhere rolls the whole write back so
// the previous history stays visible.
func (s *Store) ReplaceComputed(ctx context.Context, modelID int, res *gdd.Result) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("gdd_model_id = ?", modelID).Delete(&GDDValue{}).Error; err != nil {
			return fmt.Errorf("clearing gdd values: %w", err)
		}
		if err := tx.Where("gdd_model_id = ? AND reset_type = ?", modelID, string(gdd.ResetThreshold)).
			Delete(&GDDReset{}).Error; err != nil {
			return fmt.Errorf("clearing threshold resets: %w", err)
		}

		for _, r := range res.Resets {
			if r.Type == gdd.ResetThreshold {
				if err := tx.Create(&GDDReset{
					GDDModelID: modelID,
					ResetDate:  r.Date,
					RunNumber:  r.RunNumber,
					ResetType:  string(r.Type),
				}).Error; err != nil {
					return fmt.Errorf("inserting threshold reset: %w", err)
				}
				continue
			}
			// Initial and manual resets are authoritative input rows; upsert
			// by date so run numbers stay in step with the recompute.
			var existing GDDReset
			err := tx.Where("gdd_model_id = ? AND reset_date = ?", modelID, r.Date).First(&existing).Error
			switch {
			case err == nil:
				if err := tx.Model(&existing).Update("run_number", r.RunNumber).Error; err != nil {
					return fmt.Errorf("renumbering reset: %w", err)
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(&GDDReset{
					GDDModelID: modelID,
					ResetDate:  r.Date,
					RunNumber:  r.RunNumber,
					ResetType:  string(r.Type),
				}).Error; err != nil {
					return fmt.Errorf("inserting reset: %w", err)
				}
			default:
				return err
			}
		}

		if len(res.Values) > 0 {
			rows := make([]GDDValue, len(res.Values))
			for i, v := range res.Values {
				rows[i] = GDDValue{
					GDDModelID:    modelID,
					Date:          v.Date,
					DailyGDD:      v.DailyGDD,
					CumulativeGDD: v.CumulativeGDD,
					IsForecast:    v.Forecast,
					Run:           v.Run,
				}
			}
			if err := tx.CreateInBatches(rows, 500).Error; err != nil {
				return fmt.Errorf("inserting gdd values: %w", err)
			}
		}
		return nil
	})
}
