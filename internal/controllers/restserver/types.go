package restserver

import (
	"context"
	"time"

	"github.com/turftrack/turftrack/internal/gdd"
)

// dateFormat is the wire format for calendar dates.
const dateFormat = "2006-01-02"

// GDDService is the surface of the GDD core the REST server consumes.
type GDDService interface {
	CreateModel(ctx context.Context, p gdd.CreateModelParams) (gdd.Model, error)
	GetModel(ctx context.Context, id int) (gdd.Model, error)
	ListModels(ctx context.Context) ([]gdd.Model, error)
	ListModelsByLocation(ctx context.Context, locationID int) ([]gdd.Model, error)
	UpdateModel(ctx context.Context, id int, p gdd.UpdateModelParams) (gdd.Model, error)
	DeleteModel(ctx context.Context, id int) error
	ParameterHistory(ctx context.Context, id int) ([]gdd.ParameterVersion, error)
	UpdateParameters(ctx context.Context, id int, p gdd.UpdateParametersParams) (gdd.Model, error)
	ManualReset(ctx context.Context, id int, date time.Time) error
	Resets(ctx context.Context, id int) ([]gdd.Reset, error)
	DeleteReset(ctx context.Context, modelID, resetID int) error
	RunValues(ctx context.Context, modelID, run int) ([]gdd.DailyValue, error)
	Dashboard(ctx context.Context, locationID int) ([]gdd.DashboardEntry, error)
}

// CreateModelRequest is the body of POST /gdd_models/.
type CreateModelRequest struct {
	Name             string  `json:"name"`
	LocationID       int     `json:"location_id"`
	BaseTemp         float64 `json:"base_temp"`
	Unit             string  `json:"unit"`
	StartDate        string  `json:"start_date"`
	Threshold        float64 `json:"threshold"`
	ResetOnThreshold bool    `json:"reset_on_threshold"`
}

// UpdateModelRequest is the body of PUT /gdd_models/{id}.
type UpdateModelRequest struct {
	Name *string `json:"name,omitempty"`
	Unit *string `json:"unit,omitempty"`
}

// UpdateParametersRequest is the body of PUT /gdd_models/{id}/parameters.
type UpdateParametersRequest struct {
	BaseTemp           *float64 `json:"base_temp,omitempty"`
	Threshold          *float64 `json:"threshold,omitempty"`
	ResetOnThreshold   *bool    `json:"reset_on_threshold,omitempty"`
	RecalculateHistory bool     `json:"recalculate_history"`
	EffectiveFrom      string   `json:"effective_from,omitempty"`
}

// ModelResponse is the wire form of a GDD model.
type ModelResponse struct {
	ID               int     `json:"id"`
	LocationID       int     `json:"location_id"`
	Name             string  `json:"name"`
	BaseTemp         float64 `json:"base_temp"`
	Unit             string  `json:"unit"`
	StartDate        string  `json:"start_date"`
	Threshold        float64 `json:"threshold"`
	ResetOnThreshold bool    `json:"reset_on_threshold"`
	CreatedAt        string  `json:"created_at"`
	UpdatedAt        string  `json:"updated_at"`
}

func toModelResponse(m gdd.Model) ModelResponse {
	return ModelResponse{
		ID:               m.ID,
		LocationID:       m.LocationID,
		Name:             m.Name,
		BaseTemp:         m.BaseTemp,
		Unit:             string(m.Unit),
		StartDate:        m.StartDate.Format(dateFormat),
		Threshold:        m.Threshold,
		ResetOnThreshold: m.ResetOnThreshold,
		CreatedAt:        m.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        m.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// DashboardResponse is one model's dashboard summary.
type DashboardResponse struct {
	ModelResponse
	CurrentGDD         float64 `json:"current_gdd"`
	RunNumber          int     `json:"run_number"`
	LastReset          *string `json:"last_reset"`
	ProjectedThreshold *string `json:"projected_threshold_date"`
}

func toDashboardResponse(e gdd.DashboardEntry) DashboardResponse {
	resp := DashboardResponse{
		ModelResponse: toModelResponse(e.Model),
		CurrentGDD:    e.CurrentGDD,
		RunNumber:     e.RunNumber,
	}
	if e.LastReset != nil {
		s := e.LastReset.Format(dateFormat)
		resp.LastReset = &s
	}
	if e.ProjectedThreshold != nil {
		s := e.ProjectedThreshold.Format(dateFormat)
		resp.ProjectedThreshold = &s
	}
	return resp
}

// ParameterVersionResponse is one entry of the parameter history.
type ParameterVersionResponse struct {
	BaseTemp         float64 `json:"base_temp"`
	Threshold        float64 `json:"threshold"`
	ResetOnThreshold bool    `json:"reset_on_threshold"`
	EffectiveFrom    string  `json:"effective_from"`
	CreatedAt        string  `json:"created_at"`
}

func toParameterVersionResponse(v gdd.ParameterVersion) ParameterVersionResponse {
	return ParameterVersionResponse{
		BaseTemp:         v.BaseTemp,
		Threshold:        v.Threshold,
		ResetOnThreshold: v.ResetOnThreshold,
		EffectiveFrom:    v.EffectiveFrom.Format(dateFormat),
		CreatedAt:        v.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ResetResponse is the wire form of a reset.
type ResetResponse struct {
	ID        int    `json:"id"`
	RunNumber int    `json:"run_number"`
	ResetDate string `json:"reset_date"`
	ResetType string `json:"reset_type"`
}

func toResetResponse(r gdd.Reset) ResetResponse {
	return ResetResponse{
		ID:        r.ID,
		RunNumber: r.RunNumber,
		ResetDate: r.Date.Format(dateFormat),
		ResetType: string(r.Type),
	}
}

// ValueResponse is the wire form of one daily value.
type ValueResponse struct {
	Date          string  `json:"date"`
	DailyGDD      float64 `json:"daily_gdd"`
	CumulativeGDD float64 `json:"cumulative_gdd"`
	Run           int     `json:"run"`
	IsForecast    bool    `json:"is_forecast"`
}

func toValueResponse(v gdd.DailyValue) ValueResponse {
	return ValueResponse{
		Date:          v.Date.Format(dateFormat),
		DailyGDD:      v.DailyGDD,
		CumulativeGDD: v.CumulativeGDD,
		Run:           v.Run,
		IsForecast:    v.Forecast,
	}
}
