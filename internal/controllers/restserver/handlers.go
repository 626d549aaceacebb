package restserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/turftrack/turftrack/internal/gdd"
	"github.com/turftrack/turftrack/pkg/responseformat"
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	svc       GDDService
	logger    *zap.SugaredLogger
	formatter *responseformat.Formatter
}

// NewHandlers creates a new handlers instance
func NewHandlers(svc GDDService, logger *zap.SugaredLogger) *Handlers {
	return &Handlers{
		svc:       svc,
		logger:    logger,
		formatter: responseformat.NewFormatter(),
	}
}

func pathInt(req *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(mux.Vars(req)[name])
	if err != nil || v <= 0 {
		return 0, &gdd.ValidationError{Field: name, Reason: "must be a positive integer"}
	}
	return v, nil
}

// writeError maps the core's error taxonomy onto HTTP statuses.
func (h *Handlers) writeError(w http.ResponseWriter, req *http.Request, err error) {
	var (
		valErr      *gdd.ValidationError
		gapErr      *gdd.DataGapError
		upstreamErr *gdd.UpstreamError
	)

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &valErr),
		errors.Is(err, gdd.ErrInvalidResetDate),
		errors.Is(err, gdd.ErrDuplicateResetDate):
		status = http.StatusBadRequest
	case errors.Is(err, gdd.ErrModelNotFound), errors.Is(err, gdd.ErrResetNotFound):
		status = http.StatusNotFound
	case errors.Is(err, gdd.ErrConflict):
		status = http.StatusConflict
	case errors.As(err, &gapErr):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &upstreamErr):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		h.logger.Errorw("request failed", "method", req.Method, "path", req.URL.Path, "error", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// CreateModel handles POST /gdd_models/
func (h *Handlers) CreateModel(w http.ResponseWriter, req *http.Request) {
	var body CreateModelRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		h.writeError(w, req, &gdd.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}
	startDate, err := time.Parse(dateFormat, body.StartDate)
	if err != nil {
		h.writeError(w, req, &gdd.ValidationError{Field: "start_date", Reason: "must be YYYY-MM-DD"})
		return
	}

	m, err := h.svc.CreateModel(req.Context(), gdd.CreateModelParams{
		Name:             body.Name,
		LocationID:       body.LocationID,
		Unit:             gdd.TempUnit(body.Unit),
		StartDate:        startDate,
		BaseTemp:         body.BaseTemp,
		Threshold:        body.Threshold,
		ResetOnThreshold: body.ResetOnThreshold,
	})
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toModelResponse(m))
}

// ListModels handles GET /gdd_models/
func (h *Handlers) ListModels(w http.ResponseWriter, req *http.Request) {
	models, err := h.svc.ListModels(req.Context())
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	out := make([]ModelResponse, len(models))
	for i, m := range models {
		out[i] = toModelResponse(m)
	}
	h.formatter.WriteResponse(w, req, out, nil)
}

// ListModelsByLocation handles GET /gdd_models/location/{id}
func (h *Handlers) ListModelsByLocation(w http.ResponseWriter, req *http.Request) {
	locationID, err := pathInt(req, "id")
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	models, err := h.svc.ListModelsByLocation(req.Context(), locationID)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	out := make([]ModelResponse, len(models))
	for i, m := range models {
		out[i] = toModelResponse(m)
	}
	h.formatter.WriteResponse(w, req, out, nil)
}

// GetDashboard handles GET /gdd_models/location/{id}/dashboard
func (h *Handlers) GetDashboard(w http.ResponseWriter, req *http.Request) {
	locationID, err := pathInt(req, "id")
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	entries, err := h.svc.Dashboard(req.Context(), locationID)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	out := make([]DashboardResponse, len(entries))
	for i, e := range entries {
		out[i] = toDashboardResponse(e)
	}
	h.formatter.WriteResponse(w, req, out, nil)
}

// GetModel handles GET /gdd_models/{id}
func (h *Handlers) GetModel(w http.ResponseWriter, req *http.Request) {
	id, err := pathInt(req, "id")
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	m, err := h.svc.GetModel(req.Context(), id)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	h.formatter.WriteResponse(w, req, toModelResponse(m), nil)
}

// UpdateModel handles PUT /gdd_models/{id}
func (h *Handlers) UpdateModel(w http.ResponseWriter, req *http.Request) {
	id, err := pathInt(req, "id")
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	var body UpdateModelRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		h.writeError(w, req, &gdd.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}
	var unit *gdd.TempUnit
	if body.Unit != nil {
		u := gdd.TempUnit(*body.Unit)
		unit = &u
	}
	m, err := h.svc.UpdateModel(req.Context(), id, gdd.UpdateModelParams{Name: body.Name, Unit: unit})
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toModelResponse(m))
}

// DeleteModel handles DELETE /gdd_models/{id}
func (h *Handlers) DeleteModel(w http.ResponseWriter, req *http.Request) {
	id, err := pathInt(req, "id")
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	if err := h.svc.DeleteModel(req.Context(), id); err != nil {
		h.writeError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetParameterHistory handles GET /gdd_models/{id}/history
func (h *Handlers) GetParameterHistory(w http.ResponseWriter, req *http.Request) {
	id, err := pathInt(req, "id")
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	versions, err := h.svc.ParameterHistory(req.Context(), id)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	out := make([]ParameterVersionResponse, len(versions))
	for i, v := range versions {
		out[i] = toParameterVersionResponse(v)
	}
	h.formatter.WriteResponse(w, req, out, nil)
}

// UpdateParameters handles PUT /gdd_models/{id}/parameters
func (h *Handlers) UpdateParameters(w http.ResponseWriter, req *http.Request) {
	id, err := pathInt(req, "id")
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	var body UpdateParametersRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		h.writeError(w, req, &gdd.ValidationError{Field: "body", Reason: "malformed JSON"})
		return
	}

	params := gdd.UpdateParametersParams{
		BaseTemp:           body.BaseTemp,
		Threshold:          body.Threshold,
		ResetOnThreshold:   body.ResetOnThreshold,
		RecalculateHistory: body.RecalculateHistory,
	}
	if body.EffectiveFrom != "" {
		effective, err := time.Parse(dateFormat, body.EffectiveFrom)
		if err != nil {
			h.writeError(w, req, &gdd.ValidationError{Field: "effective_from", Reason: "must be YYYY-MM-DD"})
			return
		}
		params.EffectiveFrom = &effective
	}

	m, err := h.svc.UpdateParameters(req.Context(), id, params)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toModelResponse(m))
}

// ManualReset handles POST /gdd_models/{id}/reset?reset_date=YYYY-MM-DD
func (h *Handlers) ManualReset(w http.ResponseWriter, req *http.Request) {
	id, err := pathInt(req, "id")
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	resetDate, err := time.Parse(dateFormat, req.URL.Query().Get("reset_date"))
	if err != nil {
		h.writeError(w, req, &gdd.ValidationError{Field: "reset_date", Reason: "must be YYYY-MM-DD"})
		return
	}
	if err := h.svc.ManualReset(req.Context(), id, resetDate); err != nil {
		h.writeError(w, req, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "GDD model reset and recalculated."})
}

// ListResets handles GET /gdd_models/{id}/resets
func (h *Handlers) ListResets(w http.ResponseWriter, req *http.Request) {
	id, err := pathInt(req, "id")
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	resets, err := h.svc.Resets(req.Context(), id)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	out := make([]ResetResponse, len(resets))
	for i, r := range resets {
		out[i] = toResetResponse(r)
	}
	h.formatter.WriteResponse(w, req, out, nil)
}

// DeleteReset handles DELETE /gdd_models/{id}/resets/{resetId}
func (h *Handlers) DeleteReset(w http.ResponseWriter, req *http.Request) {
	id, err := pathInt(req, "id")
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	resetID, err := pathInt(req, "resetId")
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	if err := h.svc.DeleteReset(req.Context(), id, resetID); err != nil {
		h.writeError(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetRunValues handles GET /gdd_models/{id}/runs/{run}/values
func (h *Handlers) GetRunValues(w http.ResponseWriter, req *http.Request) {
	id, err := pathInt(req, "id")
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	run, err := pathInt(req, "run")
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	values, err := h.svc.RunValues(req.Context(), id, run)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	out := make([]ValueResponse, len(values))
	for i, v := range values {
		out[i] = toValueResponse(v)
	}
	h.formatter.WriteResponse(w, req, out, nil)
}
