package restserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/turftrack/turftrack/internal/gdd"
	"github.com/turftrack/turftrack/internal/log"
)

func TestMain(m *testing.M) {
	log.Init(false)
	os.Exit(m.Run())
}

// fakeService is a canned GDDService: every method returns err when set,
// otherwise the stored data, and records the arguments it was called with.
type fakeService struct {
	err      error
	model    gdd.Model
	entries  []gdd.DashboardEntry
	resets   []gdd.Reset
	values   []gdd.DailyValue
	versions []gdd.ParameterVersion

	lastCreate       gdd.CreateModelParams
	lastUpdateParams gdd.UpdateParametersParams
	lastResetDate    time.Time
	deletedResetID   int
	deletedModelID   int
}

func (f *fakeService) CreateModel(_ context.Context, p gdd.CreateModelParams) (gdd.Model, error) {
	f.lastCreate = p
	return f.model, f.err
}

func (f *fakeService) GetModel(_ context.Context, _ int) (gdd.Model, error) {
	return f.model, f.err
}

func (f *fakeService) ListModels(_ context.Context) ([]gdd.Model, error) {
	return []gdd.Model{f.model}, f.err
}

func (f *fakeService) ListModelsByLocation(_ context.Context, _ int) ([]gdd.Model, error) {
	return []gdd.Model{f.model}, f.err
}

func (f *fakeService) UpdateModel(_ context.Context, _ int, _ gdd.UpdateModelParams) (gdd.Model, error) {
	return f.model, f.err
}

func (f *fakeService) DeleteModel(_ context.Context, id int) error {
	f.deletedModelID = id
	return f.err
}

func (f *fakeService) ParameterHistory(_ context.Context, _ int) ([]gdd.ParameterVersion, error) {
	return f.versions, f.err
}

func (f *fakeService) UpdateParameters(_ context.Context, _ int, p gdd.UpdateParametersParams) (gdd.Model, error) {
	f.lastUpdateParams = p
	return f.model, f.err
}

func (f *fakeService) ManualReset(_ context.Context, _ int, date time.Time) error {
	f.lastResetDate = date
	return f.err
}

func (f *fakeService) Resets(_ context.Context, _ int) ([]gdd.Reset, error) {
	return f.resets, f.err
}

func (f *fakeService) DeleteReset(_ context.Context, _, resetID int) error {
	f.deletedResetID = resetID
	return f.err
}

func (f *fakeService) RunValues(_ context.Context, _, _ int) ([]gdd.DailyValue, error) {
	return f.values, f.err
}

func (f *fakeService) Dashboard(_ context.Context, _ int) ([]gdd.DashboardEntry, error) {
	return f.entries, f.err
}

func testDate(n int) time.Time {
	return time.Date(2025, 4, n, 0, 0, 0, 0, time.UTC)
}

func testRouter(svc GDDService) http.Handler {
	c := &Controller{handlers: NewHandlers(svc, zap.NewNop().Sugar())}
	return c.setupRouter()
}

func doRequest(t *testing.T, svc GDDService, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	testRouter(svc).ServeHTTP(rec, req)
	return rec
}

func TestCreateModel(t *testing.T) {
	svc := &fakeService{model: gdd.Model{
		ID: 7, LocationID: 3, Name: "poa annua", Unit: gdd.TempUnitC,
		StartDate: testDate(1), BaseTemp: 10, Threshold: 250,
	}}
	body := `{"name":"poa annua","location_id":3,"base_temp":10,"unit":"C","start_date":"2025-04-01","threshold":250,"reset_on_threshold":true}`

	rec := doRequest(t, svc, http.MethodPost, "/gdd_models/", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201; body: %s", rec.Code, rec.Body.String())
	}

	if svc.lastCreate.Name != "poa annua" || svc.lastCreate.Unit != gdd.TempUnitC {
		t.Errorf("service got params %+v", svc.lastCreate)
	}
	if !svc.lastCreate.StartDate.Equal(testDate(1)) {
		t.Errorf("start date parsed as %v, want 2025-04-01", svc.lastCreate.StartDate)
	}

	var resp ModelResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.ID != 7 || resp.StartDate != "2025-04-01" {
		t.Errorf("response = %+v", resp)
	}
}

func TestCreateModelInvalidBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"name":`},
		{"bad start date", `{"name":"x","location_id":1,"unit":"C","start_date":"04/01/2025","threshold":100}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, &fakeService{}, http.MethodPost, "/gdd_models/", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestGetModel(t *testing.T) {
	svc := &fakeService{model: gdd.Model{ID: 5, Name: "bentgrass", Unit: gdd.TempUnitF, StartDate: testDate(1)}}
	rec := doRequest(t, svc, http.MethodGet, "/gdd_models/5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q, want application/json", ct)
	}
	var resp ModelResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.ID != 5 || resp.Unit != "F" {
		t.Errorf("response = %+v", resp)
	}
}

func TestManualResetStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"success", nil, http.StatusOK},
		{"invalid date", gdd.ErrInvalidResetDate, http.StatusBadRequest},
		{"duplicate date", gdd.ErrDuplicateResetDate, http.StatusBadRequest},
		{"model not found", gdd.ErrModelNotFound, http.StatusNotFound},
		{"busy", gdd.ErrConflict, http.StatusConflict},
		{"data gap", &gdd.DataGapError{From: testDate(3), To: testDate(4)}, http.StatusUnprocessableEntity},
		{"weather source down", &gdd.UpstreamError{Err: errors.New("connection refused")}, http.StatusBadGateway},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{err: tt.err}
			rec := doRequest(t, svc, http.MethodPost, "/gdd_models/1/reset?reset_date=2025-04-05", "")
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d; body: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestManualReset(t *testing.T) {
	svc := &fakeService{}
	rec := doRequest(t, svc, http.MethodPost, "/gdd_models/1/reset?reset_date=2025-04-05", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !svc.lastResetDate.Equal(testDate(5)) {
		t.Errorf("reset date passed as %v, want 2025-04-05", svc.lastResetDate)
	}
	if !strings.Contains(rec.Body.String(), "GDD model reset and recalculated.") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestManualResetMissingDate(t *testing.T) {
	rec := doRequest(t, &fakeService{}, http.MethodPost, "/gdd_models/1/reset", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestUpdateParameters(t *testing.T) {
	svc := &fakeService{model: gdd.Model{ID: 1, StartDate: testDate(1)}}
	body := `{"base_temp":12,"recalculate_history":true,"effective_from":"2025-04-03"}`

	rec := doRequest(t, svc, http.MethodPut, "/gdd_models/1/parameters", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	p := svc.lastUpdateParams
	if p.BaseTemp == nil || *p.BaseTemp != 12 {
		t.Errorf("base_temp = %v, want 12", p.BaseTemp)
	}
	if p.Threshold != nil {
		t.Errorf("threshold should be nil when omitted, got %v", *p.Threshold)
	}
	if !p.RecalculateHistory {
		t.Error("recalculate_history not passed through")
	}
	if p.EffectiveFrom == nil || !p.EffectiveFrom.Equal(testDate(3)) {
		t.Errorf("effective_from = %v, want 2025-04-03", p.EffectiveFrom)
	}
}

func TestDeleteReset(t *testing.T) {
	svc := &fakeService{}
	rec := doRequest(t, svc, http.MethodDelete, "/gdd_models/1/resets/42", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if svc.deletedResetID != 42 {
		t.Errorf("deleted reset %d, want 42", svc.deletedResetID)
	}
}

func TestDeleteModel(t *testing.T) {
	svc := &fakeService{}
	rec := doRequest(t, svc, http.MethodDelete, "/gdd_models/9", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if svc.deletedModelID != 9 {
		t.Errorf("deleted model %d, want 9", svc.deletedModelID)
	}
}

func TestGetDashboard(t *testing.T) {
	lastReset := testDate(9)
	projected := testDate(12)
	svc := &fakeService{entries: []gdd.DashboardEntry{{
		Model:              gdd.Model{ID: 1, LocationID: 3, Name: "poa annua", Unit: gdd.TempUnitC, StartDate: testDate(1), Threshold: 35},
		CurrentGDD:         20,
		RunNumber:          3,
		LastReset:          &lastReset,
		ProjectedThreshold: &projected,
	}}}

	rec := doRequest(t, svc, http.MethodGet, "/gdd_models/location/3/dashboard", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp []DashboardResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(resp))
	}
	e := resp[0]
	if e.CurrentGDD != 20 || e.RunNumber != 3 {
		t.Errorf("entry = %+v", e)
	}
	if e.LastReset == nil || *e.LastReset != "2025-04-09" {
		t.Errorf("last_reset = %v, want 2025-04-09", e.LastReset)
	}
	if e.ProjectedThreshold == nil || *e.ProjectedThreshold != "2025-04-12" {
		t.Errorf("projected_threshold_date = %v, want 2025-04-12", e.ProjectedThreshold)
	}
}

func TestListModelsByLocationRoute(t *testing.T) {
	// The location route must not be swallowed by the {id} matcher.
	svc := &fakeService{model: gdd.Model{ID: 1, LocationID: 3, StartDate: testDate(1)}}
	rec := doRequest(t, svc, http.MethodGet, "/gdd_models/location/3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp []ModelResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp) != 1 || resp[0].LocationID != 3 {
		t.Errorf("response = %+v", resp)
	}
}

func TestGetRunValuesMsgpack(t *testing.T) {
	svc := &fakeService{values: []gdd.DailyValue{
		{Date: testDate(1), DailyGDD: 10, CumulativeGDD: 10, Run: 2},
		{Date: testDate(2), DailyGDD: 8, CumulativeGDD: 18, Run: 2, Forecast: true},
	}}

	rec := doRequest(t, svc, http.MethodGet, "/gdd_models/1/runs/2/values?format=msgpack", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/x-msgpack" {
		t.Fatalf("content type = %q, want application/x-msgpack", ct)
	}

	var resp []ValueResponse
	dec := msgpack.NewDecoder(rec.Body)
	dec.SetCustomStructTag("json")
	if err := dec.Decode(&resp); err != nil {
		t.Fatalf("decoding msgpack: %v", err)
	}
	if len(resp) != 2 || resp[1].CumulativeGDD != 18 || !resp[1].IsForecast {
		t.Errorf("response = %+v", resp)
	}
}

func TestGetResets(t *testing.T) {
	svc := &fakeService{resets: []gdd.Reset{
		{ID: 1, RunNumber: 1, Date: testDate(1), Type: gdd.ResetInitial},
		{ID: 2, RunNumber: 2, Date: testDate(6), Type: gdd.ResetManual},
	}}
	rec := doRequest(t, svc, http.MethodGet, "/gdd_models/1/resets", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp []ResetResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp) != 2 || resp[1].ResetType != "manual" || resp[1].ResetDate != "2025-04-06" {
		t.Errorf("response = %+v", resp)
	}
}
