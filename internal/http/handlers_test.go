package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"interview-emotion-engine/internal/app"
	"interview-emotion-engine/internal/config"
	httpapi "interview-emotion-engine/internal/http"
	"interview-emotion-engine/internal/interval"
	"interview-emotion-engine/internal/models"
	"interview-emotion-engine/internal/report"
	"interview-emotion-engine/internal/service/capture"
	capturemock "interview-emotion-engine/internal/service/capture/mock"
	classifymock "interview-emotion-engine/internal/service/classify/mock"
	"interview-emotion-engine/internal/service/recorder"
	"interview-emotion-engine/internal/session"
)

type apiFixture struct {
	handler http.Handler
	reports *report.Store
	clock   *capturemock.Clock
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	reports, err := report.NewInMemoryStore(zerolog.Nop(), nil)
	if err != nil {
		t.Fatalf("failed to open report store: %v", err)
	}
	t.Cleanup(func() { reports.Close() })

	clock := capturemock.NewClock()
	rec := recorder.New(recorder.Config{
		Store:           session.NewStore(nil),
		Reports:         reports,
		VideoDevice:     func() (capture.Device, error) { return capturemock.NewDevice(8), nil },
		AudioDevice:     func() (capture.Device, error) { return capturemock.NewDevice(8), nil },
		VideoClassifier: classifymock.New(classifymock.Labeled(models.EmotionNeutral, 0.6)),
		AudioClassifier: classifymock.New(classifymock.Labeled(models.EmotionNeutral, 0.6)),
		Clock:           clock.Now,
		Log:             zerolog.Nop(),
	})

	handlers := httpapi.NewHandlers(rec, reports, interval.Options{}, zerolog.Nop(), nil)
	application := app.New(config.Load())
	return &apiFixture{
		handler: httpapi.NewRouter(application, handlers),
		reports: reports,
		clock:   clock,
	}
}

func (f *apiFixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) saveReport(t *testing.T) models.ReportRecord {
	t.Helper()
	start := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	rec := models.ReportRecord{
		ID:              "r-1",
		IntervieweeName: "Ada Lovelace",
		InterviewerName: "Grace Hopper",
		StartTime:       start,
		EndTime:         start.Add(12 * time.Second),
	}
	preds := models.ReportPredictions{
		Video: models.EmissionMap{
			4000 * time.Millisecond: {
				Timestamp: 4000 * time.Millisecond,
				Label:     models.EmotionHappy,
			},
		},
		Audio: models.EmissionMap{},
		Text:  models.TextMap{2000 * time.Millisecond: "hello"},
	}
	saved, err := f.reports.SaveReport(rec, preds)
	if err != nil {
		t.Fatalf("failed to save report: %v", err)
	}
	return saved
}

func TestAPI_SessionLifecycle(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/v1/sessions", `{"intervieweeName":"Ada","interviewerName":"Grace"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("begin: got status %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}
	var begin struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &begin); err != nil {
		t.Fatalf("failed to decode begin response: %v", err)
	}
	if begin.SessionID == "" {
		t.Fatal("expected a session id")
	}

	if w := f.do(t, http.MethodPost, "/v1/sessions/current/pause", ""); w.Code != http.StatusNoContent {
		t.Fatalf("pause: got status %d, want %d", w.Code, http.StatusNoContent)
	}
	if w := f.do(t, http.MethodPost, "/v1/sessions/current/resume", ""); w.Code != http.StatusNoContent {
		t.Fatalf("resume: got status %d, want %d", w.Code, http.StatusNoContent)
	}

	f.clock.Set(5 * time.Second)
	w = f.do(t, http.MethodPost, "/v1/sessions/current/stop", "")
	if w.Code != http.StatusOK {
		t.Fatalf("stop: got status %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
	var rec models.ReportRecord
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("failed to decode stop response: %v", err)
	}
	if rec.IntervieweeName != "Ada" {
		t.Errorf("got interviewee %q, want Ada", rec.IntervieweeName)
	}
	if rec.ID == "" || rec.PredictionsRef == "" {
		t.Errorf("expected persisted record, got %+v", rec)
	}
}

func TestAPI_BeginValidation(t *testing.T) {
	f := newAPIFixture(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"intervieweeName":`},
		{"missing interviewee", `{"interviewerName":"Grace"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/v1/sessions", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("got status %d, want %d", w.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestAPI_BeginWhileActiveConflicts(t *testing.T) {
	f := newAPIFixture(t)

	if w := f.do(t, http.MethodPost, "/v1/sessions", `{"intervieweeName":"Ada"}`); w.Code != http.StatusCreated {
		t.Fatalf("begin: got status %d", w.Code)
	}
	if w := f.do(t, http.MethodPost, "/v1/sessions", `{"intervieweeName":"Bob"}`); w.Code != http.StatusConflict {
		t.Errorf("second begin: got status %d, want %d", w.Code, http.StatusConflict)
	}

	if w := f.do(t, http.MethodDelete, "/v1/sessions/current", ""); w.Code != http.StatusNoContent {
		t.Errorf("abort: got status %d, want %d", w.Code, http.StatusNoContent)
	}
}

func TestAPI_ControlWithoutSessionConflicts(t *testing.T) {
	f := newAPIFixture(t)

	paths := []string{
		"/v1/sessions/current/pause",
		"/v1/sessions/current/resume",
		"/v1/sessions/current/stop",
	}
	for _, path := range paths {
		if w := f.do(t, http.MethodPost, path, ""); w.Code != http.StatusConflict {
			t.Errorf("%s: got status %d, want %d", path, w.Code, http.StatusConflict)
		}
	}
	// Abort is idempotent, no session is not an error.
	if w := f.do(t, http.MethodDelete, "/v1/sessions/current", ""); w.Code != http.StatusNoContent {
		t.Errorf("abort: got status %d, want %d", w.Code, http.StatusNoContent)
	}
}

func TestAPI_Reports(t *testing.T) {
	f := newAPIFixture(t)
	saved := f.saveReport(t)

	w := f.do(t, http.MethodGet, "/v1/reports", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list: got status %d", w.Code)
	}
	var records []models.ReportRecord
	if err := json.Unmarshal(w.Body.Bytes(), &records); err != nil {
		t.Fatalf("failed to decode list response: %v", err)
	}
	if len(records) != 1 || records[0].ID != saved.ID {
		t.Errorf("got records %+v, want one with id %s", records, saved.ID)
	}

	w = f.do(t, http.MethodGet, "/v1/reports/"+saved.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get: got status %d", w.Code)
	}

	if w := f.do(t, http.MethodGet, "/v1/reports/nope", ""); w.Code != http.StatusNotFound {
		t.Errorf("get missing: got status %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestAPI_FrameScrub(t *testing.T) {
	f := newAPIFixture(t)
	saved := f.saveReport(t)

	w := f.do(t, http.MethodGet, "/v1/reports/"+saved.ID+"/frame?at=4500", "")
	if w.Code != http.StatusOK {
		t.Fatalf("frame: got status %d: %s", w.Code, w.Body.String())
	}
	var frame report.Frame
	if err := json.Unmarshal(w.Body.Bytes(), &frame); err != nil {
		t.Fatalf("failed to decode frame: %v", err)
	}
	if frame.Video == nil || frame.Video.Label != models.EmotionHappy {
		t.Errorf("got video %+v, want Happy emission", frame.Video)
	}
	if frame.Audio != nil {
		t.Errorf("got audio %+v, want no data", frame.Audio)
	}
	if frame.Text != "hello" {
		t.Errorf("got text %q, want hello", frame.Text)
	}
}

func TestAPI_FrameValidation(t *testing.T) {
	f := newAPIFixture(t)
	saved := f.saveReport(t)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"missing at", "/v1/reports/" + saved.ID + "/frame", http.StatusBadRequest},
		{"non-numeric at", "/v1/reports/" + saved.ID + "/frame?at=abc", http.StatusBadRequest},
		{"negative at", "/v1/reports/" + saved.ID + "/frame?at=-1", http.StatusBadRequest},
		{"unknown report", "/v1/reports/nope/frame?at=0", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := f.do(t, http.MethodGet, tt.path, ""); w.Code != tt.want {
				t.Errorf("got status %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestAPI_Health(t *testing.T) {
	f := newAPIFixture(t)

	if w := f.do(t, http.MethodGet, "/v1/liveness", ""); w.Code != http.StatusOK {
		t.Errorf("liveness: got status %d", w.Code)
	}
	if w := f.do(t, http.MethodGet, "/v1/readiness", ""); w.Code != http.StatusOK {
		t.Errorf("readiness: got status %d", w.Code)
	}
}
