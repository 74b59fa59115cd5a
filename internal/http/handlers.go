// Package http exposes the service API: session control, report
// listing, and playback scrubbing.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"interview-emotion-engine/internal/interval"
	"interview-emotion-engine/internal/models"
	"interview-emotion-engine/internal/observability/metrics"
	"interview-emotion-engine/internal/report"
	"interview-emotion-engine/internal/service/capture"
	"interview-emotion-engine/internal/service/recorder"
	"interview-emotion-engine/internal/session"
)

// Handlers implements the API endpoints.
type Handlers struct {
	recorder *recorder.Recorder
	reports  *report.Store
	opts     interval.Options
	log      zerolog.Logger
	metrics  *metrics.Metrics

	// Playback trees are built once per report and cached; scrub
	// queries against the same report reuse them.
	mu        sync.Mutex
	playbacks map[string]*report.Playback
}

// NewHandlers creates the API handlers. The interval options control
// gap reconstruction for scrub queries.
func NewHandlers(rec *recorder.Recorder, reports *report.Store, opts interval.Options, log zerolog.Logger, m *metrics.Metrics) *Handlers {
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Handlers{
		recorder:  rec,
		reports:   reports,
		opts:      opts,
		log:       log,
		metrics:   m,
		playbacks: make(map[string]*report.Playback),
	}
}

type beginSessionRequest struct {
	IntervieweeName string `json:"intervieweeName"`
	InterviewerName string `json:"interviewerName"`
}

type beginSessionResponse struct {
	SessionID string `json:"sessionId"`
}

// BeginSession starts a new recording session.
func (h *Handlers) BeginSession(w http.ResponseWriter, r *http.Request) {
	var req beginSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.IntervieweeName == "" {
		writeError(w, http.StatusBadRequest, "intervieweeName is required")
		return
	}

	id, err := h.recorder.Begin(r.Context(), req.IntervieweeName, req.InterviewerName)
	if err != nil {
		h.writeRecorderError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, beginSessionResponse{SessionID: id})
}

// PauseSession pauses the active session.
func (h *Handlers) PauseSession(w http.ResponseWriter, r *http.Request) {
	if err := h.recorder.Pause(); err != nil {
		h.writeRecorderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResumeSession resumes the paused session.
func (h *Handlers) ResumeSession(w http.ResponseWriter, r *http.Request) {
	if err := h.recorder.Resume(); err != nil {
		h.writeRecorderError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StopSession ends the active session and returns the persisted report
// record.
func (h *Handlers) StopSession(w http.ResponseWriter, r *http.Request) {
	rec, err := h.recorder.Stop()
	if err != nil {
		h.writeRecorderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// AbortSession discards the active session.
func (h *Handlers) AbortSession(w http.ResponseWriter, r *http.Request) {
	h.recorder.Abort()
	w.WriteHeader(http.StatusNoContent)
}

// ListReports returns all report records, newest first.
func (h *Handlers) ListReports(w http.ResponseWriter, r *http.Request) {
	records, err := h.reports.ListRecords()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list reports")
		writeError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}
	if records == nil {
		records = []models.ReportRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// GetReport returns one report record.
func (h *Handlers) GetReport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, err := h.reports.GetRecord(id)
	if errors.Is(err, report.ErrReportNotFound) {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("reportId", id).Msg("Failed to load report")
		writeError(w, http.StatusInternalServerError, "failed to load report")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// GetFrame answers a playback scrub query: the frame valid at the
// elapsed time given by the "at" query parameter, in milliseconds.
func (h *Handlers) GetFrame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	atMs, err := strconv.ParseInt(r.URL.Query().Get("at"), 10, 64)
	if err != nil || atMs < 0 {
		writeError(w, http.StatusBadRequest, "query parameter 'at' must be a non-negative integer of milliseconds")
		return
	}

	playback, err := h.playbackFor(id)
	if errors.Is(err, report.ErrReportNotFound) {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("reportId", id).Msg("Failed to build playback")
		writeError(w, http.StatusInternalServerError, "failed to build playback")
		return
	}

	h.metrics.RecordScrubQuery()
	writeJSON(w, http.StatusOK, playback.FrameAt(time.Duration(atMs)*time.Millisecond))
}

func (h *Handlers) playbackFor(id string) (*report.Playback, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if p, ok := h.playbacks[id]; ok {
		return p, nil
	}

	rec, err := h.reports.GetRecord(id)
	if err != nil {
		return nil, err
	}
	preds, err := h.reports.GetPredictions(rec.PredictionsRef)
	if err != nil {
		return nil, err
	}
	p := report.NewPlayback(rec, preds, h.opts)
	h.playbacks[id] = p
	return p, nil
}

func (h *Handlers) writeRecorderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSessionActive):
		writeError(w, http.StatusConflict, "a session is already active")
	case errors.Is(err, session.ErrNoSession):
		writeError(w, http.StatusConflict, "no active session")
	case errors.Is(err, capture.ErrNotRecording), errors.Is(err, capture.ErrNotPaused):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.log.Error().Err(err).Msg("Session operation failed")
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
