package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pidalamatteo/GestureRecognition/internal/sample"
)

// RecordingController is the pipeline surface the recording endpoints
// drive.
type RecordingController interface {
	StartRecording(label string)
	StopRecording() int
	Recorder() *sample.Recorder
}

// RecordingHandler handles start/stop of sample recording sessions.
type RecordingHandler struct {
	pipeline RecordingController
}

// NewRecordingHandler creates a RecordingHandler over the given pipeline.
func NewRecordingHandler(p RecordingController) *RecordingHandler {
	return &RecordingHandler{pipeline: p}
}

// ServeHTTP routes recording requests.
// Expected paths: /api/recording, /api/recording/start, /api/recording/stop.
func (h *RecordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/recording")
	path = strings.TrimPrefix(path, "/")

	switch path {
	case "":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.status(w, r)
	case "start":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.start(w, r)
	case "stop":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.stop(w, r)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type startRecordingRequest struct {
	Label string `json:"label"`
}

type recordingStatusResponse struct {
	Active   bool   `json:"active"`
	Label    string `json:"label,omitempty"`
	Captured int    `json:"captured"`
}

// status handles GET /api/recording.
func (h *RecordingHandler) status(w http.ResponseWriter, r *http.Request) {
	recorder := h.pipeline.Recorder()
	if recorder == nil {
		writeError(w, http.StatusServiceUnavailable, "Recording is not available")
		return
	}

	active, label := recorder.Active()
	writeJSON(w, http.StatusOK, recordingStatusResponse{
		Active:   active,
		Label:    label,
		Captured: recorder.Captured(),
	})
}

// start handles POST /api/recording/start.
func (h *RecordingHandler) start(w http.ResponseWriter, r *http.Request) {
	recorder := h.pipeline.Recorder()
	if recorder == nil {
		writeError(w, http.StatusServiceUnavailable, "Recording is not available")
		return
	}

	var req startRecordingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Label = strings.TrimSpace(req.Label)
	if req.Label == "" {
		writeError(w, http.StatusBadRequest, "Label is required")
		return
	}

	if active, current := recorder.Active(); active {
		writeError(w, http.StatusConflict, "Already recording label "+current)
		return
	}

	h.pipeline.StartRecording(req.Label)
	writeJSON(w, http.StatusOK, recordingStatusResponse{Active: true, Label: req.Label})
}

// stop handles POST /api/recording/stop.
func (h *RecordingHandler) stop(w http.ResponseWriter, r *http.Request) {
	recorder := h.pipeline.Recorder()
	if recorder == nil {
		writeError(w, http.StatusServiceUnavailable, "Recording is not available")
		return
	}

	if active, _ := recorder.Active(); !active {
		writeError(w, http.StatusConflict, "Not recording")
		return
	}

	captured := h.pipeline.StopRecording()
	writeJSON(w, http.StatusOK, recordingStatusResponse{Active: false, Captured: captured})
}
