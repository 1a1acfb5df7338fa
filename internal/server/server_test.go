package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pidalamatteo/GestureRecognition/internal/capture"
	"github.com/pidalamatteo/GestureRecognition/internal/classify"
	"github.com/pidalamatteo/GestureRecognition/internal/feature"
	"github.com/pidalamatteo/GestureRecognition/internal/landmark"
	"github.com/pidalamatteo/GestureRecognition/internal/pipeline"
	"github.com/pidalamatteo/GestureRecognition/internal/sample"
	"github.com/pidalamatteo/GestureRecognition/internal/smooth"
	"github.com/pidalamatteo/GestureRecognition/internal/store"
)

// testEnv bundles a fully wired server over temp stores and mocks.
type testEnv struct {
	server     *Server
	store      *store.Store
	samples    *sample.Store
	thresholds *classify.ThresholdManager
	dir        string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "gestured-server-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })

	db, err := store.New(filepath.Join(tmpDir, "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	samples, err := sample.NewStore(filepath.Join(tmpDir, "samples.json"))
	if err != nil {
		t.Fatalf("failed to create sample store: %v", err)
	}

	model := classify.NewMockModel(feature.FullWidth)
	model.SetProbabilities(map[string]float64{"thumbs_up": 0.9})
	thresholds := classify.NewThresholdManager(classify.DefaultThreshold)

	p := pipeline.New(pipeline.Config{
		Camera:     capture.NewMockCamera(nil, true),
		Detector:   landmark.NewMockDetector(),
		Extractor:  feature.NewExtractor(),
		Classifier: classify.NewClassifier(model, thresholds, 0),
		Smoother:   smooth.New(smooth.DefaultConfig()),
		Recorder:   sample.NewRecorder(samples, sample.NewAcceptancePolicy(sample.DefaultPolicyConfig())),
	})

	s := New(Config{
		Store:       db,
		Samples:     samples,
		Pipeline:    p,
		Thresholds:  thresholds,
		MetricsPath: filepath.Join(tmpDir, "metrics.json"),
	})

	return &testEnv{server: s, store: db, samples: samples, thresholds: thresholds, dir: tmpDir}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestServer_Health(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response map[string]interface{}
	decodeBody(t, rec, &response)
	if response["status"] != "ok" {
		t.Errorf("expected status 'ok', got %v", response["status"])
	}
	if _, exists := response["uptime"]; !exists {
		t.Error("expected 'uptime' field in response")
	}

	rec = env.do(t, http.MethodPost, "/api/health", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST health: expected status %d, got %d", http.StatusMethodNotAllowed, rec.Code)
	}
}

func TestServer_SamplesEndpoints(t *testing.T) {
	env := newTestEnv(t)

	hand := landmark.ThumbsUpHand()
	for _, label := range []string{"fist", "fist", "wave"} {
		if err := env.samples.Append(sample.Sample{Label: label, Landmarks: hand.Points[:]}); err != nil {
			t.Fatalf("failed to seed sample: %v", err)
		}
	}

	// GET lists everything with per-label counts.
	rec := env.do(t, http.MethodGet, "/api/samples", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var list struct {
		Total  int            `json:"total"`
		Counts map[string]int `json:"counts"`
	}
	decodeBody(t, rec, &list)
	if list.Total != 3 {
		t.Errorf("expected 3 samples, got %d", list.Total)
	}
	if list.Counts["fist"] != 2 {
		t.Errorf("expected 2 fist samples, got %d", list.Counts["fist"])
	}

	// DELETE with a label removes only that label.
	rec = env.do(t, http.MethodDelete, "/api/samples?label=fist", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var removed struct {
		Removed int `json:"removed"`
	}
	decodeBody(t, rec, &removed)
	if removed.Removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed.Removed)
	}
	if env.samples.Len() != 1 {
		t.Errorf("expected 1 remaining sample, got %d", env.samples.Len())
	}

	// POST /reload re-reads the store from disk.
	rec = env.do(t, http.MethodPost, "/api/samples/reload", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reload: expected status %d, got %d", http.StatusOK, rec.Code)
	}

	// DELETE without a label clears the store.
	rec = env.do(t, http.MethodDelete, "/api/samples", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("clear: expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if env.samples.Len() != 0 {
		t.Errorf("expected empty store, got %d samples", env.samples.Len())
	}
}

func TestServer_RecordingEndpoints(t *testing.T) {
	env := newTestEnv(t)

	// Initially not recording.
	rec := env.do(t, http.MethodGet, "/api/recording", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: expected %d, got %d", http.StatusOK, rec.Code)
	}
	var status struct {
		Active bool   `json:"active"`
		Label  string `json:"label"`
	}
	decodeBody(t, rec, &status)
	if status.Active {
		t.Error("expected recording to be inactive initially")
	}

	// Start without a label is rejected.
	rec = env.do(t, http.MethodPost, "/api/recording/start", map[string]string{"label": " "})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("blank label: expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}

	// Start a session.
	rec = env.do(t, http.MethodPost, "/api/recording/start", map[string]string{"label": "fist"})
	if rec.Code != http.StatusOK {
		t.Fatalf("start: expected status %d, got %d", http.StatusOK, rec.Code)
	}

	// Starting again conflicts.
	rec = env.do(t, http.MethodPost, "/api/recording/start", map[string]string{"label": "wave"})
	if rec.Code != http.StatusConflict {
		t.Errorf("double start: expected status %d, got %d", http.StatusConflict, rec.Code)
	}

	// Stop the session.
	rec = env.do(t, http.MethodPost, "/api/recording/stop", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stop: expected status %d, got %d", http.StatusOK, rec.Code)
	}

	// Stopping again conflicts.
	rec = env.do(t, http.MethodPost, "/api/recording/stop", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("double stop: expected status %d, got %d", http.StatusConflict, rec.Code)
	}
}

func TestServer_ThresholdsEndpoints(t *testing.T) {
	env := newTestEnv(t)

	// GET returns the default and an empty table before any metrics load.
	rec := env.do(t, http.MethodGet, "/api/thresholds", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var thresholds struct {
		Default float64            `json:"default"`
		Classes map[string]float64 `json:"classes"`
	}
	decodeBody(t, rec, &thresholds)
	if thresholds.Default != classify.DefaultThreshold {
		t.Errorf("expected default %v, got %v", classify.DefaultThreshold, thresholds.Default)
	}
	if len(thresholds.Classes) != 0 {
		t.Errorf("expected empty class table, got %v", thresholds.Classes)
	}

	// Reload with no metrics file on disk fails and falls back to default.
	rec = env.do(t, http.MethodPost, "/api/thresholds/reload", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("missing metrics: expected status %d, got %d", http.StatusUnprocessableEntity, rec.Code)
	}

	// Write a metrics file and reload again.
	metrics := `{"classes":[{"label":"fist","precision":0.9,"recall":0.85,"f1":0.87,"support":120}]}`
	if err := os.WriteFile(filepath.Join(env.dir, "metrics.json"), []byte(metrics), 0644); err != nil {
		t.Fatalf("failed to write metrics file: %v", err)
	}

	rec = env.do(t, http.MethodPost, "/api/thresholds/reload", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reload: expected status %d, got %d", http.StatusOK, rec.Code)
	}
	decodeBody(t, rec, &thresholds)
	if _, ok := thresholds.Classes["fist"]; !ok {
		t.Errorf("expected a threshold for fist after reload, got %v", thresholds.Classes)
	}
}

func TestServer_SmootherEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/smoother", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: expected status %d, got %d", http.StatusOK, rec.Code)
	}

	// Valid update is applied and persisted.
	update := map[string]interface{}{
		"window_ms":         3000,
		"min_confidence":    0.6,
		"min_stable_frames": 4,
		"consensus_ratio":   0.7,
	}
	rec = env.do(t, http.MethodPut, "/api/smoother", update)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected status %d, got %d, body %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	saved, err := env.store.Settings().LoadSmoothingConfig()
	if err != nil {
		t.Fatalf("expected persisted smoothing config: %v", err)
	}
	if saved.Window != 3*time.Second {
		t.Errorf("expected persisted window 3s, got %v", saved.Window)
	}

	// Invalid updates are rejected.
	invalid := map[string]interface{}{
		"window_ms":         0,
		"min_confidence":    0.6,
		"min_stable_frames": 4,
		"consensus_ratio":   0.7,
	}
	rec = env.do(t, http.MethodPut, "/api/smoother", invalid)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid window: expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestServer_EventsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, label := range []string{"fist", "wave"} {
		err := env.store.Events().Create(&store.Event{
			ID:           label,
			Label:        label,
			Confidence:   0.8,
			RecognizedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("failed to seed event: %v", err)
		}
	}

	rec := env.do(t, http.MethodGet, "/api/events", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var events struct {
		Events []struct {
			Label string `json:"label"`
		} `json:"events"`
	}
	decodeBody(t, rec, &events)
	if len(events.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events.Events))
	}
	if events.Events[0].Label != "wave" {
		t.Errorf("expected newest event first, got %q", events.Events[0].Label)
	}

	rec = env.do(t, http.MethodGet, "/api/events?limit=abc", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit: expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestServer_BindingsEndpoints(t *testing.T) {
	env := newTestEnv(t)

	// Create a binding.
	rec := env.do(t, http.MethodPost, "/api/bindings", map[string]string{
		"label":   "thumbs_up",
		"command": "notify-send ok",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected status %d, got %d, body %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	var created struct {
		ID      string `json:"id"`
		Enabled bool   `json:"enabled"`
	}
	decodeBody(t, rec, &created)
	if created.ID == "" {
		t.Fatal("expected an assigned binding ID")
	}
	if !created.Enabled {
		t.Error("bindings should default to enabled")
	}

	// Duplicate label conflicts.
	rec = env.do(t, http.MethodPost, "/api/bindings", map[string]string{
		"label":   "thumbs_up",
		"command": "other",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate: expected status %d, got %d", http.StatusConflict, rec.Code)
	}

	// List shows it.
	rec = env.do(t, http.MethodGet, "/api/bindings", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var list struct {
		Bindings []struct {
			Label string `json:"label"`
		} `json:"bindings"`
	}
	decodeBody(t, rec, &list)
	if len(list.Bindings) != 1 {
		t.Fatalf("expected 1 binding, got %d", len(list.Bindings))
	}

	// Update it.
	rec = env.do(t, http.MethodPut, "/api/bindings/"+created.ID, map[string]interface{}{
		"label":   "thumbs_up",
		"command": "changed",
		"enabled": false,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected status %d, got %d", http.StatusOK, rec.Code)
	}

	// Delete it; a second delete is a 404.
	rec = env.do(t, http.MethodDelete, "/api/bindings/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected status %d, got %d", http.StatusNoContent, rec.Code)
	}
	rec = env.do(t, http.MethodDelete, "/api/bindings/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestServer_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/nonexistent", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}
