package api

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/pidalamatteo/GestureRecognition/internal/smooth"
	"github.com/pidalamatteo/GestureRecognition/internal/store"
)

// SmootherHandler exposes the temporal smoother's state and configuration.
type SmootherHandler struct {
	smoother *smooth.Smoother
	settings *store.SettingsRepository
}

// NewSmootherHandler creates a SmootherHandler. settings may be nil; config
// updates are then applied but not persisted.
func NewSmootherHandler(s *smooth.Smoother, settings *store.SettingsRepository) *SmootherHandler {
	return &SmootherHandler{smoother: s, settings: settings}
}

// ServeHTTP routes smoother requests on /api/smoother.
func (h *SmootherHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.get(w, r)
	case http.MethodPut:
		h.update(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type smootherConfigPayload struct {
	WindowMs        int64   `json:"window_ms"`
	MinConfidence   float64 `json:"min_confidence"`
	MinStableFrames int     `json:"min_stable_frames"`
	ConsensusRatio  float64 `json:"consensus_ratio"`
}

type smootherStateResponse struct {
	Config  smootherConfigPayload `json:"config"`
	Records int                   `json:"records"`
	State   string                `json:"state"`
}

func toConfigPayload(c smooth.Config) smootherConfigPayload {
	return smootherConfigPayload{
		WindowMs:        c.Window.Milliseconds(),
		MinConfidence:   c.MinConfidence,
		MinStableFrames: c.MinStableFrames,
		ConsensusRatio:  c.ConsensusRatio,
	}
}

// get handles GET /api/smoother.
func (h *SmootherHandler) get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, smootherStateResponse{
		Config:  toConfigPayload(h.smoother.Config()),
		Records: h.smoother.Len(),
		State:   h.smoother.DescribeState(),
	})
}

// update handles PUT /api/smoother and hot-swaps the smoothing
// configuration.
func (h *SmootherHandler) update(w http.ResponseWriter, r *http.Request) {
	var req smootherConfigPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.WindowMs <= 0 {
		writeError(w, http.StatusBadRequest, "window_ms must be positive")
		return
	}
	if req.MinConfidence < 0 || req.MinConfidence > 1 {
		writeError(w, http.StatusBadRequest, "min_confidence must be in [0,1]")
		return
	}
	if req.MinStableFrames < 1 {
		writeError(w, http.StatusBadRequest, "min_stable_frames must be at least 1")
		return
	}
	if req.ConsensusRatio <= 0 || req.ConsensusRatio > 1 {
		writeError(w, http.StatusBadRequest, "consensus_ratio must be in (0,1]")
		return
	}

	config := smooth.Config{
		Window:          time.Duration(req.WindowMs) * time.Millisecond,
		MinConfidence:   req.MinConfidence,
		MinStableFrames: req.MinStableFrames,
		ConsensusRatio:  req.ConsensusRatio,
	}
	h.smoother.SetConfig(config)

	if h.settings != nil {
		if err := h.settings.SaveSmoothingConfig(config); err != nil {
			log.Printf("Error persisting smoothing config: %v", err)
		}
	}

	writeJSON(w, http.StatusOK, smootherStateResponse{
		Config:  toConfigPayload(h.smoother.Config()),
		Records: h.smoother.Len(),
		State:   h.smoother.DescribeState(),
	})
}
