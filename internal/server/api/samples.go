package api

import (
	"net/http"
	"strings"

	"github.com/pidalamatteo/GestureRecognition/internal/sample"
)

// SamplesHandler handles HTTP requests for the training-sample collection.
type SamplesHandler struct {
	store *sample.Store
}

// NewSamplesHandler creates a SamplesHandler over the given sample store.
func NewSamplesHandler(s *sample.Store) *SamplesHandler {
	return &SamplesHandler{store: s}
}

// ServeHTTP routes sample requests.
// Expected paths: /api/samples and /api/samples/reload.
func (h *SamplesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/samples")
	path = strings.TrimPrefix(path, "/")

	switch path {
	case "":
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodDelete:
			h.remove(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case "reload":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.reload(w, r)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

type sampleResponse struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	CreatedAt string `json:"created_at"`
}

type listSamplesResponse struct {
	Total   int              `json:"total"`
	Counts  map[string]int   `json:"counts"`
	Samples []sampleResponse `json:"samples"`
}

type removeSamplesResponse struct {
	Removed int `json:"removed"`
}

// list handles GET /api/samples. An optional label query filters the
// listing; counts always cover the whole store.
func (h *SamplesHandler) list(w http.ResponseWriter, r *http.Request) {
	label := r.URL.Query().Get("label")

	all := h.store.All()
	response := listSamplesResponse{
		Total:   len(all),
		Counts:  h.store.CountByLabel(),
		Samples: make([]sampleResponse, 0, len(all)),
	}

	for _, s := range all {
		if label != "" && s.Label != label {
			continue
		}
		response.Samples = append(response.Samples, sampleResponse{
			ID:        s.ID,
			Label:     s.Label,
			CreatedAt: s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	writeJSON(w, http.StatusOK, response)
}

// remove handles DELETE /api/samples. With a label query it removes that
// label's samples; without one it clears the store.
func (h *SamplesHandler) remove(w http.ResponseWriter, r *http.Request) {
	label := r.URL.Query().Get("label")

	if label == "" {
		removed := h.store.Len()
		if err := h.store.Clear(); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to clear samples")
			return
		}
		writeJSON(w, http.StatusOK, removeSamplesResponse{Removed: removed})
		return
	}

	removed, err := h.store.Remove(func(l string) bool { return l == label })
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to remove samples")
		return
	}
	writeJSON(w, http.StatusOK, removeSamplesResponse{Removed: removed})
}

// reload handles POST /api/samples/reload and re-reads the store from disk,
// picking up samples written by external tooling.
func (h *SamplesHandler) reload(w http.ResponseWriter, r *http.Request) {
	samples, err := h.store.Reload()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload samples")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"total": len(samples)})
}
