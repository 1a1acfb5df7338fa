package api

import (
	"net/http"
	"strings"

	"github.com/pidalamatteo/GestureRecognition/internal/classify"
)

// ThresholdsHandler exposes the per-class acceptance thresholds and their
// reload endpoint.
type ThresholdsHandler struct {
	manager     *classify.ThresholdManager
	metricsPath string
}

// NewThresholdsHandler creates a ThresholdsHandler. metricsPath is the
// evaluation-metrics file re-read on reload; it may be empty when no
// metrics file is deployed.
func NewThresholdsHandler(m *classify.ThresholdManager, metricsPath string) *ThresholdsHandler {
	return &ThresholdsHandler{manager: m, metricsPath: metricsPath}
}

// ServeHTTP routes threshold requests.
// Expected paths: /api/thresholds and /api/thresholds/reload.
func (h *ThresholdsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/thresholds")
	path = strings.TrimPrefix(path, "/")

	switch path {
	case "":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.get(w, r)
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

type thresholdsResponse struct {
	Default float64                 `json:"default"`
	Classes classify.ThresholdTable `json:"classes"`
}

// get handles GET /api/thresholds.
func (h *ThresholdsHandler) get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, thresholdsResponse{
		Default: h.manager.Default(),
		Classes: h.manager.Table(),
	})
}

// reload handles POST /api/thresholds/reload and re-reads the metrics
// file. On failure the table has already been cleared, so every class is
// back on the global default; the response says so.
func (h *ThresholdsHandler) reload(w http.ResponseWriter, r *http.Request) {
	if h.metricsPath == "" {
		writeError(w, http.StatusServiceUnavailable, "No metrics file configured")
		return
	}

	if err := h.manager.LoadMetricsFile(h.metricsPath); err != nil {
		writeError(w, http.StatusUnprocessableEntity,
			"Failed to load metrics, thresholds reset to default: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, thresholdsResponse{
		Default: h.manager.Default(),
		Classes: h.manager.Table(),
	})
}
