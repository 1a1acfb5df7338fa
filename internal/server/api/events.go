package api

import (
	"net/http"
	"strconv"

	"github.com/pidalamatteo/GestureRecognition/internal/store"
)

// EventsHandler serves the recognition-event history.
type EventsHandler struct {
	events *store.EventRepository
}

// NewEventsHandler creates an EventsHandler over the given repository.
func NewEventsHandler(events *store.EventRepository) *EventsHandler {
	return &EventsHandler{events: events}
}

// ServeHTTP handles GET /api/events.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	events, err := h.events.List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events")
		return
	}

	type eventResponse struct {
		ID           string  `json:"id"`
		Label        string  `json:"label"`
		Confidence   float64 `json:"confidence"`
		RecognizedAt string  `json:"recognized_at"`
	}

	response := struct {
		Events []eventResponse `json:"events"`
	}{Events: make([]eventResponse, 0, len(events))}

	for _, e := range events {
		response.Events = append(response.Events, eventResponse{
			ID:           e.ID,
			Label:        e.Label,
			Confidence:   e.Confidence,
			RecognizedAt: e.RecognizedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	writeJSON(w, http.StatusOK, response)
}
