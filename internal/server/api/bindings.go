package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/pidalamatteo/GestureRecognition/internal/store"
)

// BindingsHandler handles HTTP requests for gesture-to-command bindings.
type BindingsHandler struct {
	bindings *store.BindingRepository
}

// NewBindingsHandler creates a BindingsHandler over the given repository.
func NewBindingsHandler(b *store.BindingRepository) *BindingsHandler {
	return &BindingsHandler{bindings: b}
}

// ServeHTTP routes binding requests.
// Expected paths: /api/bindings or /api/bindings/{id}.
func (h *BindingsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/bindings")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id := path
	switch r.Method {
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type bindingRequest struct {
	Label   string `json:"label"`
	Command string `json:"command"`
	Enabled *bool  `json:"enabled"`
}

type bindingResponse struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Command   string `json:"command"`
	Enabled   bool   `json:"enabled"`
	CreatedAt string `json:"created_at"`
}

type listBindingsResponse struct {
	Bindings []bindingResponse `json:"bindings"`
}

// toBindingResponse converts a store.Binding to a bindingResponse.
func toBindingResponse(b *store.Binding) bindingResponse {
	return bindingResponse{
		ID:        b.ID,
		Label:     b.Label,
		Command:   b.Command,
		Enabled:   b.Enabled,
		CreatedAt: b.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// list handles GET /api/bindings and returns all bindings.
func (h *BindingsHandler) list(w http.ResponseWriter, r *http.Request) {
	bindings, err := h.bindings.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bindings")
		return
	}

	response := listBindingsResponse{
		Bindings: make([]bindingResponse, 0, len(bindings)),
	}
	for _, b := range bindings {
		response.Bindings = append(response.Bindings, toBindingResponse(b))
	}

	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/bindings.
func (h *BindingsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req bindingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Label = strings.TrimSpace(req.Label)
	req.Command = strings.TrimSpace(req.Command)
	if req.Label == "" {
		writeError(w, http.StatusBadRequest, "Label is required")
		return
	}
	if req.Command == "" {
		writeError(w, http.StatusBadRequest, "Command is required")
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	binding := &store.Binding{
		ID:      uuid.NewString(),
		Label:   req.Label,
		Command: req.Command,
		Enabled: enabled,
	}
	if err := h.bindings.Create(binding); err != nil {
		writeError(w, http.StatusConflict, "Failed to create binding, label may already be bound")
		return
	}

	writeJSON(w, http.StatusCreated, toBindingResponse(binding))
}

// update handles PUT /api/bindings/{id}.
func (h *BindingsHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	var req bindingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	req.Label = strings.TrimSpace(req.Label)
	req.Command = strings.TrimSpace(req.Command)
	if req.Label == "" || req.Command == "" {
		writeError(w, http.StatusBadRequest, "Label and command are required")
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	binding := &store.Binding{
		ID:      id,
		Label:   req.Label,
		Command: req.Command,
		Enabled: enabled,
	}
	if err := h.bindings.Update(binding); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Binding not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update binding")
		return
	}

	writeJSON(w, http.StatusOK, toBindingResponse(binding))
}

// delete handles DELETE /api/bindings/{id}.
func (h *BindingsHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.bindings.Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Binding not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete binding")
		return
	}

	writeJSON(w, http.StatusNoContent, nil)
}
