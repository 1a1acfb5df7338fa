// Package server provides the HTTP and WebSocket surface of the gesture
// recognition service.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pidalamatteo/GestureRecognition/internal/capture"
	"github.com/pidalamatteo/GestureRecognition/internal/classify"
	"github.com/pidalamatteo/GestureRecognition/internal/pipeline"
	"github.com/pidalamatteo/GestureRecognition/internal/sample"
	"github.com/pidalamatteo/GestureRecognition/internal/server/api"
	"github.com/pidalamatteo/GestureRecognition/internal/store"
)

// Config holds the server configuration. Nil collaborators leave their
// endpoints unregistered.
type Config struct {
	Store       *store.Store
	Samples     *sample.Store
	Pipeline    *pipeline.Pipeline
	Thresholds  *classify.ThresholdManager
	MetricsPath string
	Camera      capture.Camera
	StaticDir   string
}

// Server is the HTTP handler for the service API.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Samples != nil {
		samplesHandler := api.NewSamplesHandler(s.config.Samples)
		s.mux.Handle("/api/samples", samplesHandler)
		s.mux.Handle("/api/samples/", samplesHandler)
	}

	if s.config.Pipeline != nil {
		recordingHandler := api.NewRecordingHandler(s.config.Pipeline)
		s.mux.Handle("/api/recording", recordingHandler)
		s.mux.Handle("/api/recording/", recordingHandler)

		var settings *store.SettingsRepository
		if s.config.Store != nil {
			settings = s.config.Store.Settings()
		}
		s.mux.Handle("/api/smoother", api.NewSmootherHandler(s.config.Pipeline.Smoother(), settings))

		s.mux.Handle("/api/predictions", NewPredictionsHandler(s.config.Pipeline))
	}

	if s.config.Thresholds != nil {
		thresholdsHandler := api.NewThresholdsHandler(s.config.Thresholds, s.config.MetricsPath)
		s.mux.Handle("/api/thresholds", thresholdsHandler)
		s.mux.Handle("/api/thresholds/", thresholdsHandler)
	}

	if s.config.Store != nil {
		s.mux.Handle("/api/events", api.NewEventsHandler(s.config.Store.Events()))

		bindingsHandler := api.NewBindingsHandler(s.config.Store.Bindings())
		s.mux.Handle("/api/bindings", bindingsHandler)
		s.mux.Handle("/api/bindings/", bindingsHandler)
	}

	if s.config.Camera != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Camera))
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Pipeline != nil {
		response["pipeline_enabled"] = s.config.Pipeline.IsEnabled()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
