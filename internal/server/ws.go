package server

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/pidalamatteo/GestureRecognition/internal/classify"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// PredictionSource is the pipeline surface the WebSocket stream consumes.
type PredictionSource interface {
	Subscribe() (<-chan classify.Prediction, func())
}

// PredictionsHandler streams stable predictions to WebSocket clients. Each
// client gets its own pipeline subscription; a slow client only drops its
// own messages.
type PredictionsHandler struct {
	source PredictionSource
}

// NewPredictionsHandler creates a PredictionsHandler over the given source.
func NewPredictionsHandler(source PredictionSource) *PredictionsHandler {
	return &PredictionsHandler{source: source}
}

// ServeHTTP upgrades the connection and forwards stable predictions until
// the client goes away.
func (h *PredictionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	predictions, cancel := h.source.Subscribe()
	defer cancel()

	// Drain client messages so pings and close frames are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case pred, ok := <-predictions:
			if !ok {
				return
			}
			if err := conn.WriteJSON(pred); err != nil {
				return
			}
		}
	}
}
