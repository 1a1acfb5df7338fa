// Package sample implements supervised capture of labeled landmark samples:
// the acceptance policy that filters frames worth keeping, the persisted
// sample store, and the recorder that drives capture cadence.
package sample

import (
	"time"

	"github.com/pidalamatteo/GestureRecognition/internal/landmark"
)

// Sample is one labeled landmark frame captured during recording, intended
// for offline model training. Samples store raw (un-normalized) landmarks;
// feature generation at training time runs the same normalization as
// inference.
type Sample struct {
	ID        string             `json:"id"`
	Label     string             `json:"label"`
	Landmarks []landmark.Point3D `json:"landmarks"`
	CreatedAt time.Time          `json:"created_at"`
}
