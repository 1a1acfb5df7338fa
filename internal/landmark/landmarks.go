// Package landmark defines hand landmark types and the detection boundary
// for the gesture recognition pipeline.
package landmark

import "math"

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// Point3D represents a single landmark as normalized (x, y, z) coordinates.
// X and Y are typically in [0,1] relative to the frame; Z is depth relative
// to the wrist.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Hand represents one detected hand in one frame: an ordered, fixed-count
// sequence of landmarks plus detection metadata.
type Hand struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// Distance returns the Euclidean distance between two 3D points.
func Distance(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Normalize translates the landmarks so the wrist sits at the origin and
// scales them so the wrist-to-middle-MCP distance is 1.0. This is the single
// normalization routine used by both the recording path and the prediction
// path; the two must never diverge.
// Returns a new Hand, leaving the receiver untouched.
func (h *Hand) Normalize() *Hand {
	if h == nil {
		return nil
	}

	normalized := &Hand{
		Handedness: h.Handedness,
		Score:      h.Score,
	}

	wrist := h.Points[Wrist]

	for i := 0; i < NumLandmarks; i++ {
		normalized.Points[i] = Point3D{
			X: h.Points[i].X - wrist.X,
			Y: h.Points[i].Y - wrist.Y,
			Z: h.Points[i].Z - wrist.Z,
		}
	}

	// Scale by the wrist-to-middle-MCP distance so hand size and camera
	// distance drop out of the representation.
	scale := Distance(Point3D{}, normalized.Points[MiddleMCP])
	if scale < 1e-10 {
		return normalized
	}

	for i := 0; i < NumLandmarks; i++ {
		normalized.Points[i].X /= scale
		normalized.Points[i].Y /= scale
		normalized.Points[i].Z /= scale
	}

	return normalized
}

// VisibleCount returns how many landmarks have both X and Y inside [0,1],
// i.e. inside the camera frame. Used as a cheap occlusion proxy.
func (h *Hand) VisibleCount() int {
	if h == nil {
		return 0
	}

	count := 0
	for i := 0; i < NumLandmarks; i++ {
		p := h.Points[i]
		if p.X >= 0 && p.X <= 1 && p.Y >= 0 && p.Y <= 1 {
			count++
		}
	}
	return count
}

// PresenceRatio returns the fraction of landmarks inside the frame, in [0,1].
func (h *Hand) PresenceRatio() float64 {
	if h == nil {
		return 0
	}
	return float64(h.VisibleCount()) / float64(NumLandmarks)
}
