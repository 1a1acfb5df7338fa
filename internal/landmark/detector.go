package landmark

import "gocv.io/x/gocv"

// Result holds the detections for one video frame together with the frame
// geometry they were computed against.
type Result struct {
	Hands       []Hand `json:"hands"`
	FrameWidth  int    `json:"frame_width"`
	FrameHeight int    `json:"frame_height"`
	// Orientation is the frame rotation in degrees (0, 90, 180, 270).
	Orientation int `json:"orientation"`
}

// First returns the first detected hand, or nil if no hand was detected.
// The pipeline consumes only the first hand.
func (r *Result) First() *Hand {
	if r == nil || len(r.Hands) == 0 {
		return nil
	}
	return &r.Hands[0]
}

// Detector defines the interface for hand landmark detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns detected hand landmarks.
	// A result with zero hands is not an error.
	Detect(frame *gocv.Mat) (*Result, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for hand detection.
type Config struct {
	// MaxHands is the maximum number of hands to detect (default: 2).
	MaxHands int

	// MinConfidence is the minimum detection confidence threshold (0.0-1.0).
	MinConfidence float64

	// MinTrackingConf is the minimum tracking confidence threshold (0.0-1.0).
	MinTrackingConf float64
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		MaxHands:        2,
		MinConfidence:   0.5,
		MinTrackingConf: 0.5,
	}
}
