package sample

import (
	"math"
	"sync"

	"github.com/pidalamatteo/GestureRecognition/internal/landmark"
)

// Acceptance policy defaults.
const (
	// DefaultMinPresence is the minimum fraction of landmarks that must
	// lie inside the frame for a sample to be considered.
	DefaultMinPresence = 0.5
	// DefaultMinVisibleLandmarks is the minimum count of in-frame
	// landmarks.
	DefaultMinVisibleLandmarks = 5
	// DefaultMinDistance is the minimum mean per-landmark distance to the
	// last saved sample of the same label.
	DefaultMinDistance = 0.05
)

// PolicyConfig holds the acceptance policy parameters.
type PolicyConfig struct {
	MinPresence         float64 `json:"min_presence"`
	MinVisibleLandmarks int     `json:"min_visible_landmarks"`
	MinDistance         float64 `json:"min_distance"`
}

// DefaultPolicyConfig returns the acceptance policy defaults.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		MinPresence:         DefaultMinPresence,
		MinVisibleLandmarks: DefaultMinVisibleLandmarks,
		MinDistance:         DefaultMinDistance,
	}
}

// AcceptancePolicy decides whether a newly observed frame is worth
// persisting as a training sample. It rejects occluded frames and
// near-duplicates of the previously saved sample for the same label.
type AcceptancePolicy struct {
	mu     sync.Mutex
	config PolicyConfig
	last   map[string][]landmark.Point3D
}

// NewAcceptancePolicy creates a policy with the given configuration.
func NewAcceptancePolicy(config PolicyConfig) *AcceptancePolicy {
	return &AcceptancePolicy{
		config: config,
		last:   make(map[string][]landmark.Point3D),
	}
}

// ShouldAccept reports whether the hand should be stored as a sample for
// the label. Accepted frames become the comparison baseline for the next
// decision on that label.
//
// Rules, in order:
//  1. Reject when the in-frame landmark fraction is below MinPresence.
//  2. Reject when fewer than MinVisibleLandmarks landmarks are in frame.
//  3. Accept the first sample for a label unconditionally.
//  4. Otherwise require the mean per-landmark 3D distance to the last
//     saved frame to be at least MinDistance.
func (p *AcceptancePolicy) ShouldAccept(label string, hand *landmark.Hand) bool {
	if hand == nil {
		return false
	}

	if hand.PresenceRatio() < p.config.MinPresence {
		return false
	}
	if hand.VisibleCount() < p.config.MinVisibleLandmarks {
		return false
	}

	points := hand.Points[:]

	p.mu.Lock()
	defer p.mu.Unlock()

	previous, seen := p.last[label]
	if seen && meanDistance(points, previous) < p.config.MinDistance {
		return false
	}

	saved := make([]landmark.Point3D, len(points))
	copy(saved, points)
	p.last[label] = saved
	return true
}

// Reset forgets all comparison baselines, typically when a recording
// session ends.
func (p *AcceptancePolicy) Reset() {
	p.mu.Lock()
	p.last = make(map[string][]landmark.Point3D)
	p.mu.Unlock()
}

// meanDistance returns the mean 3D Euclidean distance between matching
// landmark indices. Frames with differing landmark counts cannot be
// compared; the distance is defined as infinite so such frames are always
// accepted, never an error.
func meanDistance(a, b []landmark.Point3D) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	if len(a) == 0 {
		return 0
	}

	var total float64
	for i := range a {
		total += landmark.Distance(a[i], b[i])
	}
	return total / float64(len(a))
}
