package sample

import (
	"log"
	"sync"

	"github.com/pidalamatteo/GestureRecognition/internal/landmark"
)

// FrameSkip is the recording cadence: one in every FrameSkip offered
// frames is considered for capture, bounding the write rate independent of
// the camera frame rate.
const FrameSkip = 2

// Recorder captures labeled samples during a supervised recording session.
// Frames are offered by the pipeline; the recorder throttles them, runs the
// acceptance policy, and appends survivors to the store.
type Recorder struct {
	mu         sync.Mutex
	store      *Store
	policy     *AcceptancePolicy
	active     bool
	label      string
	frameCount uint64
	captured   int
}

// NewRecorder creates a Recorder over the given store and policy.
func NewRecorder(store *Store, policy *AcceptancePolicy) *Recorder {
	return &Recorder{
		store:  store,
		policy: policy,
	}
}

// Start begins a recording session for the given label. Starting while a
// session is active switches the label and restarts the counters.
func (r *Recorder) Start(label string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.active = true
	r.label = label
	r.frameCount = 0
	r.captured = 0
	log.Printf("Recording started for label %q", label)
}

// Stop ends the recording session and returns how many samples were
// captured. The policy baselines are reset so the next session starts
// fresh.
func (r *Recorder) Stop() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.active {
		return 0
	}

	r.active = false
	r.policy.Reset()
	log.Printf("Recording stopped for label %q after %d samples", r.label, r.captured)
	return r.captured
}

// Active returns whether a session is running and for which label.
func (r *Recorder) Active() (bool, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active, r.label
}

// Captured returns how many samples the current session has stored.
func (r *Recorder) Captured() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.captured
}

// Offer presents a detected hand to the recorder. Returns true when the
// frame was stored as a sample. Persistence failures are logged, not
// fatal: the sample is already in memory and the file is rewritten on the
// next mutation.
func (r *Recorder) Offer(hand *landmark.Hand) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.active || hand == nil {
		return false
	}

	// Fixed frame-skip cadence
	r.frameCount++
	if r.frameCount%FrameSkip != 0 {
		return false
	}

	if !r.policy.ShouldAccept(r.label, hand) {
		return false
	}

	if err := r.store.Append(Sample{
		Label:     r.label,
		Landmarks: append([]landmark.Point3D(nil), hand.Points[:]...),
	}); err != nil {
		log.Printf("Error persisting sample for %q: %v", r.label, err)
	}
	r.captured++
	return true
}
