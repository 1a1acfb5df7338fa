// Package smooth turns noisy per-frame gesture predictions into a stable
// label via time-windowed consensus voting.
package smooth

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pidalamatteo/GestureRecognition/internal/classify"
)

const (
	// HistoryCap bounds the prediction history regardless of the time
	// window, so memory stays fixed even at high frame rates.
	HistoryCap = 50

	// FastPathCutoff is the confidence above which the newest prediction
	// is returned immediately, bypassing consensus. This trades stability
	// for responsiveness on very confident frames.
	FastPathCutoff = 0.85
)

// Config holds the smoothing parameters. Each decision reads one consistent
// snapshot; the config may be swapped between decisions but never observed
// mid-decision.
type Config struct {
	// Window is the maximum age of predictions considered for consensus.
	Window time.Duration `json:"window"`
	// MinConfidence gates both the whole-window mean and the winning
	// label's mean confidence.
	MinConfidence float64 `json:"min_confidence"`
	// MinStableFrames is the history size below which no consensus is
	// attempted.
	MinStableFrames int `json:"min_stable_frames"`
	// ConsensusRatio is the minimum share of window records the winning
	// label must hold, in (0,1].
	ConsensusRatio float64 `json:"consensus_ratio"`
}

// DefaultConfig returns the smoothing parameters used in production.
func DefaultConfig() Config {
	return Config{
		Window:          2 * time.Second,
		MinConfidence:   0.5,
		MinStableFrames: 3,
		ConsensusRatio:  0.6,
	}
}

// Smoother maintains a rolling window of single-frame predictions and
// produces a stabilized (label, confidence) via consensus voting.
//
// The history is owned exclusively by the Smoother. Callers are expected to
// serialize Observe calls (the pipeline funnels them through one worker
// goroutine); the internal mutex additionally protects Reset, SetConfig and
// DescribeState, which may arrive from other goroutines.
type Smoother struct {
	mu      sync.Mutex
	config  Config
	history []classify.Prediction
	lastSeq uint64
}

// New creates a Smoother with the given configuration.
func New(config Config) *Smoother {
	return &Smoother{config: config}
}

// SetConfig swaps the smoothing parameters. The next decision uses the new
// snapshot; the current one is unaffected.
func (s *Smoother) SetConfig(config Config) {
	s.mu.Lock()
	s.config = config
	s.mu.Unlock()
}

// Config returns the current smoothing parameters.
func (s *Smoother) Config() Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

// Observe appends a new single-frame prediction and returns the stabilized
// prediction for the window, if any.
//
// Predictions carry the frame-arrival sequence number; a prediction whose
// Seq is not newer than the last applied one completed out of order and is
// discarded without touching the history.
func (s *Smoother) Observe(pred classify.Prediction) (classify.Prediction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pred.Seq != 0 && pred.Seq <= s.lastSeq {
		// Out-of-order completion. Dropping it keeps the history in
		// frame-arrival order.
		return classify.Prediction{}, false
	}
	if pred.Seq != 0 {
		s.lastSeq = pred.Seq
	}

	s.history = append(s.history, pred)
	s.evict(pred.Timestamp)

	return s.decide(true)
}

// ObserveMiss records that the current frame produced no usable prediction
// (classification failed or was threshold-rejected). Nothing is appended
// and the fast path is suppressed for this call; the decision falls back to
// consensus over the existing window.
func (s *Smoother) ObserveMiss() (classify.Prediction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The window is anchored to the newest observation, not wall clock,
	// so a miss cannot flush a window that is merely being replayed.
	if len(s.history) > 0 {
		s.evict(s.history[len(s.history)-1].Timestamp)
	}
	return s.decide(false)
}

// Reset clears the prediction history. Called when hand tracking is lost or
// recording starts, so stale context never bleeds into the next decision.
func (s *Smoother) Reset() {
	s.mu.Lock()
	s.history = s.history[:0]
	s.mu.Unlock()
}

// Len returns the number of predictions currently in the window.
func (s *Smoother) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// evict drops records older than the window, then trims from the front
// down to the hard cap. Caller holds the mutex.
func (s *Smoother) evict(now time.Time) {
	cutoff := now.Add(-s.config.Window)
	start := 0
	for start < len(s.history) && s.history[start].Timestamp.Before(cutoff) {
		start++
	}
	if start > 0 {
		s.history = append(s.history[:0], s.history[start:]...)
	}

	if len(s.history) > HistoryCap {
		excess := len(s.history) - HistoryCap
		s.history = append(s.history[:0], s.history[excess:]...)
	}
}

// decide runs the consensus vote over the current window. Caller holds the
// mutex; cfg is the snapshot for this decision.
func (s *Smoother) decide(allowFastPath bool) (classify.Prediction, bool) {
	cfg := s.config

	if len(s.history) == 0 {
		return classify.Prediction{}, false
	}

	newest := s.history[len(s.history)-1]

	// Fast path: a very confident frame wins immediately.
	if allowFastPath && newest.Confidence > FastPathCutoff {
		return newest, true
	}

	// Not enough history for consensus: the newest record stands alone.
	if len(s.history) < cfg.MinStableFrames {
		return newest, true
	}

	// Global gate: if the whole window averages low confidence, even a
	// dominant label cannot pass.
	var overall float64
	for _, p := range s.history {
		overall += p.Confidence
	}
	overall /= float64(len(s.history))
	if overall < cfg.MinConfidence {
		return classify.Prediction{}, false
	}

	// Tally per-label totals, remembering first-seen order for the
	// deterministic tie-break.
	type tally struct {
		total float64
		count int
		first int
	}
	tallies := make(map[string]*tally)
	for i, p := range s.history {
		entry, ok := tallies[p.Label]
		if !ok {
			entry = &tally{first: i}
			tallies[p.Label] = entry
		}
		entry.total += p.Confidence
		entry.count++
	}

	// The winner is the label with the highest mean confidence, not the
	// highest vote count. Ties break to the label seen earliest in this
	// window.
	var winner string
	var winnerMean float64
	winnerFirst := len(s.history)
	for label, entry := range tallies {
		mean := entry.total / float64(entry.count)
		if mean > winnerMean || (mean == winnerMean && entry.first < winnerFirst) {
			winner = label
			winnerMean = mean
			winnerFirst = entry.first
		}
	}

	share := float64(tallies[winner].count) / float64(len(s.history))
	if share < cfg.ConsensusRatio || winnerMean < cfg.MinConfidence {
		return classify.Prediction{}, false
	}

	return classify.Prediction{
		Label:      winner,
		Confidence: winnerMean,
		Timestamp:  newest.Timestamp,
		Seq:        newest.Seq,
	}, true
}

// DescribeState returns a diagnostic summary of the window: per-label
// counts and mean confidences. Observability only, never control flow.
func (s *Smoother) DescribeState() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.history) == 0 {
		return "smoother: empty window"
	}

	type tally struct {
		total float64
		count int
	}
	tallies := make(map[string]*tally)
	for _, p := range s.history {
		entry, ok := tallies[p.Label]
		if !ok {
			entry = &tally{}
			tallies[p.Label] = entry
		}
		entry.total += p.Confidence
		entry.count++
	}

	labels := make([]string, 0, len(tallies))
	for label := range tallies {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var b strings.Builder
	fmt.Fprintf(&b, "smoother: %d records", len(s.history))
	for _, label := range labels {
		entry := tallies[label]
		fmt.Fprintf(&b, "; %s count=%d mean=%.3f", label, entry.count, entry.total/float64(entry.count))
	}
	return b.String()
}
