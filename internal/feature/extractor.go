// Package feature turns hand landmarks into the fixed-length numeric
// vectors consumed by the gesture classifier.
package feature

import (
	"errors"
	"fmt"

	"github.com/pidalamatteo/GestureRecognition/internal/landmark"
)

// FullWidth is the length of the full feature vector: x, y, z for each of
// the 21 landmarks after normalization.
const FullWidth = landmark.NumLandmarks * 3

// ErrInvalidIndex is returned when a feature index references a position
// outside the vector it is applied to.
var ErrInvalidIndex = errors.New("feature index out of range")

// ErrNoHand is returned when extraction is attempted on a nil hand.
var ErrNoHand = errors.New("no hand to extract features from")

// Extractor converts a hand into a feature vector. When a feature subset is
// loaded, Extract projects the full vector onto those indices so the output
// matches the width the deployed model was trained on.
//
// The subset is loaded once (from the feature-index file) and reused for
// every extraction; it is state owned by the Extractor, not a package-level
// cache.
type Extractor struct {
	indices []int
}

// NewExtractor creates an Extractor that emits the full feature vector.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract converts a hand into its feature vector. Extraction is a pure
// function: identical input always produces a bit-identical vector. Both
// the recording path and the prediction path go through this single
// routine so training-time and inference-time features cannot diverge.
func (e *Extractor) Extract(hand *landmark.Hand) ([]float64, error) {
	if hand == nil {
		return nil, ErrNoHand
	}

	normalized := hand.Normalize()

	vector := make([]float64, 0, FullWidth)
	for i := 0; i < landmark.NumLandmarks; i++ {
		p := normalized.Points[i]
		vector = append(vector, p.X, p.Y, p.Z)
	}

	if len(e.indices) == 0 {
		return vector, nil
	}

	// Indices were validated at load time, so this cannot fail here.
	return SelectSubset(vector, e.indices)
}

// SelectSubset projects a feature vector onto the given ordered index
// subset. Returns ErrInvalidIndex if any index falls outside the vector.
func SelectSubset(vector []float64, indices []int) ([]float64, error) {
	out := make([]float64, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(vector) {
			return nil, fmt.Errorf("%w: index %d, vector length %d", ErrInvalidIndex, idx, len(vector))
		}
		out = append(out, vector[idx])
	}
	return out, nil
}

// Width returns the length of the vectors Extract produces.
func (e *Extractor) Width() int {
	if len(e.indices) > 0 {
		return len(e.indices)
	}
	return FullWidth
}

// Indices returns a copy of the loaded feature subset, or nil when the
// extractor emits the full vector.
func (e *Extractor) Indices() []int {
	if len(e.indices) == 0 {
		return nil
	}
	out := make([]int, len(e.indices))
	copy(out, e.indices)
	return out
}

// SetIndices installs a feature subset after validating every index against
// the full vector width. On error the previous subset stays in effect.
func (e *Extractor) SetIndices(indices []int) error {
	for _, idx := range indices {
		if idx < 0 || idx >= FullWidth {
			return fmt.Errorf("%w: index %d, full width %d", ErrInvalidIndex, idx, FullWidth)
		}
	}

	e.indices = make([]int, len(indices))
	copy(e.indices, indices)
	return nil
}

// ClearIndices disables subset selection; Extract emits the full vector.
func (e *Extractor) ClearIndices() {
	e.indices = nil
}
