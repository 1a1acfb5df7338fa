package classify

import (
	"context"
	"fmt"
	"sort"
	"time"
)

// Prediction is one single-frame classification result.
type Prediction struct {
	Label      string    `json:"label"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
	// Seq is the frame-arrival sequence number, assigned by the pipeline
	// and used to discard out-of-order smoothing updates.
	Seq uint64 `json:"seq"`
}

// Classifier wraps the black-box model call: feature vector in, best label
// plus confidence out, gated by the threshold manager.
type Classifier struct {
	model      Model
	thresholds *ThresholdManager
	timeout    time.Duration
}

// NewClassifier creates a Classifier over the given model. A nil model is
// allowed; every Classify call then fails with ErrModelUnavailable, which
// keeps the recording path usable when the model failed to load at startup.
func NewClassifier(model Model, thresholds *ThresholdManager, timeout time.Duration) *Classifier {
	return &Classifier{
		model:      model,
		thresholds: thresholds,
		timeout:    timeout,
	}
}

// Available reports whether a model is loaded.
func (c *Classifier) Available() bool {
	return c.model != nil
}

// Classify runs the model on a feature vector and returns the top class.
//
// The winning class is the one with maximum probability; ties break to the
// lexicographically first label, so the result never depends on map
// iteration order.
//
// When the top class falls below its acceptance threshold the prediction is
// still returned for diagnostics, together with ErrRejected; callers must
// treat such frames as "no prediction".
func (c *Classifier) Classify(ctx context.Context, features []float64) (Prediction, error) {
	if c.model == nil {
		return Prediction{}, ErrModelUnavailable
	}

	if len(features) != c.model.Width() {
		return Prediction{}, fmt.Errorf("%w: got %d features, model expects %d",
			ErrFeatureCountMismatch, len(features), c.model.Width())
	}

	probs, err := c.infer(ctx, features)
	if err != nil {
		return Prediction{}, err
	}

	if len(probs) == 0 {
		return Prediction{}, fmt.Errorf("model returned no probabilities")
	}

	// Walk labels in sorted order so max selection is deterministic:
	// a strictly-greater probability is required to displace the current
	// winner, so ties resolve to the lexicographically first label.
	labels := make([]string, 0, len(probs))
	for label := range probs {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	best := Prediction{Timestamp: time.Now()}
	for _, label := range labels {
		if probs[label] > best.Confidence {
			best.Label = label
			best.Confidence = probs[label]
		}
	}

	if !c.thresholds.Accept(best.Label, best.Confidence) {
		return best, ErrRejected
	}

	return best, nil
}

// infer runs the model call, bounded by the classifier timeout when one is
// configured. The model runs in its own goroutine so a stuck inference
// cannot wedge the pipeline; a timed-out call's late result is dropped.
func (c *Classifier) infer(ctx context.Context, features []float64) (map[string]float64, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	type inferResult struct {
		probs map[string]float64
		err   error
	}

	resultCh := make(chan inferResult, 1)
	go func() {
		probs, err := c.model.Probabilities(features)
		resultCh <- inferResult{probs: probs, err: err}
	}()

	select {
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrTimeout
		}
		return nil, ctx.Err()
	case r := <-resultCh:
		if r.err != nil {
			return nil, fmt.Errorf("model inference: %w", r.err)
		}
		return r.probs, nil
	}
}
