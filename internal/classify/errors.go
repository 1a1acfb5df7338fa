// Package classify wraps the black-box gesture model behind a thresholded
// single-frame classifier.
package classify

import "errors"

// Classification error taxonomy. All of these are per-frame and
// recoverable: the pipeline reports "no prediction" for the frame and
// carries on.
var (
	// ErrFeatureCountMismatch means the feature vector length does not
	// match the width the model expects. This is a caller bug; vectors are
	// never truncated or padded to fit.
	ErrFeatureCountMismatch = errors.New("feature count mismatch")

	// ErrModelUnavailable means no model is loaded. Classification cannot
	// run, but sample recording does not depend on the model and keeps
	// working.
	ErrModelUnavailable = errors.New("model unavailable")

	// ErrTimeout means model inference exceeded the configured deadline.
	ErrTimeout = errors.New("model inference timeout")

	// ErrRejected means the top class fell below its acceptance threshold.
	// The raw label and confidence are still returned alongside this error
	// for diagnostics, but callers must treat the frame as "no prediction".
	ErrRejected = errors.New("prediction below confidence threshold")

	// ErrMetricsLoad means the evaluation-metrics file could not be read
	// or parsed. Thresholds fall back to the global default.
	ErrMetricsLoad = errors.New("metrics load failed")
)
