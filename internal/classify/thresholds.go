package classify

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// DefaultThreshold is the global acceptance threshold used for classes
// without an entry in the threshold table.
const DefaultThreshold = 0.5

// maxThreshold caps per-class thresholds so a class with terrible offline
// precision can still be predicted at very high confidence.
const maxThreshold = 0.95

// ThresholdTable maps a class label to its minimum acceptance confidence.
// Tables are read-mostly and replaced wholesale, never mutated in place.
type ThresholdTable map[string]float64

// ClassMetrics holds the offline evaluation statistics for one class, as
// read from the metrics file.
type ClassMetrics struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// metricsFile is the on-disk format of the evaluation-metrics document.
type metricsFile struct {
	Classes []ClassMetrics `json:"classes"`
}

// ThresholdManager answers accept/reject for (label, confidence) pairs
// against per-class thresholds derived from offline evaluation metrics.
type ThresholdManager struct {
	mu           sync.RWMutex
	table        ThresholdTable
	defaultValue float64
}

// NewThresholdManager creates a manager with the given global default
// threshold. Values outside (0,1] fall back to DefaultThreshold.
func NewThresholdManager(defaultValue float64) *ThresholdManager {
	if defaultValue <= 0 || defaultValue > 1 {
		defaultValue = DefaultThreshold
	}
	return &ThresholdManager{defaultValue: defaultValue}
}

// ComputeTable derives one threshold per class from evaluation metrics.
// Classes with lower offline precision demand higher confidence before a
// prediction is accepted; the mapping is monotonic in precision. Thresholds
// are clamped to [defaultValue, maxThreshold].
func ComputeTable(metrics []ClassMetrics, defaultValue float64) ThresholdTable {
	table := make(ThresholdTable, len(metrics))
	for _, m := range metrics {
		precision := m.Precision
		if precision < 0 {
			precision = 0
		}
		if precision > 1 {
			precision = 1
		}

		threshold := defaultValue + (1-precision)*0.3
		if threshold > maxThreshold {
			threshold = maxThreshold
		}
		table[m.Label] = threshold
	}
	return table
}

// LoadMetricsFile reads the evaluation-metrics document and swaps in a
// freshly computed threshold table. On any failure the table is cleared so
// every class falls back to the global default, and ErrMetricsLoad is
// returned wrapped with the cause.
func (t *ThresholdManager) LoadMetricsFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		t.Swap(nil)
		return fmt.Errorf("%w: read %s: %v", ErrMetricsLoad, path, err)
	}

	var f metricsFile
	if err := json.Unmarshal(data, &f); err != nil {
		t.Swap(nil)
		return fmt.Errorf("%w: parse %s: %v", ErrMetricsLoad, path, err)
	}

	if len(f.Classes) == 0 {
		t.Swap(nil)
		return fmt.Errorf("%w: %s lists no classes", ErrMetricsLoad, path)
	}

	t.Swap(ComputeTable(f.Classes, t.defaultValue))
	return nil
}

// Swap replaces the threshold table wholesale. Decisions already in flight
// keep reading the table they started with.
func (t *ThresholdManager) Swap(table ThresholdTable) {
	t.mu.Lock()
	t.table = table
	t.mu.Unlock()
}

// Threshold returns the acceptance threshold for a label, or the global
// default when the label is unknown.
func (t *ThresholdManager) Threshold(label string) float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if threshold, ok := t.table[label]; ok {
		return threshold
	}
	return t.defaultValue
}

// Table returns a snapshot copy of the current per-class thresholds.
func (t *ThresholdManager) Table() ThresholdTable {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(ThresholdTable, len(t.table))
	for label, threshold := range t.table {
		out[label] = threshold
	}
	return out
}

// Default returns the global default threshold.
func (t *ThresholdManager) Default() float64 {
	return t.defaultValue
}

// Accept reports whether a prediction with the given confidence clears the
// threshold for its label.
func (t *ThresholdManager) Accept(label string, confidence float64) bool {
	return confidence >= t.Threshold(label)
}
