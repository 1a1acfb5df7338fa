package feature

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pidalamatteo/GestureRecognition/internal/landmark"
)

func TestExtract_FullWidth(t *testing.T) {
	extractor := NewExtractor()
	hand := landmark.ThumbsUpHand()

	vector, err := extractor.Extract(&hand)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	if len(vector) != FullWidth {
		t.Errorf("expected vector of length %d, got %d", FullWidth, len(vector))
	}
}

func TestExtract_BitIdentical(t *testing.T) {
	// Extraction is a pure function: the same hand must produce
	// bit-identical vectors on every call.
	extractor := NewExtractor()
	hand := landmark.OpenPalmHand()

	first, err := extractor.Extract(&hand)
	if err != nil {
		t.Fatalf("first extract failed: %v", err)
	}

	second, err := extractor.Extract(&hand)
	if err != nil {
		t.Fatalf("second extract failed: %v", err)
	}

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("vectors differ at index %d: %v != %v", i, first[i], second[i])
		}
	}
}

func TestExtract_SameVectorAcrossExtractors(t *testing.T) {
	// The recording path and the prediction path each hold their own
	// Extractor; both must produce identical vectors for the same frame
	// because they share the one normalization routine.
	recording := NewExtractor()
	prediction := NewExtractor()
	hand := landmark.ThumbsUpHand()

	recorded, err := recording.Extract(&hand)
	if err != nil {
		t.Fatalf("recording-path extract failed: %v", err)
	}

	predicted, err := prediction.Extract(&hand)
	if err != nil {
		t.Fatalf("prediction-path extract failed: %v", err)
	}

	for i := range recorded {
		if recorded[i] != predicted[i] {
			t.Fatalf("recording and prediction vectors differ at index %d", i)
		}
	}
}

func TestExtract_NilHand(t *testing.T) {
	extractor := NewExtractor()

	_, err := extractor.Extract(nil)
	if !errors.Is(err, ErrNoHand) {
		t.Errorf("expected ErrNoHand, got %v", err)
	}
}

func TestSelectSubset(t *testing.T) {
	vector := []float64{10, 11, 12, 13, 14}

	subset, err := SelectSubset(vector, []int{4, 0, 2})
	if err != nil {
		t.Fatalf("select subset failed: %v", err)
	}

	want := []float64{14, 10, 12}
	if len(subset) != len(want) {
		t.Fatalf("expected %d values, got %d", len(want), len(subset))
	}
	for i := range want {
		if subset[i] != want[i] {
			t.Errorf("subset[%d] = %v, want %v", i, subset[i], want[i])
		}
	}
}

func TestSelectSubset_InvalidIndex(t *testing.T) {
	vector := []float64{1, 2, 3}

	// Index beyond the vector length must fail, not truncate
	_, err := SelectSubset(vector, []int{0, 3})
	if !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("expected ErrInvalidIndex for out-of-range index, got %v", err)
	}

	// Negative index must fail too
	_, err = SelectSubset(vector, []int{-1})
	if !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("expected ErrInvalidIndex for negative index, got %v", err)
	}
}

func TestSetIndices_RejectsOutOfRange(t *testing.T) {
	extractor := NewExtractor()

	err := extractor.SetIndices([]int{0, FullWidth})
	if !errors.Is(err, ErrInvalidIndex) {
		t.Fatalf("expected ErrInvalidIndex, got %v", err)
	}

	// The extractor keeps emitting the full vector after a failed load
	if extractor.Width() != FullWidth {
		t.Errorf("expected width %d after failed SetIndices, got %d", FullWidth, extractor.Width())
	}
}

func TestExtract_WithSubset(t *testing.T) {
	extractor := NewExtractor()
	indices := []int{0, 1, 2, 9, 10, 11}
	if err := extractor.SetIndices(indices); err != nil {
		t.Fatalf("set indices failed: %v", err)
	}

	if extractor.Width() != len(indices) {
		t.Errorf("expected width %d, got %d", len(indices), extractor.Width())
	}

	hand := landmark.OpenPalmHand()
	vector, err := extractor.Extract(&hand)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	if len(vector) != len(indices) {
		t.Fatalf("expected subset vector of length %d, got %d", len(indices), len(vector))
	}

	// The subset must match a manual projection of the full vector
	full, err := NewExtractor().Extract(&hand)
	if err != nil {
		t.Fatalf("full extract failed: %v", err)
	}
	for i, idx := range indices {
		if vector[i] != full[idx] {
			t.Errorf("subset[%d] = %v, want full[%d] = %v", i, vector[i], idx, full[idx])
		}
	}
}

func TestLoadIndexFile(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "gestured-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	path := filepath.Join(tmpDir, "feature_indices.json")
	content := `{"indices": [0, 3, 6, 9, 12]}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write index file: %v", err)
	}

	extractor := NewExtractor()
	if err := extractor.LoadIndexFile(path); err != nil {
		t.Fatalf("load index file failed: %v", err)
	}

	if extractor.Width() != 5 {
		t.Errorf("expected width 5 after load, got %d", extractor.Width())
	}
}

func TestLoadIndexFile_Errors(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "gestured-test-*")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	extractor := NewExtractor()

	// Missing file
	if err := extractor.LoadIndexFile(filepath.Join(tmpDir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	// Malformed JSON
	badPath := filepath.Join(tmpDir, "bad.json")
	os.WriteFile(badPath, []byte("{not json"), 0644)
	if err := extractor.LoadIndexFile(badPath); err == nil {
		t.Error("expected error for malformed file")
	}

	// Out-of-range index: reported at load time, subset stays disabled
	rangePath := filepath.Join(tmpDir, "range.json")
	os.WriteFile(rangePath, []byte(`{"indices": [0, 999]}`), 0644)
	err = extractor.LoadIndexFile(rangePath)
	if !errors.Is(err, ErrInvalidIndex) {
		t.Errorf("expected ErrInvalidIndex, got %v", err)
	}
	if extractor.Width() != FullWidth {
		t.Errorf("subset selection should stay disabled after a bad file, width = %d", extractor.Width())
	}
}
