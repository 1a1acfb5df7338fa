// Package testdata holds embedded fixtures shared by tests: an offline
// evaluation metrics document and a feature-index selection file matching
// the deployed model layout.
package testdata

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed metrics.json feature_indices.json
var fixturesFS embed.FS

// Metrics returns the evaluation-metrics fixture.
func Metrics() []byte {
	return mustRead("metrics.json")
}

// FeatureIndices returns the feature-index selection fixture.
func FeatureIndices() []byte {
	return mustRead("feature_indices.json")
}

// WriteFixture copies an embedded fixture into dir and returns its path.
func WriteFixture(name, dir string) (string, error) {
	data, err := fixturesFS.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("read fixture %s: %w", name, err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write fixture %s: %w", name, err)
	}
	return path, nil
}

func mustRead(name string) []byte {
	data, err := fixturesFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("embedded fixture %s: %v", name, err))
	}
	return data
}
