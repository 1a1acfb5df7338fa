package feature

import (
	"encoding/json"
	"fmt"
	"os"
)

// indexFile is the on-disk format of the feature-index selection file:
// the ordered list of full-vector indices the deployed model expects.
type indexFile struct {
	Indices []int `json:"indices"`
}

// LoadIndexFile reads a feature-index selection file and installs its
// subset on the extractor. A missing, malformed, or out-of-range file
// leaves subset selection disabled and returns the error; the extractor
// keeps emitting full vectors until a valid file is loaded.
func (e *Extractor) LoadIndexFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read feature index file: %w", err)
	}

	var f indexFile
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parse feature index file %s: %w", path, err)
	}

	if len(f.Indices) == 0 {
		return fmt.Errorf("feature index file %s lists no indices", path)
	}

	if err := e.SetIndices(f.Indices); err != nil {
		return fmt.Errorf("feature index file %s: %w", path, err)
	}

	return nil
}
