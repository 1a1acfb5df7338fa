package sample

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrPersistence is returned when the sample file cannot be read or
// written. In-memory state remains authoritative; the durable copy is
// rewritten on the next mutation.
var ErrPersistence = errors.New("sample persistence failed")

// storeFile is the on-disk format: the full serialized collection,
// rewritten wholesale on every mutation.
type storeFile struct {
	Samples []Sample `json:"samples"`
}

// Store is a concurrency-safe collection of labeled samples persisted to a
// JSON file. Every mutation re-serializes and rewrites the whole file;
// simple and safe at the expected volumes (hundreds of samples, not
// millions).
type Store struct {
	mu      sync.RWMutex
	path    string
	samples []Sample
}

// NewStore creates a Store backed by the given file and loads any existing
// samples from it. A missing file yields an empty store; a malformed file
// is an error.
func NewStore(path string) (*Store, error) {
	s := &Store{path: path}

	samples, err := s.readFile()
	if err != nil {
		return nil, err
	}
	s.samples = samples

	return s, nil
}

// Append adds a sample and rewrites the durable file. The sample gets an
// ID and creation time if it has none. The in-memory append always
// succeeds; a persistence failure is reported but not rolled back.
func (s *Store) Append(sample Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sample.ID == "" {
		sample.ID = uuid.New().String()
	}
	if sample.CreatedAt.IsZero() {
		sample.CreatedAt = time.Now()
	}

	s.samples = append(s.samples, sample)
	return s.persistLocked()
}

// Remove deletes every sample whose label matches the predicate and
// rewrites the durable file. Returns how many samples were removed.
func (s *Store) Remove(match func(label string) bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.samples[:0]
	removed := 0
	for _, sample := range s.samples {
		if match(sample.Label) {
			removed++
			continue
		}
		kept = append(kept, sample)
	}
	s.samples = kept

	if removed == 0 {
		return 0, nil
	}
	return removed, s.persistLocked()
}

// Clear empties the store and deletes the durable file.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.samples = nil

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: remove %s: %v", ErrPersistence, s.path, err)
	}
	return nil
}

// All returns a snapshot copy of the collection, never a live view.
func (s *Store) All() []Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Sample, len(s.samples))
	copy(out, s.samples)
	return out
}

// Len returns the number of stored samples.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.samples)
}

// CountByLabel returns per-label sample counts.
func (s *Store) CountByLabel() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, sample := range s.samples {
		counts[sample.Label]++
	}
	return counts
}

// Reload re-reads the durable file and replaces the in-memory collection
// with its contents. A missing file reloads as empty, not as an error.
func (s *Store) Reload() ([]Sample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	samples, err := s.readFile()
	if err != nil {
		return nil, err
	}
	s.samples = samples

	out := make([]Sample, len(samples))
	copy(out, samples)
	return out, nil
}

// persistLocked rewrites the whole collection to disk. Caller holds the
// write lock.
func (s *Store) persistLocked() error {
	data, err := json.MarshalIndent(storeFile{Samples: s.samples}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", ErrPersistence, err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("%w: write %s: %v", ErrPersistence, s.path, err)
	}
	return nil
}

// readFile loads the durable file. Missing file means empty collection.
func (s *Store) readFile() ([]Sample, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrPersistence, s.path, err)
	}

	var f storeFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrPersistence, s.path, err)
	}
	return f.Samples, nil
}
