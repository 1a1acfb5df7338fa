package classify

// Model is the trained classifier boundary: a pure function from a feature
// vector to per-class probabilities. The pipeline never depends on how the
// mapping is produced.
type Model interface {
	// Probabilities returns a label -> probability mapping for the given
	// feature vector. Probabilities are in [0,1].
	Probabilities(features []float64) (map[string]float64, error)

	// Width returns the feature vector length the model expects.
	Width() int
}

// MockModel is a test implementation of Model that returns pre-configured
// probabilities.
type MockModel struct {
	probs map[string]float64
	width int
	err   error
	delay func() // invoked before answering, for timeout tests
	calls int
}

// NewMockModel creates a MockModel expecting vectors of the given width.
func NewMockModel(width int) *MockModel {
	return &MockModel{width: width}
}

// SetProbabilities sets the mapping returned by Probabilities.
func (m *MockModel) SetProbabilities(probs map[string]float64) {
	m.probs = probs
}

// SetError sets the error returned by Probabilities.
func (m *MockModel) SetError(err error) {
	m.err = err
}

// SetDelay installs a hook that runs before each Probabilities call.
func (m *MockModel) SetDelay(fn func()) {
	m.delay = fn
}

// Probabilities returns the configured mapping or error.
func (m *MockModel) Probabilities(features []float64) (map[string]float64, error) {
	m.calls++
	if m.delay != nil {
		m.delay()
	}
	if m.err != nil {
		return nil, m.err
	}
	// Return a copy so callers cannot mutate the configured mapping.
	out := make(map[string]float64, len(m.probs))
	for label, p := range m.probs {
		out[label] = p
	}
	return out, nil
}

// Width returns the expected feature vector length.
func (m *MockModel) Width() int {
	return m.width
}

// Calls returns how many times Probabilities has been invoked.
func (m *MockModel) Calls() int {
	return m.calls
}
