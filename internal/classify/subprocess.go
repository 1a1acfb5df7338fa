package classify

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"
)

// modelIdleShutdown is how long the model process may sit unused before it
// is stopped. It restarts lazily on the next call.
const modelIdleShutdown = 30 * time.Second

// SubprocessModel implements Model over a Python classifier service.
// Feature vectors go out as one JSON line on stdin; the service answers
// one JSON line of per-class probabilities.
type SubprocessModel struct {
	scriptPath string
	width      int

	mu        sync.Mutex
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    *bufio.Reader
	started   bool
	idleTimer *time.Timer
}

// NewSubprocessModel creates a model over the classifier script. width is
// the feature vector length the trained model consumes. The Python process
// is started lazily on first call.
func NewSubprocessModel(width int) (*SubprocessModel, error) {
	scriptPath := findClassifierScript()
	if scriptPath == "" {
		return nil, fmt.Errorf("gesture_classifier.py not found")
	}
	if width <= 0 {
		return nil, fmt.Errorf("invalid model width %d", width)
	}

	return &SubprocessModel{
		scriptPath: scriptPath,
		width:      width,
	}, nil
}

// Width returns the feature vector length the model expects.
func (m *SubprocessModel) Width() int {
	return m.width
}

// Probabilities sends the feature vector to the classifier service and
// returns the per-class probabilities.
func (m *SubprocessModel) Probabilities(features []float64) (map[string]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureStarted(); err != nil {
		return nil, err
	}

	request, err := json.Marshal(struct {
		Features []float64 `json:"features"`
	}{Features: features})
	if err != nil {
		return nil, fmt.Errorf("encode features: %w", err)
	}
	request = append(request, '\n')

	if _, err := m.stdin.Write(request); err != nil {
		m.shutdown()
		return nil, fmt.Errorf("write features: %w", err)
	}

	line, err := m.stdout.ReadString('\n')
	if err != nil {
		m.shutdown()
		return nil, fmt.Errorf("read response: %w", err)
	}

	var response struct {
		Probabilities map[string]float64 `json:"probabilities"`
		Error         string             `json:"error"`
	}
	if err := json.Unmarshal([]byte(line), &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if response.Error != "" {
		return nil, fmt.Errorf("classifier service: %s", response.Error)
	}

	m.resetIdleTimer()

	return response.Probabilities, nil
}

// Close shuts down the Python process.
func (m *SubprocessModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shutdown()
}

func (m *SubprocessModel) ensureStarted() error {
	if m.started {
		return nil
	}

	pythonPath := findVenvPython()
	if pythonPath == "" {
		pythonPath = "python3"
	}

	m.cmd = exec.Command(pythonPath, m.scriptPath)

	stdin, err := m.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := m.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	m.cmd.Stderr = os.Stderr

	if err := m.cmd.Start(); err != nil {
		return fmt.Errorf("start classifier service: %w", err)
	}

	m.stdin = stdin
	m.stdout = bufio.NewReader(stdout)
	m.started = true

	return nil
}

func (m *SubprocessModel) shutdown() error {
	if !m.started {
		return nil
	}

	if m.idleTimer != nil {
		m.idleTimer.Stop()
		m.idleTimer = nil
	}
	if m.stdin != nil {
		m.stdin.Close()
	}

	err := m.cmd.Wait()
	m.started = false
	m.cmd = nil
	m.stdin = nil
	m.stdout = nil

	return err
}

func (m *SubprocessModel) resetIdleTimer() {
	if m.idleTimer != nil {
		m.idleTimer.Stop()
	}
	m.idleTimer = time.AfterFunc(modelIdleShutdown, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.shutdown()
	})
}

func findClassifierScript() string {
	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/gesture_classifier.py",
		"../scripts/gesture_classifier.py",
		filepath.Join(execDir, "scripts/gesture_classifier.py"),
		filepath.Join(os.Getenv("HOME"), ".gestured/scripts/gesture_classifier.py"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}

// findVenvPython looks for a Python interpreter in a virtual environment.
func findVenvPython() string {
	execPath, err := os.Executable()
	if err != nil {
		return ""
	}
	execDir := filepath.Dir(execPath)

	candidates := []string{
		"venv/bin/python",
		"../venv/bin/python",
		filepath.Join(execDir, "venv/bin/python"),
		filepath.Join(os.Getenv("HOME"), ".gestured/venv/bin/python"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}
