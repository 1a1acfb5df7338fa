package action

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/pidalamatteo/GestureRecognition/internal/store"
)

// mapBindings is an in-memory BindingSource for tests.
type mapBindings struct {
	bindings map[string]*store.Binding
	err      error
}

func (m *mapBindings) GetByLabel(label string) (*store.Binding, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.bindings[label], nil
}

func TestRunner_DispatchRunsCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	tmpDir, err := os.MkdirTemp("", "gestured-action-test")
	if err != nil {
		t.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	// The command leaves a marker file so the test can observe that it ran.
	marker := filepath.Join(tmpDir, "fired")
	source := &mapBindings{bindings: map[string]*store.Binding{
		"thumbs_up": {
			ID:      "b1",
			Label:   "thumbs_up",
			Command: "touch " + marker,
			Enabled: true,
		},
	}}

	runner := NewRunner(source)
	fired, err := runner.Dispatch(context.Background(), "thumbs_up")
	if err != nil {
		t.Fatalf("Dispatch() failed: %v", err)
	}
	if !fired {
		t.Fatal("expected Dispatch to report that a command ran")
	}
	if _, err := os.Stat(marker); err != nil {
		t.Errorf("expected marker file to exist: %v", err)
	}
}

func TestRunner_DispatchSkipsUnboundLabel(t *testing.T) {
	runner := NewRunner(&mapBindings{bindings: map[string]*store.Binding{}})

	fired, err := runner.Dispatch(context.Background(), "unbound")
	if err != nil {
		t.Fatalf("Dispatch() failed: %v", err)
	}
	if fired {
		t.Error("unbound labels should be skipped")
	}
}

func TestRunner_DispatchSkipsDisabledBinding(t *testing.T) {
	source := &mapBindings{bindings: map[string]*store.Binding{
		"fist": {ID: "b1", Label: "fist", Command: "true", Enabled: false},
	}}

	runner := NewRunner(source)
	fired, err := runner.Dispatch(context.Background(), "fist")
	if err != nil {
		t.Fatalf("Dispatch() failed: %v", err)
	}
	if fired {
		t.Error("disabled bindings should be skipped")
	}
}

func TestRunner_CooldownPreventsRefire(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	source := &mapBindings{bindings: map[string]*store.Binding{
		"wave": {ID: "b1", Label: "wave", Command: "true", Enabled: true},
	}}

	runner := NewRunner(source)
	runner.SetCooldown(time.Hour)

	fired, err := runner.Dispatch(context.Background(), "wave")
	if err != nil || !fired {
		t.Fatalf("first dispatch should run: fired=%v err=%v", fired, err)
	}

	fired, err = runner.Dispatch(context.Background(), "wave")
	if err != nil {
		t.Fatalf("Dispatch() failed: %v", err)
	}
	if fired {
		t.Error("second dispatch within cooldown should be skipped")
	}
}

func TestRunner_CooldownIsPerLabel(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	source := &mapBindings{bindings: map[string]*store.Binding{
		"fist": {ID: "b1", Label: "fist", Command: "true", Enabled: true},
		"wave": {ID: "b2", Label: "wave", Command: "true", Enabled: true},
	}}

	runner := NewRunner(source)
	runner.SetCooldown(time.Hour)

	if fired, err := runner.Dispatch(context.Background(), "fist"); err != nil || !fired {
		t.Fatalf("fist dispatch should run: fired=%v err=%v", fired, err)
	}
	// A different label is not affected by fist's cooldown.
	if fired, err := runner.Dispatch(context.Background(), "wave"); err != nil || !fired {
		t.Fatalf("wave dispatch should run: fired=%v err=%v", fired, err)
	}
}

func TestRunner_ResetClearsCooldown(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	source := &mapBindings{bindings: map[string]*store.Binding{
		"fist": {ID: "b1", Label: "fist", Command: "true", Enabled: true},
	}}

	runner := NewRunner(source)
	runner.SetCooldown(time.Hour)

	if fired, _ := runner.Dispatch(context.Background(), "fist"); !fired {
		t.Fatal("first dispatch should run")
	}

	runner.Reset()

	if fired, _ := runner.Dispatch(context.Background(), "fist"); !fired {
		t.Error("dispatch after Reset should run again")
	}
}

func TestRunner_Timeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	source := &mapBindings{bindings: map[string]*store.Binding{
		"hold": {ID: "b1", Label: "hold", Command: "sleep 10", Enabled: true},
	}}

	runner := NewRunner(source)
	runner.SetTimeout(50 * time.Millisecond)

	start := time.Now()
	_, err := runner.Dispatch(context.Background(), "hold")
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !strings.Contains(err.Error(), "timeout") {
		t.Errorf("expected timeout error, got %v", err)
	}
	if elapsed > 2*time.Second {
		t.Errorf("timeout took too long: %v", elapsed)
	}
}

func TestRunner_CommandFailure(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	source := &mapBindings{bindings: map[string]*store.Binding{
		"bad": {ID: "b1", Label: "bad", Command: "echo oops >&2; exit 3", Enabled: true},
	}}

	runner := NewRunner(source)
	_, err := runner.Dispatch(context.Background(), "bad")
	if err == nil {
		t.Fatal("expected error from failing command")
	}
	if !strings.Contains(err.Error(), "oops") {
		t.Errorf("expected stderr in error, got %v", err)
	}
}

func TestRunner_BindingSourceError(t *testing.T) {
	source := &mapBindings{err: errors.New("db closed")}

	runner := NewRunner(source)
	_, err := runner.Dispatch(context.Background(), "fist")
	if err == nil {
		t.Fatal("expected error when binding lookup fails")
	}
}
