// Package action executes shell commands bound to gesture labels. When the
// recognition pipeline reports a stable gesture, the runner looks up the
// binding for that label and runs its command with a timeout.
package action

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"os/exec"
	"sync"
	"time"

	"github.com/pidalamatteo/GestureRecognition/internal/store"
)

// DefaultTimeout bounds how long a bound command may run.
const DefaultTimeout = 5 * time.Second

// DefaultCooldown is the minimum interval between two executions for the
// same label. Without it a held gesture would re-fire its command on every
// stable frame.
const DefaultCooldown = 2 * time.Second

// BindingSource resolves a gesture label to its command binding.
type BindingSource interface {
	GetByLabel(label string) (*store.Binding, error)
}

// Runner executes bound commands on stable gesture transitions.
type Runner struct {
	bindings BindingSource
	timeout  time.Duration
	cooldown time.Duration

	mu       sync.Mutex
	lastFire map[string]time.Time
}

// NewRunner creates a Runner resolving commands from the given source.
func NewRunner(bindings BindingSource) *Runner {
	return &Runner{
		bindings: bindings,
		timeout:  DefaultTimeout,
		cooldown: DefaultCooldown,
		lastFire: make(map[string]time.Time),
	}
}

// SetTimeout overrides the command execution timeout.
func (r *Runner) SetTimeout(d time.Duration) {
	r.timeout = d
}

// SetCooldown overrides the per-label re-fire interval.
func (r *Runner) SetCooldown(d time.Duration) {
	r.cooldown = d
}

// Dispatch looks up the binding for label and executes its command. Labels
// without a binding, disabled bindings, and labels still in cooldown are
// skipped silently. Returns true when a command was actually run.
func (r *Runner) Dispatch(ctx context.Context, label string) (bool, error) {
	binding, err := r.bindings.GetByLabel(label)
	if err != nil {
		return false, fmt.Errorf("resolve binding for %q: %w", label, err)
	}
	if binding == nil || !binding.Enabled || binding.Command == "" {
		return false, nil
	}

	if !r.clearCooldown(label) {
		return false, nil
	}

	if err := r.run(ctx, binding.Command); err != nil {
		return false, fmt.Errorf("execute binding for %q: %w", label, err)
	}

	log.Printf("action: executed command for gesture %q", label)
	return true, nil
}

// clearCooldown reports whether the label may fire now, and records the
// firing time when it may.
func (r *Runner) clearCooldown(label string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if last, ok := r.lastFire[label]; ok && now.Sub(last) < r.cooldown {
		return false
	}
	r.lastFire[label] = now
	return true
}

// run executes the command through the shell with the configured timeout.
func (r *Runner) run(ctx context.Context, command string) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()

	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("command timeout after %s", r.timeout)
	}

	if err != nil {
		if stderr.Len() > 0 {
			return fmt.Errorf("command failed: %w, stderr: %s", err, stderr.String())
		}
		return fmt.Errorf("command failed: %w", err)
	}

	return nil
}

// Reset clears all cooldown state.
func (r *Runner) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFire = make(map[string]time.Time)
}
