// Package tray puts a status icon in the desktop tray for toggling
// recognition without opening the web UI.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/pidalamatteo/GestureRecognition/internal/classify"
)

// Controller is the subset of the recognition pipeline the tray drives.
type Controller interface {
	SetEnabled(enabled bool)
	IsEnabled() bool
}

// PredictionSource delivers stable predictions for the "Last:" menu entry.
type PredictionSource interface {
	Subscribe() (<-chan classify.Prediction, func())
}

// Tray is the desktop tray menu for the recognition daemon.
type Tray struct {
	controller Controller
	source     PredictionSource
	onOpenUI   func()
	onQuit     func()
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuLast   *systray.MenuItem
}

// New creates a tray bound to the given pipeline controller. source may be
// nil when no prediction stream is available.
func New(controller Controller, source PredictionSource) *Tray {
	return &Tray{
		controller: controller,
		source:     source,
	}
}

// OnOpenUI sets the callback for the "Open Dashboard..." menu item.
func (t *Tray) OnOpenUI(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpenUI = fn
}

// OnQuit sets the callback for the quit menu item.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the tray event loop. It blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit tears down the tray icon.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("gestured")
	systray.SetTooltip("Hand gesture recognition")

	t.menuToggle = systray.AddMenuItem(toggleTitle(t.controller.IsEnabled()), "Toggle gesture recognition")
	systray.AddSeparator()

	t.menuLast = systray.AddMenuItem("Last: none", "Last recognized gesture")
	t.menuLast.Disable()
	systray.AddSeparator()

	menuOpenUI := systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Stop gesture recognition")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuOpenUI.ClickedCh:
				t.handleOpenUI()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()

	if t.source != nil {
		go t.watchPredictions()
	}
}

func (t *Tray) onExit() {}

// watchPredictions keeps the "Last:" entry current. The subscription
// channel closes when the pipeline stops, which ends the goroutine.
func (t *Tray) watchPredictions() {
	predictions, cancel := t.source.Subscribe()
	defer cancel()

	for pred := range predictions {
		t.SetLastGesture(fmt.Sprintf("%s (%.0f%%)", pred.Label, pred.Confidence*100))
	}
}

func (t *Tray) handleToggle() {
	enabled := !t.controller.IsEnabled()
	t.controller.SetEnabled(enabled)
	t.menuToggle.SetTitle(toggleTitle(enabled))
}

func (t *Tray) handleOpenUI() {
	t.mu.RLock()
	callback := t.onOpenUI
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetLastGesture updates the last recognized gesture shown in the menu.
func (t *Tray) SetLastGesture(text string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuLast != nil {
		if text == "" {
			t.menuLast.SetTitle("Last: none")
		} else {
			t.menuLast.SetTitle("Last: " + text)
		}
	}
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Recognition on"
	}
	return "○ Recognition off"
}
