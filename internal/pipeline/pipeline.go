// Package pipeline orchestrates the recognition flow: camera frames in,
// stable gesture predictions out. It owns the capture loop, the
// classification worker, the temporal smoother, and the recording path.
package pipeline

import (
	"log"
	"sync"
	"time"

	"github.com/pidalamatteo/GestureRecognition/internal/action"
	"github.com/pidalamatteo/GestureRecognition/internal/capture"
	"github.com/pidalamatteo/GestureRecognition/internal/classify"
	"github.com/pidalamatteo/GestureRecognition/internal/feature"
	"github.com/pidalamatteo/GestureRecognition/internal/landmark"
	"github.com/pidalamatteo/GestureRecognition/internal/sample"
	"github.com/pidalamatteo/GestureRecognition/internal/smooth"
	"github.com/pidalamatteo/GestureRecognition/internal/store"
)

// Timing constants for the capture loop.
const (
	// IdleTimeout is how long after the last motion the loop drops back to
	// the idle capture rate.
	IdleTimeout = 2 * time.Second

	// MissResetStreak is how many consecutive frames without a hand count
	// as tracking loss. On tracking loss the smoother window is cleared so
	// stale frames cannot vote on the next gesture.
	MissResetStreak = 10

	// subscriberBuffer is the per-subscriber channel capacity. Slow
	// subscribers drop predictions rather than stall the loop.
	subscriberBuffer = 16
)

// Config holds the collaborators the pipeline orchestrates. Camera,
// Detector, Extractor, Classifier and Smoother are required; the rest are
// optional.
type Config struct {
	Camera     capture.Camera
	Detector   landmark.Detector
	Extractor  *feature.Extractor
	Classifier *classify.Classifier
	Smoother   *smooth.Smoother
	Recorder   *sample.Recorder
	Events     *store.EventRepository
	Actions    *action.Runner

	// MotionThreshold is the changed-pixel percentage that switches the
	// loop to the active capture rate.
	MotionThreshold float64
}

// Pipeline runs the recognition loop.
type Pipeline struct {
	camera     capture.Camera
	motion     *capture.MotionDetector
	detector   landmark.Detector
	extractor  *feature.Extractor
	classifier *classify.Classifier
	smoother   *smooth.Smoother
	recorder   *sample.Recorder
	events     *store.EventRepository
	actions    *action.Runner

	mu      sync.RWMutex
	enabled bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	// jobs feeds the classification worker. Capacity 1: when the worker is
	// still busy with the previous frame, the current frame is dropped
	// rather than queued, so predictions never lag the camera.
	jobs chan job

	subMu      sync.Mutex
	nextSubID  int
	subs       map[int]chan classify.Prediction
	lastStable string

	seq        uint64
	missStreak int
	dropped    uint64
}

// job is one frame's worth of work for the classification worker.
type job struct {
	features  []float64
	seq       uint64
	timestamp time.Time
}

// New creates a Pipeline from the given collaborators.
func New(config Config) *Pipeline {
	return &Pipeline{
		camera:     config.Camera,
		motion:     capture.NewMotionDetector(config.MotionThreshold),
		detector:   config.Detector,
		extractor:  config.Extractor,
		classifier: config.Classifier,
		smoother:   config.Smoother,
		recorder:   config.Recorder,
		events:     config.Events,
		actions:    config.Actions,
		subs:       make(map[int]chan classify.Prediction),
	}
}

// Start opens the camera and begins the capture loop and the
// classification worker. Starting an already-running pipeline is a no-op.
func (p *Pipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopCh != nil {
		return nil
	}

	if err := p.camera.Open(); err != nil {
		return err
	}
	p.camera.SetFPS(capture.IdleFPS)

	p.stopCh = make(chan struct{})
	p.jobs = make(chan job, 1)
	p.enabled = true

	p.wg.Add(2)
	go p.runLoop(p.stopCh)
	go p.classifyWorker(p.stopCh)

	log.Println("Recognition pipeline started")
	return nil
}

// Stop halts the loop and worker and releases the camera and detector.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if p.stopCh == nil {
		p.mu.Unlock()
		return
	}
	close(p.stopCh)
	p.stopCh = nil
	p.mu.Unlock()

	p.wg.Wait()

	if err := p.camera.Close(); err != nil {
		log.Printf("Error closing camera: %v", err)
	}
	p.motion.Close()
	if p.detector != nil {
		if err := p.detector.Close(); err != nil {
			log.Printf("Error closing detector: %v", err)
		}
	}

	log.Println("Recognition pipeline stopped")
}

// SetEnabled pauses or resumes frame processing without releasing the
// camera. A paused pipeline keeps reading the ticker but skips the frames.
func (p *Pipeline) SetEnabled(enabled bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = enabled
}

// IsEnabled reports whether frame processing is active.
func (p *Pipeline) IsEnabled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.enabled
}

// Smoother exposes the temporal smoother, for state inspection and
// configuration endpoints.
func (p *Pipeline) Smoother() *smooth.Smoother {
	return p.smoother
}

// Recorder exposes the sample recorder, or nil when recording is not wired.
func (p *Pipeline) Recorder() *sample.Recorder {
	return p.recorder
}

// Dropped returns how many frames were discarded because the
// classification worker was busy.
func (p *Pipeline) Dropped() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.dropped
}

// StartRecording switches the pipeline into recording mode for the given
// label. The smoother is cleared so leftover prediction state cannot fire
// an action mid-recording.
func (p *Pipeline) StartRecording(label string) {
	if p.recorder == nil {
		return
	}
	p.smoother.Reset()
	p.setLastStable("")
	p.recorder.Start(label)
}

// StopRecording leaves recording mode and returns how many samples were
// captured.
func (p *Pipeline) StopRecording() int {
	if p.recorder == nil {
		return 0
	}
	return p.recorder.Stop()
}

// Subscribe registers a consumer of stable predictions. The returned
// cancel function unregisters it and closes the channel.
func (p *Pipeline) Subscribe() (<-chan classify.Prediction, func()) {
	p.subMu.Lock()
	defer p.subMu.Unlock()

	id := p.nextSubID
	p.nextSubID++
	ch := make(chan classify.Prediction, subscriberBuffer)
	p.subs[id] = ch

	cancel := func() {
		p.subMu.Lock()
		defer p.subMu.Unlock()
		if sub, ok := p.subs[id]; ok {
			delete(p.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// broadcast fans a stable prediction out to all subscribers, dropping it
// for any subscriber whose buffer is full.
func (p *Pipeline) broadcast(pred classify.Prediction) {
	p.subMu.Lock()
	defer p.subMu.Unlock()

	for _, ch := range p.subs {
		select {
		case ch <- pred:
		default:
		}
	}
}

func (p *Pipeline) setLastStable(label string) {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	p.lastStable = label
}

func (p *Pipeline) stableTransition(label string) bool {
	p.subMu.Lock()
	defer p.subMu.Unlock()
	if p.lastStable == label {
		return false
	}
	p.lastStable = label
	return true
}
