package pipeline

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/pidalamatteo/GestureRecognition/internal/capture"
	"github.com/pidalamatteo/GestureRecognition/internal/classify"
	"github.com/pidalamatteo/GestureRecognition/internal/store"
)

// runLoop is the capture loop. It manages the idle/active rate switch from
// motion detection, runs hand detection on active frames, and hands the
// extracted feature vectors to the classification worker.
//
// Frame flow:
//  1. Idle rate until motion is detected, then active rate.
//  2. Hand detection on the frame; first detected hand only.
//  3. Recording mode routes the raw hand to the recorder and skips
//     classification.
//  4. Otherwise features are extracted and offered to the worker; a busy
//     worker means the frame is dropped.
//  5. After IdleTimeout without motion the loop returns to the idle rate.
func (p *Pipeline) runLoop(stopCh <-chan struct{}) {
	defer p.wg.Done()

	activeMode := false
	lastMotion := time.Now()

	interval := time.Second / time.Duration(capture.IdleFPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if !p.IsEnabled() {
				continue
			}

			frame, err := p.camera.ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			motion, _ := p.motion.Detect(frame)
			if motion {
				lastMotion = time.Now()
				if !activeMode {
					activeMode = true
					p.camera.SetFPS(capture.ActiveFPS)
					ticker.Reset(time.Second / time.Duration(capture.ActiveFPS))
					log.Println("Switched to active mode")
				}
			} else if activeMode && time.Since(lastMotion) > IdleTimeout {
				activeMode = false
				p.camera.SetFPS(capture.IdleFPS)
				ticker.Reset(time.Second / time.Duration(capture.IdleFPS))
				p.smoother.Reset()
				p.setLastStable("")
				log.Println("Switched to idle mode")
			}

			if !activeMode || p.detector == nil {
				frame.Close()
				continue
			}

			p.processFrame(frame)
		}
	}
}

// processFrame runs detection on one frame and routes the result to the
// recorder or the classification worker. Closes the frame.
func (p *Pipeline) processFrame(frame *gocv.Mat) {
	result, err := p.detector.Detect(frame)
	frame.Close()

	if err != nil {
		log.Printf("Error detecting hands: %v", err)
		return
	}

	hand := result.First()
	if hand == nil {
		p.handleMiss()
		return
	}
	p.missStreak = 0

	if p.recorder != nil {
		if active, _ := p.recorder.Active(); active {
			p.recorder.Offer(hand)
			return
		}
	}

	if !p.classifier.Available() {
		return
	}

	features, err := p.extractor.Extract(hand)
	if err != nil {
		log.Printf("Error extracting features: %v", err)
		return
	}

	// Seq and timestamp are fixed at frame arrival so the smoother can
	// reject any update that would apply out of order.
	j := job{
		features:  features,
		seq:       atomic.AddUint64(&p.seq, 1),
		timestamp: time.Now(),
	}

	select {
	case p.jobs <- j:
	default:
		// Worker still busy with the previous frame.
		p.mu.Lock()
		p.dropped++
		p.mu.Unlock()
	}
}

// handleMiss feeds a no-hand frame to the smoother and clears it entirely
// once the miss streak counts as tracking loss.
func (p *Pipeline) handleMiss() {
	p.missStreak++
	if p.missStreak == MissResetStreak {
		p.smoother.Reset()
		p.setLastStable("")
		return
	}

	if stable, ok := p.smoother.ObserveMiss(); ok {
		p.handleStable(stable)
	}
}

// classifyWorker consumes feature vectors, classifies them, and feeds the
// smoother. A single worker keeps smoothing updates in frame-arrival order.
func (p *Pipeline) classifyWorker(stopCh <-chan struct{}) {
	defer p.wg.Done()

	for {
		select {
		case <-stopCh:
			return
		case j := <-p.jobs:
			p.classifyJob(j)
		}
	}
}

func (p *Pipeline) classifyJob(j job) {
	pred, err := p.classifier.Classify(context.Background(), j.features)
	if err != nil {
		switch {
		case errors.Is(err, classify.ErrRejected):
			// Below-threshold frames count as misses; the raw class is
			// only diagnostic.
			if stable, ok := p.smoother.ObserveMiss(); ok {
				p.handleStable(stable)
			}
		case errors.Is(err, classify.ErrModelUnavailable):
			// No model loaded; nothing to smooth.
		default:
			log.Printf("Error classifying frame: %v", err)
		}
		return
	}

	pred.Timestamp = j.timestamp
	pred.Seq = j.seq

	if stable, ok := p.smoother.Observe(pred); ok {
		p.handleStable(stable)
	}
}

// handleStable publishes a stable prediction: broadcast to subscribers
// always, event persistence and action dispatch only on a label change.
func (p *Pipeline) handleStable(stable classify.Prediction) {
	p.broadcast(stable)

	if !p.stableTransition(stable.Label) {
		return
	}

	log.Printf("Stable gesture: %s (confidence %.3f)", stable.Label, stable.Confidence)

	if p.events != nil {
		event := &store.Event{
			ID:           uuid.NewString(),
			Label:        stable.Label,
			Confidence:   stable.Confidence,
			RecognizedAt: stable.Timestamp,
		}
		if err := p.events.Create(event); err != nil {
			log.Printf("Error persisting recognition event: %v", err)
		}
	}

	if p.actions != nil {
		if _, err := p.actions.Dispatch(context.Background(), stable.Label); err != nil {
			log.Printf("Error dispatching action: %v", err)
		}
	}
}
