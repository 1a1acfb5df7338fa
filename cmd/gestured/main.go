package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/pidalamatteo/GestureRecognition/internal/action"
	"github.com/pidalamatteo/GestureRecognition/internal/capture"
	"github.com/pidalamatteo/GestureRecognition/internal/classify"
	"github.com/pidalamatteo/GestureRecognition/internal/feature"
	"github.com/pidalamatteo/GestureRecognition/internal/landmark"
	"github.com/pidalamatteo/GestureRecognition/internal/pipeline"
	"github.com/pidalamatteo/GestureRecognition/internal/sample"
	"github.com/pidalamatteo/GestureRecognition/internal/server"
	"github.com/pidalamatteo/GestureRecognition/internal/smooth"
	"github.com/pidalamatteo/GestureRecognition/internal/store"
	"github.com/pidalamatteo/GestureRecognition/internal/tray"
)

// classifierTimeout bounds one model call; slower frames are dropped.
const classifierTimeout = 500 * time.Millisecond

func main() {
	addr := flag.String("addr", ":8080", "HTTP listen address")
	cameraID := flag.Int("camera", 0, "camera device ID")
	dataDir := flag.String("data-dir", "", "data directory (default ~/.gestured)")
	withTray := flag.Bool("tray", false, "show a desktop tray icon")
	flag.Parse()

	fmt.Println("gestured - Hand Gesture Recognition Service")

	dir, err := resolveDataDir(*dataDir)
	if err != nil {
		log.Fatalf("Failed to resolve data directory: %v", err)
	}

	// SQLite store: events, bindings, settings.
	st, err := store.New(filepath.Join(dir, "gestured.db"))
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	// JSON sample store for recorded training data.
	samples, err := sample.NewStore(filepath.Join(dir, "samples.json"))
	if err != nil {
		log.Fatalf("Failed to initialize sample store: %v", err)
	}

	// Feature extraction, with the deployed model's index subset when the
	// index file is present.
	extractor := feature.NewExtractor()
	indexPath := filepath.Join(dir, "feature_indices.json")
	if _, err := os.Stat(indexPath); err == nil {
		if err := extractor.LoadIndexFile(indexPath); err != nil {
			log.Printf("Feature index file ignored: %v", err)
		} else {
			log.Printf("Using %d-feature subset from %s", extractor.Width(), indexPath)
		}
	}

	// Per-class thresholds from offline evaluation metrics.
	thresholds := classify.NewThresholdManager(classify.DefaultThreshold)
	metricsPath := filepath.Join(dir, "metrics.json")
	if _, err := os.Stat(metricsPath); err == nil {
		if err := thresholds.LoadMetricsFile(metricsPath); err != nil {
			log.Printf("Metrics file ignored, using default threshold: %v", err)
		}
	}

	// The trained model runs as a Python subprocess. Without it the
	// service still serves recording and the sample API.
	var model classify.Model
	if m, err := classify.NewSubprocessModel(extractor.Width()); err == nil {
		model = m
		defer m.Close()
	} else {
		log.Printf("Classifier model not available (%v), prediction disabled", err)
	}
	classifier := classify.NewClassifier(model, thresholds, classifierTimeout)

	// Hand detection: MediaPipe when deployed, mock otherwise.
	var detector landmark.Detector
	if mp, err := landmark.NewMediaPipeDetector(landmark.DefaultConfig()); err == nil {
		detector = mp
		log.Println("Using MediaPipe hand detection")
	} else {
		log.Printf("MediaPipe not available (%v), using mock detector", err)
		detector = landmark.NewMockDetector()
	}

	// Smoothing config: persisted settings win over the default.
	smootherConfig := smooth.DefaultConfig()
	if saved, err := st.Settings().LoadSmoothingConfig(); err == nil {
		smootherConfig = saved
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Printf("Persisted smoothing config ignored: %v", err)
	}
	smoother := smooth.New(smootherConfig)

	camera := capture.NewCamera(*cameraID)
	recorder := sample.NewRecorder(samples, sample.NewAcceptancePolicy(sample.DefaultPolicyConfig()))

	p := pipeline.New(pipeline.Config{
		Camera:     camera,
		Detector:   detector,
		Extractor:  extractor,
		Classifier: classifier,
		Smoother:   smoother,
		Recorder:   recorder,
		Events:     st.Events(),
		Actions:    action.NewRunner(st.Bindings()),
	})
	if err := p.Start(); err != nil {
		log.Fatalf("Failed to start pipeline: %v", err)
	}
	defer p.Stop()

	srv := server.New(server.Config{
		Store:       st,
		Samples:     samples,
		Pipeline:    p,
		Thresholds:  thresholds,
		MetricsPath: metricsPath,
		Camera:      camera,
		StaticDir:   findWebDir(),
	})

	go func() {
		fmt.Printf("Starting server on %s\n", *addr)
		if err := srv.ListenAndServe(*addr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	if *withTray {
		// systray.Run must own the main goroutine.
		ui := tray.New(p, p)
		ui.OnOpenUI(func() { openBrowser(dashboardURL(*addr)) })
		go func() {
			<-sigCh
			ui.Quit()
		}()
		ui.Run()
	} else {
		<-sigCh
	}
	fmt.Println("Shutting down")
}

// dashboardURL turns a listen address like ":8080" into a browsable URL.
func dashboardURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Printf("Failed to open browser: %v", err)
	}
}

// resolveDataDir returns the data directory, creating it if needed.
// An empty override means ~/.gestured.
func resolveDataDir(override string) (string, error) {
	dir := override
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(homeDir, ".gestured")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// findWebDir searches for the web UI directory in common locations.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	homeWebDir := filepath.Join(homeDir, ".gestured", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}
	return ""
}
