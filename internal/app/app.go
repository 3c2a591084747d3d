// Package app runs the kiosk: a capture worker that reads, analyzes and
// annotates frames, and a render loop that folds the results into the display.
package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/facekiosk/internal/annotate"
	"github.com/ayusman/facekiosk/internal/capture"
	"github.com/ayusman/facekiosk/internal/display"
	"github.com/ayusman/facekiosk/internal/logging"
	"github.com/ayusman/facekiosk/internal/people"
	"github.com/ayusman/facekiosk/internal/plugin"
	"github.com/ayusman/facekiosk/internal/store"
)

// Pipeline defaults.
const (
	// DefaultQueueSize is the number of pending display updates.
	DefaultQueueSize = 4
	// DefaultIdleFPS is the frame rate when no motion is detected.
	DefaultIdleFPS = 5
	// DefaultIdleTimeout is how long without motion before going idle.
	DefaultIdleTimeout = 2 * time.Second
)

// MotionConfig controls idle-mode frame skipping.
type MotionConfig struct {
	Enabled     bool
	Threshold   float64
	IdleFPS     int
	IdleTimeout time.Duration
}

// Config holds the components the application wires together.
type Config struct {
	Camera   capture.Camera
	Analyzer Analyzer
	Board    *display.Board

	// Optional collaborators.
	People *people.Directory
	Store  *store.Store
	Hooks  *plugin.Dispatcher

	Style     annotate.Style
	Enhance   bool
	QueueSize int
	Motion    MotionConfig
}

// ArrivalCallback is called from the render loop for each arrival.
type ArrivalCallback func(state display.State)

// Stats are pipeline counters.
type Stats struct {
	Processed uint64 `json:"processed"`
	Dropped   uint64 `json:"dropped"`
	Errors    uint64 `json:"errors"`
	Arrivals  uint64 `json:"arrivals"`
	Idle      bool   `json:"idle"`
	Running   bool   `json:"running"`
	Enabled   bool   `json:"enabled"`
}

// App is the main application that orchestrates capture, analysis and display.
type App struct {
	config   Config
	motion   *capture.MotionDetector
	enhancer *capture.Enhancer

	enabled   bool
	mu        sync.RWMutex
	stopCh    chan struct{}
	wg        sync.WaitGroup
	callbacks []ArrivalCallback

	hookCtx    context.Context
	hookCancel context.CancelFunc
	hookWG     sync.WaitGroup

	processed atomic.Uint64
	dropped   atomic.Uint64
	errors    atomic.Uint64
	arrivals  atomic.Uint64
	idle      atomic.Bool
}

// New creates a new App. Recognition starts enabled unless the settings table
// says otherwise.
func New(config Config) *App {
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultQueueSize
	}
	if config.Motion.IdleFPS <= 0 {
		config.Motion.IdleFPS = DefaultIdleFPS
	}
	if config.Motion.IdleTimeout <= 0 {
		config.Motion.IdleTimeout = DefaultIdleTimeout
	}
	if config.Style == "" {
		config.Style = annotate.StyleBox
	}

	a := &App{
		config:  config,
		enabled: true,
	}

	if config.Motion.Enabled {
		threshold := config.Motion.Threshold
		if threshold <= 0 {
			threshold = 1.0 // 1% pixel change
		}
		a.motion = capture.NewMotionDetector(threshold)
	}
	if config.Enhance {
		a.enhancer = capture.NewEnhancer()
	}

	if config.Store != nil {
		a.enabled = config.Store.Settings().GetBool(store.SettingRecognitionEnabled, true)
	}

	return a
}

// SetEnabled enables or disables recognition and persists the choice. While
// disabled the feed keeps streaming without analysis.
func (a *App) SetEnabled(enabled bool) {
	a.mu.Lock()
	a.enabled = enabled
	a.mu.Unlock()

	if a.config.Store != nil {
		if err := a.config.Store.Settings().SetBool(store.SettingRecognitionEnabled, enabled); err != nil {
			logging.Component("app").WithError(err).Warn("Failed to persist recognition setting")
		}
	}
	logging.Component("app").Infof("Recognition enabled: %v", enabled)
}

// IsEnabled returns whether recognition is currently enabled.
func (a *App) IsEnabled() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.enabled
}

// RegisterArrivalCallback adds a function called on every arrival.
func (a *App) RegisterArrivalCallback(cb ArrivalCallback) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.callbacks = append(a.callbacks, cb)
}

// Running reports whether the pipeline is started.
func (a *App) Running() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.stopCh != nil
}

// Start opens the camera and launches the capture worker and render loop.
// Calling Start on a running App is a no-op.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.config.Camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}

	a.stopCh = make(chan struct{})
	a.hookCtx, a.hookCancel = context.WithCancel(context.Background())
	updates := make(chan display.Update, a.config.QueueSize)

	a.wg.Add(2)
	go a.runCapture(a.stopCh, updates)
	go a.runRender(updates)

	logging.Component("app").Infof("Pipeline started at %d FPS", a.config.Camera.FPS())
	return nil
}

// Stop halts both loops, waits for in-flight hooks, and releases the camera,
// analyzer and image buffers.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh := a.stopCh
	a.stopCh = nil
	cancel := a.hookCancel
	a.mu.Unlock()

	log := logging.Component("app")

	if stopCh != nil {
		close(stopCh)
		a.wg.Wait()
	}
	if cancel != nil {
		cancel()
	}
	a.hookWG.Wait()

	if a.config.Camera != nil {
		if err := a.config.Camera.Close(); err != nil {
			log.WithError(err).Warn("Error closing camera")
		}
	}
	if a.config.Analyzer != nil {
		if err := a.config.Analyzer.Close(); err != nil {
			log.WithError(err).Warn("Error closing analyzer")
		}
	}
	if a.motion != nil {
		a.motion.Close()
	}
	if a.enhancer != nil {
		a.enhancer.Close()
	}

	log.Info("Pipeline stopped")
}

// Stats returns a snapshot of the pipeline counters.
func (a *App) Stats() Stats {
	return Stats{
		Processed: a.processed.Load(),
		Dropped:   a.dropped.Load(),
		Errors:    a.errors.Load(),
		Arrivals:  a.arrivals.Load(),
		Idle:      a.idle.Load(),
		Running:   a.Running(),
		Enabled:   a.IsEnabled(),
	}
}

// Board returns the display board.
func (a *App) Board() *display.Board {
	return a.config.Board
}

// Camera returns the camera instance.
func (a *App) Camera() capture.Camera {
	return a.config.Camera
}
