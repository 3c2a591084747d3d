package app

import (
	"time"

	"github.com/ayusman/facekiosk/internal/annotate"
	"github.com/ayusman/facekiosk/internal/capture"
	"github.com/ayusman/facekiosk/internal/display"
	"github.com/ayusman/facekiosk/internal/logging"
	"github.com/ayusman/facekiosk/internal/plugin"
	"github.com/ayusman/facekiosk/internal/recognition"
	"github.com/ayusman/facekiosk/internal/store"
	"gocv.io/x/gocv"
)

// runCapture is the producer. It reads frames at the camera rate, processes
// them and offers the result to the render loop. When the queue is full the
// oldest pending update is dropped so the display never lags behind the camera.
//
// With motion gating on, the loop drops to the idle rate after the idle
// timeout without motion and skips analysis until motion returns.
func (a *App) runCapture(stopCh <-chan struct{}, updates chan display.Update) {
	defer a.wg.Done()
	defer close(updates)

	log := logging.Component("capture")
	activeFPS := a.config.Camera.FPS()

	ticker := time.NewTicker(frameInterval(activeFPS))
	defer ticker.Stop()

	var gate *capture.ActivityGate
	if a.motion != nil {
		gate = capture.NewActivityGate(a.config.Motion.IdleTimeout, time.Now())
	}

	readFailures := 0
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
		}

		frame, err := a.config.Camera.ReadFrame()
		if err != nil {
			readFailures++
			// Log the first failure and then every 100th to keep a dead device visible.
			if readFailures%100 == 1 {
				log.WithError(err).Warnf("Frame read failed (%d consecutive)", readFailures)
			}
			continue
		}
		readFailures = 0

		analyze := true
		if gate != nil {
			motion, _ := a.motion.Detect(frame)
			active, changed := gate.Observe(motion, time.Now())
			if changed {
				fps := a.config.Motion.IdleFPS
				if active {
					fps = activeFPS
				}
				a.config.Camera.SetFPS(fps)
				ticker.Reset(frameInterval(fps))
				a.idle.Store(!active)
				log.Infof("Switched to %s mode at %d FPS", modeName(active), fps)
			}
			analyze = active
		}

		u, ok := a.process(frame, analyze)
		frame.Close()
		if !ok {
			continue
		}

		if n := offer(updates, u); n > 0 {
			a.dropped.Add(uint64(n))
		}
	}
}

// runRender is the consumer. It applies updates to the board and handles arrivals.
func (a *App) runRender(updates <-chan display.Update) {
	defer a.wg.Done()

	for u := range updates {
		state, arrived := a.config.Board.Apply(u)
		if arrived {
			a.handleArrival(state)
		}
	}
}

// process enhances, analyzes, annotates and encodes one frame. Analysis
// errors are logged and the frame is shown without annotations. ok is false
// only when the frame could not be encoded.
func (a *App) process(frame *gocv.Mat, analyze bool) (display.Update, bool) {
	log := logging.Component("capture")

	if a.enhancer != nil {
		a.enhancer.Apply(*frame, frame)
	}

	var analysis Analysis
	if analyze && a.IsEnabled() && a.config.Analyzer != nil {
		res, err := a.config.Analyzer.Analyze(frame)
		if err != nil {
			a.errors.Add(1)
			log.WithError(err).Warn("Frame analysis failed")
		} else {
			analysis = res
		}
	}

	annotate.Draw(frame, analysis.Boxes, a.config.Style)

	jpeg, err := recognition.EncodeJPEG(*frame)
	if err != nil {
		a.errors.Add(1)
		log.WithError(err).Warn("Frame encode failed")
		return display.Update{}, false
	}

	a.processed.Add(1)
	return display.Update{Frame: jpeg, Identity: analysis.Identity}, true
}

// offer sends u on ch, discarding the oldest queued updates until it fits.
// It returns how many updates were discarded. Only one goroutine may send on ch.
func offer(ch chan display.Update, u display.Update) int {
	dropped := 0
	for {
		select {
		case ch <- u:
			return dropped
		default:
		}

		select {
		case <-ch:
			dropped++
		default:
		}
	}
}

// handleArrival records the visit, notifies callbacks, and runs hooks in the
// background so a slow hook never stalls the display.
func (a *App) handleArrival(state display.State) {
	log := logging.Component("app")
	a.arrivals.Add(1)
	log.Infof("Arrival: %s (known=%v, distance=%.3f)", state.Name, state.Known, state.Distance)

	visit := &store.Visit{
		Name:     state.Name,
		Known:    state.Known,
		Distance: state.Distance,
		SeenAt:   state.UpdatedAt,
	}
	recorded := false
	if a.config.Store != nil {
		if err := a.config.Store.Visits().Create(visit); err != nil {
			log.WithError(err).Warn("Failed to record visit")
		} else {
			recorded = true
		}
	}

	a.mu.RLock()
	callbacks := append([]ArrivalCallback(nil), a.callbacks...)
	ctx := a.hookCtx
	a.mu.RUnlock()

	for _, cb := range callbacks {
		cb(state)
	}

	if a.config.Hooks == nil || ctx == nil {
		return
	}

	req := a.hookRequest(state, visit.ID)
	a.hookWG.Add(1)
	go func() {
		defer a.hookWG.Done()
		results := a.config.Hooks.Dispatch(ctx, req)
		if !recorded {
			return
		}
		for _, r := range results {
			run := &store.HookRun{
				VisitID:    visit.ID,
				PluginName: r.Plugin,
				Success:    r.OK(),
				Error:      r.ErrorText(),
			}
			if err := a.config.Store.HookRuns().Create(run); err != nil {
				log.WithError(err).Warn("Failed to record hook run")
			}
		}
	}()
}

func (a *App) hookRequest(state display.State, visitID string) *plugin.Request {
	event := plugin.EventArrival
	if !state.Known {
		event = plugin.EventUnknown
	}

	req := &plugin.Request{
		Event:     event,
		VisitID:   visitID,
		Name:      state.Name,
		Known:     state.Known,
		Distance:  state.Distance,
		Timestamp: state.UpdatedAt,
	}

	if state.Known && a.config.People != nil {
		if p, ok := a.config.People.Lookup(state.Name); ok {
			req.Person = &plugin.Person{
				Gender:         p.Gender,
				StudentID:      p.StudentID,
				College:        p.College,
				PersonType:     p.PersonType,
				EnrollmentTime: p.EnrollmentTime,
			}
		}
	}
	return req
}

func frameInterval(fps int) time.Duration {
	if fps <= 0 {
		fps = capture.DefaultFPS
	}
	return time.Second / time.Duration(fps)
}

func modeName(active bool) string {
	if active {
		return "active"
	}
	return "idle"
}
