package capture

import (
	"image"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

// Motion detection constants
const (
	// MotionBlurSize is the kernel size for Gaussian blur (21x21).
	MotionBlurSize = 21
	// DiffThreshold is the binary threshold for difference detection.
	DiffThreshold = 25
)

// MotionDetector detects motion between consecutive frames using frame
// differencing on blurred grayscale images.
type MotionDetector struct {
	threshold   float64
	prevGray    gocv.Mat
	initialized bool
	mu          sync.Mutex
}

// NewMotionDetector creates a MotionDetector. threshold is the percentage of
// pixels that must change, e.g. 1.0 means 1%.
func NewMotionDetector(threshold float64) *MotionDetector {
	return &MotionDetector{
		threshold: threshold,
		prevGray:  gocv.NewMat(),
	}
}

// Detect compares frame with the previous one and reports whether motion was
// seen along with the changed-pixel percentage. The first frame only sets the
// baseline.
func (m *MotionDetector) Detect(frame *gocv.Mat) (bool, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: MotionBlurSize, Y: MotionBlurSize}, 0, 0, gocv.BorderDefault)

	if !m.initialized {
		blurred.CopyTo(&m.prevGray)
		m.initialized = true
		return false, 0
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.prevGray, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, DiffThreshold, 255, gocv.ThresholdBinary)

	nonZero := gocv.CountNonZero(thresh)
	totalPixels := thresh.Rows() * thresh.Cols()
	changePercent := float64(nonZero) / float64(totalPixels) * 100.0

	blurred.CopyTo(&m.prevGray)

	return changePercent > m.threshold, changePercent
}

// Reset drops the baseline frame.
func (m *MotionDetector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.prevGray.Empty() {
		m.prevGray.Close()
		m.prevGray = gocv.NewMat()
	}
	m.initialized = false
}

// Close releases resources used by the motion detector.
func (m *MotionDetector) Close() {
	m.Reset()
}

// ActivityGate tracks whether the scene is active. It switches to active on
// any motion and back to idle once no motion has been seen for the timeout.
type ActivityGate struct {
	timeout    time.Duration
	active     bool
	lastMotion time.Time
}

// NewActivityGate creates a gate that starts active so the first frames are
// analyzed.
func NewActivityGate(timeout time.Duration, now time.Time) *ActivityGate {
	return &ActivityGate{
		timeout:    timeout,
		active:     true,
		lastMotion: now,
	}
}

// Observe records a motion sample and returns the new state and whether it changed.
func (g *ActivityGate) Observe(motion bool, now time.Time) (active bool, changed bool) {
	if motion {
		g.lastMotion = now
		if !g.active {
			g.active = true
			return true, true
		}
		return true, false
	}

	if g.active && now.Sub(g.lastMotion) > g.timeout {
		g.active = false
		return false, true
	}

	return g.active, false
}

// Active reports the current state.
func (g *ActivityGate) Active() bool {
	return g.active
}
