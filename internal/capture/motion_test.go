package capture

import (
	"image"
	"image/color"
	"testing"
	"time"

	"gocv.io/x/gocv"
)

func TestNewMotionDetector(t *testing.T) {
	md := NewMotionDetector(1.5)
	defer md.Close()

	if md.threshold != 1.5 {
		t.Errorf("threshold = %f, want 1.5", md.threshold)
	}
	if md.initialized {
		t.Error("motion detector should not be initialized initially")
	}
}

func TestMotionDetector_NoMotion(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	frame1 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame1.Close()
	frame2 := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame2.Close()

	detected, changePercent := md.Detect(&frame1)
	if detected || changePercent != 0 {
		t.Errorf("first frame = (%v, %f), want (false, 0)", detected, changePercent)
	}

	detected, changePercent = md.Detect(&frame2)
	if detected {
		t.Errorf("identical frames should not detect motion, changePercent = %f", changePercent)
	}
}

func TestMotionDetector_WithMotion(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	black := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer black.Close()
	white := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer white.Close()
	white.SetTo(gocv.NewScalar(255, 255, 255, 0))

	md.Detect(&black)
	detected, changePercent := md.Detect(&white)
	if !detected {
		t.Errorf("black to white should detect motion, changePercent = %f", changePercent)
	}
}

func TestMotionDetector_EmptyFrame(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	if detected, _ := md.Detect(nil); detected {
		t.Error("nil frame should not detect motion")
	}

	empty := gocv.NewMat()
	defer empty.Close()
	if detected, _ := md.Detect(&empty); detected {
		t.Error("empty frame should not detect motion")
	}
}

func TestMotionDetector_Reset(t *testing.T) {
	md := NewMotionDetector(1.0)
	defer md.Close()

	frame := gocv.NewMatWithSize(120, 160, gocv.MatTypeCV8UC3)
	defer frame.Close()

	md.Detect(&frame)
	md.Reset()

	if md.initialized {
		t.Error("Reset should clear the baseline")
	}
}

func TestActivityGate(t *testing.T) {
	start := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	gate := NewActivityGate(2*time.Second, start)

	if !gate.Active() {
		t.Fatal("gate should start active")
	}

	steps := []struct {
		name        string
		motion      bool
		at          time.Duration
		wantActive  bool
		wantChanged bool
	}{
		{name: "quiet within timeout", motion: false, at: time.Second, wantActive: true, wantChanged: false},
		{name: "quiet past timeout goes idle", motion: false, at: 3 * time.Second, wantActive: false, wantChanged: true},
		{name: "still quiet stays idle", motion: false, at: 4 * time.Second, wantActive: false, wantChanged: false},
		{name: "motion wakes", motion: true, at: 5 * time.Second, wantActive: true, wantChanged: true},
		{name: "continued motion", motion: true, at: 6 * time.Second, wantActive: true, wantChanged: false},
		{name: "quiet resets from last motion", motion: false, at: 7 * time.Second, wantActive: true, wantChanged: false},
	}

	for _, s := range steps {
		active, changed := gate.Observe(s.motion, start.Add(s.at))
		if active != s.wantActive || changed != s.wantChanged {
			t.Errorf("%s: Observe = (%v, %v), want (%v, %v)", s.name, active, changed, s.wantActive, s.wantChanged)
		}
	}
}

func TestEnhancer_Apply(t *testing.T) {
	e := NewEnhancer()
	defer e.Close()

	src := gocv.NewMatWithSize(60, 80, gocv.MatTypeCV8UC3)
	defer src.Close()
	src.SetTo(gocv.NewScalar(40, 80, 120, 0))
	gocv.Rectangle(&src, image.Rect(20, 20, 40, 40), color.RGBA{R: 255, G: 255, B: 255, A: 0}, -1)

	dst := gocv.NewMat()
	defer dst.Close()

	e.Apply(src, &dst)

	if dst.Empty() {
		t.Fatal("enhanced frame is empty")
	}
	if dst.Rows() != src.Rows() || dst.Cols() != src.Cols() {
		t.Errorf("enhanced size = %dx%d, want %dx%d", dst.Cols(), dst.Rows(), src.Cols(), src.Rows())
	}
	if dst.Type() != src.Type() {
		t.Errorf("enhanced type = %v, want %v", dst.Type(), src.Type())
	}
}
