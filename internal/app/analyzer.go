package app

import (
	"github.com/ayusman/facekiosk/internal/annotate"
	"github.com/ayusman/facekiosk/internal/detector"
	"github.com/ayusman/facekiosk/internal/display"
	"github.com/ayusman/facekiosk/internal/recognition"
	"gocv.io/x/gocv"
)

// Analysis is what an Analyzer found in one frame.
type Analysis struct {
	Boxes    []annotate.Box
	Identity *display.Identity
}

// Analyzer turns a frame into boxes to draw and, optionally, an identity to display.
type Analyzer interface {
	Analyze(frame *gocv.Mat) (Analysis, error)
	Close() error
}

// FaceAnalyzer recognizes faces against the gallery.
type FaceAnalyzer struct {
	recognizer *recognition.Recognizer
}

// NewFaceAnalyzer wraps a Recognizer.
func NewFaceAnalyzer(r *recognition.Recognizer) *FaceAnalyzer {
	return &FaceAnalyzer{recognizer: r}
}

// Analyze labels every face with its identity and reports the primary one.
func (f *FaceAnalyzer) Analyze(frame *gocv.Mat) (Analysis, error) {
	res, err := f.recognizer.Recognize(frame)
	if err != nil {
		return Analysis{}, err
	}

	var a Analysis
	for _, fm := range res.Faces {
		a.Boxes = append(a.Boxes, annotate.Box{Rect: fm.Box, Label: fm.Label()})
	}

	if p := res.Primary; p != nil {
		a.Identity = &display.Identity{
			Name:      p.Label(),
			Known:     p.Known,
			ImagePath: p.ImagePath,
			Distance:  p.Distance,
		}
	}
	return a, nil
}

// Close releases the recognizer.
func (f *FaceAnalyzer) Close() error {
	return f.recognizer.Close()
}

// ObjectAnalyzer runs an object detector. It never reports an identity, so
// the info panel stays empty in this mode.
type ObjectAnalyzer struct {
	detector detector.Detector
}

// NewObjectAnalyzer wraps a Detector.
func NewObjectAnalyzer(d detector.Detector) *ObjectAnalyzer {
	return &ObjectAnalyzer{detector: d}
}

// Analyze labels every detection with "<label> <score>".
func (o *ObjectAnalyzer) Analyze(frame *gocv.Mat) (Analysis, error) {
	detections, err := o.detector.Detect(frame)
	if err != nil {
		return Analysis{}, err
	}

	var a Analysis
	for _, d := range detections {
		a.Boxes = append(a.Boxes, annotate.Box{Rect: d.Box, Label: d.Caption()})
	}
	return a, nil
}

// Close releases the detector.
func (o *ObjectAnalyzer) Close() error {
	return o.detector.Close()
}
