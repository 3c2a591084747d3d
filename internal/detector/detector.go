package detector

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Detection is a single object found in a frame.
type Detection struct {
	Box     image.Rectangle
	ClassID int
	Label   string
	Score   float32
}

// Caption returns the annotation text for the detection, "<label> <score>".
func (d Detection) Caption() string {
	return fmt.Sprintf("%s %.2f", d.Label, d.Score)
}

// Detector defines the interface for object detection implementations.
type Detector interface {
	// Detect analyzes a video frame and returns the objects found in it.
	// Returns an empty slice if nothing is detected.
	Detect(frame *gocv.Mat) ([]Detection, error)

	// Close releases any resources held by the detector.
	Close() error
}

// Config holds configuration options for object detection.
type Config struct {
	// ModelPath is the ONNX model file.
	ModelPath string

	// LabelsPath is a newline-separated class names file. Optional.
	LabelsPath string

	// InputSize is the square network input edge in pixels (default: 640).
	InputSize int

	// Confidence is the minimum class score kept before NMS (0.0-1.0).
	Confidence float32

	// NMS is the IoU threshold for non-maximum suppression (0.0-1.0).
	NMS float32
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		InputSize:  640,
		Confidence: 0.25,
		NMS:        0.45,
	}
}
