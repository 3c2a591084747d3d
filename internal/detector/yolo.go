package detector

import (
	"errors"
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// ErrModelNotLoaded is returned when the network cannot be read.
var ErrModelNotLoaded = errors.New("detection model not loaded")

// YOLODetector runs an ONNX YOLO model (v8 output layout) through OpenCV DNN.
type YOLODetector struct {
	config Config
	labels Labels
	net    gocv.Net
	mu     sync.Mutex
}

// NewYOLODetector loads the model and labels named in config.
func NewYOLODetector(config Config) (*YOLODetector, error) {
	defaults := DefaultConfig()
	if config.InputSize <= 0 {
		config.InputSize = defaults.InputSize
	}
	if config.Confidence <= 0 {
		config.Confidence = defaults.Confidence
	}
	if config.NMS <= 0 {
		config.NMS = defaults.NMS
	}

	labels, err := LoadLabels(config.LabelsPath)
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(config.ModelPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelNotLoaded, err)
	}

	net := gocv.ReadNetFromONNX(config.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrModelNotLoaded, config.ModelPath)
	}

	return &YOLODetector{
		config: config,
		labels: labels,
		net:    net,
	}, nil
}

// Detect runs the network on frame and returns boxes in frame coordinates.
func (d *YOLODetector) Detect(frame *gocv.Mat) ([]Detection, error) {
	if frame == nil || frame.Empty() {
		return nil, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	size := image.Pt(d.config.InputSize, d.config.InputSize)
	blob := gocv.BlobFromImage(*frame, 1.0/255.0, size, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	defer out.Close()

	dims := out.Size()
	if len(dims) != 3 || dims[1] <= 4 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}

	scaleX := float64(frame.Cols()) / float64(d.config.InputSize)
	scaleY := float64(frame.Rows()) / float64(d.config.InputSize)

	candidates := decodeOutput(data, dims[1]-4, dims[2], scaleX, scaleY, d.config.Confidence)
	return d.suppress(candidates), nil
}

func (d *YOLODetector) suppress(candidates []Detection) []Detection {
	if len(candidates) == 0 {
		return nil
	}

	boxes := make([]image.Rectangle, len(candidates))
	scores := make([]float32, len(candidates))
	for i, c := range candidates {
		boxes[i] = c.Box
		scores[i] = c.Score
	}

	keep := gocv.NMSBoxes(boxes, scores, d.config.Confidence, d.config.NMS)

	result := make([]Detection, 0, len(keep))
	for _, idx := range keep {
		det := candidates[idx]
		det.Label = d.labels.Name(det.ClassID)
		result = append(result, det)
	}
	return result
}

// Close releases the network.
func (d *YOLODetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

// decodeOutput turns a [4+classes, boxes] row-major tensor into candidate
// detections. Each column holds cx, cy, w, h in network pixels followed by
// per-class scores. Boxes are scaled back to frame coordinates.
func decodeOutput(data []float32, numClasses, numBoxes int, scaleX, scaleY float64, minScore float32) []Detection {
	if numClasses <= 0 || numBoxes <= 0 || len(data) < (4+numClasses)*numBoxes {
		return nil
	}

	at := func(row, col int) float32 {
		return data[row*numBoxes+col]
	}

	var out []Detection
	for i := 0; i < numBoxes; i++ {
		best, bestScore := -1, float32(0)
		for c := 0; c < numClasses; c++ {
			if s := at(4+c, i); s > bestScore {
				best, bestScore = c, s
			}
		}
		if best < 0 || bestScore < minScore {
			continue
		}

		cx, cy := float64(at(0, i)), float64(at(1, i))
		w, h := float64(at(2, i)), float64(at(3, i))

		x0 := int((cx - w/2) * scaleX)
		y0 := int((cy - h/2) * scaleY)
		x1 := int((cx + w/2) * scaleX)
		y1 := int((cy + h/2) * scaleY)

		out = append(out, Detection{
			Box:     image.Rect(x0, y0, x1, y1),
			ClassID: best,
			Score:   bestScore,
		})
	}
	return out
}
