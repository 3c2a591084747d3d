// Package recognition matches faces seen by the camera against a gallery of
// known faces. Detection and encoding are delegated to dlib via go-face.
package recognition

import (
	"errors"
	"image"
	"math"

	"github.com/Kagami/go-face"
)

// Unknown is the label given to a face that matches no gallery entry.
const Unknown = "unknown"

// DefaultTolerance is the largest distance still accepted as the same identity.
const DefaultTolerance = 0.45

// Descriptor is a 128-dimensional face descriptor from dlib.
type Descriptor = face.Descriptor

// Face is a detected face with its bounding box and descriptor.
type Face struct {
	Box        image.Rectangle
	Descriptor Descriptor
}

// Encoder detects faces in a JPEG image and computes their descriptors.
type Encoder interface {
	Encode(jpeg []byte) ([]Face, error)
	Close() error
}

// ErrModelNotLoaded is returned when the encoder models are unavailable.
var ErrModelNotLoaded = errors.New("recognition models not loaded")

// ErrNoFace is returned when a gallery image contains no face.
var ErrNoFace = errors.New("no face detected")

// EuclideanDistance returns the Euclidean distance between two descriptors.
func EuclideanDistance(a, b Descriptor) float64 {
	var sum float64
	for i := range a {
		diff := float64(a[i] - b[i])
		sum += diff * diff
	}
	return math.Sqrt(sum)
}
