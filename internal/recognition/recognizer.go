package recognition

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// FaceMatch is a face found in a frame together with its gallery match.
type FaceMatch struct {
	Box image.Rectangle
	Match
}

// Result is the recognition outcome for one frame.
type Result struct {
	Faces []FaceMatch
	// Primary is the identity the display follows: the closest known face,
	// else the first unknown face, nil when no face was detected.
	Primary *FaceMatch
}

// Detected reports whether any face was found.
func (r Result) Detected() bool {
	return r.Primary != nil
}

// Recognizer runs detection, encoding and matching on camera frames.
type Recognizer struct {
	encoder Encoder
	matcher *Matcher
}

// NewRecognizer creates a Recognizer.
func NewRecognizer(enc Encoder, m *Matcher) *Recognizer {
	return &Recognizer{encoder: enc, matcher: m}
}

// Matcher returns the matcher in use.
func (r *Recognizer) Matcher() *Matcher {
	return r.matcher
}

// Recognize encodes the frame and matches every face in it.
func (r *Recognizer) Recognize(frame *gocv.Mat) (Result, error) {
	if frame == nil || frame.Empty() {
		return Result{}, nil
	}

	data, err := EncodeJPEG(*frame)
	if err != nil {
		return Result{}, err
	}

	faces, err := r.encoder.Encode(data)
	if err != nil {
		return Result{}, fmt.Errorf("recognize frame: %w", err)
	}

	return r.Classify(faces), nil
}

// Classify matches already-encoded faces.
func (r *Recognizer) Classify(faces []Face) Result {
	if len(faces) == 0 {
		return Result{}
	}

	res := Result{Faces: make([]FaceMatch, len(faces))}
	primary := -1
	for i, f := range faces {
		res.Faces[i] = FaceMatch{Box: f.Box, Match: r.matcher.Match(f.Descriptor)}

		switch {
		case primary < 0:
			primary = i
		case res.Faces[i].Known && !res.Faces[primary].Known:
			primary = i
		case res.Faces[i].Known && res.Faces[i].Distance < res.Faces[primary].Distance:
			primary = i
		}
	}

	res.Primary = &res.Faces[primary]
	return res
}

// Close releases the encoder.
func (r *Recognizer) Close() error {
	return r.encoder.Close()
}
