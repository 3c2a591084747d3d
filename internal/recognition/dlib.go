package recognition

import (
	"fmt"
	"sync"

	"github.com/Kagami/go-face"

	"github.com/ayusman/facekiosk/internal/logging"
)

// DlibEncoder implements Encoder with go-face. The model directory must hold
// shape_predictor_5_face_landmarks.dat, dlib_face_recognition_resnet_model_v1.dat
// and mmod_human_face_detector.dat.
type DlibEncoder struct {
	rec *face.Recognizer
	mu  sync.Mutex
}

// NewDlibEncoder loads the dlib models from modelDir.
func NewDlibEncoder(modelDir string) (*DlibEncoder, error) {
	log := logging.Component("recognition")
	log.Infof("Loading face recognition models from: %s", modelDir)

	rec, err := face.NewRecognizer(modelDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelNotLoaded, err)
	}

	log.Info("Face recognition models loaded")
	return &DlibEncoder{rec: rec}, nil
}

// Encode detects every face in the JPEG image.
func (e *DlibEncoder) Encode(jpeg []byte) ([]Face, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.rec == nil {
		return nil, ErrModelNotLoaded
	}

	faces, err := e.rec.Recognize(jpeg)
	if err != nil {
		return nil, fmt.Errorf("face detection failed: %w", err)
	}

	result := make([]Face, len(faces))
	for i, f := range faces {
		result[i] = Face{
			Box:        f.Rectangle,
			Descriptor: f.Descriptor,
		}
	}
	return result, nil
}

// Close releases the dlib models.
func (e *DlibEncoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.rec != nil {
		e.rec.Close()
		e.rec = nil
	}
	return nil
}
