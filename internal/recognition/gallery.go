package recognition

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gocv.io/x/gocv"

	"github.com/ayusman/facekiosk/internal/logging"
)

// KnownFace is one gallery entry. The name comes from the image filename.
type KnownFace struct {
	Name       string
	Descriptor Descriptor
	ImagePath  string
}

// Gallery is the immutable set of known faces loaded at startup.
type Gallery struct {
	faces []KnownFace
}

// NewGallery builds a gallery from already-encoded faces.
func NewGallery(faces []KnownFace) *Gallery {
	cp := make([]KnownFace, len(faces))
	copy(cp, faces)
	return &Gallery{faces: cp}
}

// Faces returns a copy of the gallery entries.
func (g *Gallery) Faces() []KnownFace {
	cp := make([]KnownFace, len(g.faces))
	copy(cp, g.faces)
	return cp
}

// Len returns the number of known faces.
func (g *Gallery) Len() int {
	return len(g.faces)
}

// Lookup returns the entry with the given name.
func (g *Gallery) Lookup(name string) (KnownFace, bool) {
	for _, f := range g.faces {
		if f.Name == name {
			return f, true
		}
	}
	return KnownFace{}, false
}

type loadOptions struct {
	progress func(done, total int)
}

// LoadOption configures LoadGallery.
type LoadOption func(*loadOptions)

// WithProgress reports progress after each candidate image.
func WithProgress(fn func(done, total int)) LoadOption {
	return func(o *loadOptions) {
		o.progress = fn
	}
}

// IsGalleryImage reports whether the filename has a supported image extension.
func IsGalleryImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// isRegularFile reports whether entry is a regular file, following symlinks.
func isRegularFile(dir string, entry os.DirEntry) bool {
	if entry.Type()&os.ModeSymlink == 0 {
		return entry.Type().IsRegular()
	}
	info, err := os.Stat(filepath.Join(dir, entry.Name()))
	return err == nil && info.Mode().IsRegular()
}

// LoadGallery encodes every image directly under dir. A missing directory is
// created and yields an empty gallery. Images that cannot be read or contain
// no face are logged and skipped. Entries are sorted by name.
func LoadGallery(dir string, enc Encoder, opts ...LoadOption) (*Gallery, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	log := logging.Component("gallery")

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create gallery directory: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read gallery directory: %w", err)
	}

	var candidates []string
	for _, entry := range entries {
		if !IsGalleryImage(entry.Name()) || !isRegularFile(dir, entry) {
			continue
		}
		candidates = append(candidates, entry.Name())
	}

	faces := make([]KnownFace, 0, len(candidates))
	for i, filename := range candidates {
		path := filepath.Join(dir, filename)

		desc, err := encodeFile(path, enc)
		if err != nil {
			log.WithError(err).Warnf("Skipping gallery image %s", filename)
		} else {
			faces = append(faces, KnownFace{
				Name:       strings.TrimSuffix(filename, filepath.Ext(filename)),
				Descriptor: desc,
				ImagePath:  path,
			})
		}

		if o.progress != nil {
			o.progress(i+1, len(candidates))
		}
	}

	sort.Slice(faces, func(i, j int) bool {
		return faces[i].Name < faces[j].Name
	})

	log.Infof("Loaded %d known faces from %s", len(faces), dir)
	return &Gallery{faces: faces}, nil
}

// encodeFile returns the descriptor of the first face in the image.
func encodeFile(path string, enc Encoder) (Descriptor, error) {
	data, err := readJPEG(path)
	if err != nil {
		return Descriptor{}, err
	}

	faces, err := enc.Encode(data)
	if err != nil {
		return Descriptor{}, err
	}
	if len(faces) == 0 {
		return Descriptor{}, ErrNoFace
	}
	return faces[0].Descriptor, nil
}

// readJPEG returns the file as JPEG bytes, re-encoding other formats through OpenCV.
func readJPEG(path string) ([]byte, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".jpg" || ext == ".jpeg" {
		return os.ReadFile(path)
	}

	img := gocv.IMRead(path, gocv.IMReadColor)
	defer img.Close()
	if img.Empty() {
		return nil, errors.New("cannot decode image")
	}

	return EncodeJPEG(img)
}

// EncodeJPEG encodes a Mat as JPEG bytes owned by the Go heap.
func EncodeJPEG(img gocv.Mat) ([]byte, error) {
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	defer buf.Close()

	return append([]byte(nil), buf.GetBytes()...), nil
}
