package recognition

import "sync"

// MockEncoder is a test Encoder. Images are looked up by their raw bytes;
// anything not registered gets the default faces.
type MockEncoder struct {
	mu       sync.Mutex
	byImage  map[string][]Face
	errors   map[string]error
	fallback []Face
	err      error
	calls    int
}

// NewMockEncoder creates an empty MockEncoder.
func NewMockEncoder() *MockEncoder {
	return &MockEncoder{
		byImage: make(map[string][]Face),
		errors:  make(map[string]error),
	}
}

// SetImage registers the faces returned for an image with the given content.
func (m *MockEncoder) SetImage(content string, faces []Face) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byImage[content] = faces
}

// SetImageError makes Encode fail for an image with the given content.
func (m *MockEncoder) SetImageError(content string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[content] = err
}

// SetDefault sets the faces returned for unregistered images.
func (m *MockEncoder) SetDefault(faces []Face) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = faces
}

// SetError makes every Encode call fail.
func (m *MockEncoder) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Encode returns the pre-configured faces or error.
func (m *MockEncoder) Encode(jpeg []byte) ([]Face, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if err, ok := m.errors[string(jpeg)]; ok {
		return nil, err
	}
	if faces, ok := m.byImage[string(jpeg)]; ok {
		return faces, nil
	}
	return m.fallback, nil
}

// Calls returns how many times Encode ran.
func (m *MockEncoder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Close is a no-op.
func (m *MockEncoder) Close() error {
	return nil
}
