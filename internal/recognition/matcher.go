package recognition

import "math"

// Match is the outcome of comparing one query descriptor with the gallery.
type Match struct {
	Name      string
	ImagePath string
	Distance  float64
	Known     bool
}

// Label returns the identity name, or Unknown.
func (m Match) Label() string {
	if m.Known {
		return m.Name
	}
	return Unknown
}

// Matcher performs nearest-neighbour lookups against a gallery.
type Matcher struct {
	gallery   *Gallery
	tolerance float64
}

// NewMatcher creates a Matcher. A non-positive tolerance uses DefaultTolerance.
func NewMatcher(g *Gallery, tolerance float64) *Matcher {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	if g == nil {
		g = NewGallery(nil)
	}
	return &Matcher{gallery: g, tolerance: tolerance}
}

// Tolerance returns the acceptance threshold.
func (m *Matcher) Tolerance() float64 {
	return m.tolerance
}

// Gallery returns the gallery being matched against.
func (m *Matcher) Gallery() *Gallery {
	return m.gallery
}

// Match finds the gallery entry closest to query. It is accepted when its
// distance is within tolerance; otherwise the result is unknown. An empty
// gallery always yields unknown.
func (m *Matcher) Match(query Descriptor) Match {
	best := -1
	bestDist := math.MaxFloat64

	for i, f := range m.gallery.faces {
		if d := EuclideanDistance(query, f.Descriptor); d < bestDist {
			bestDist = d
			best = i
		}
	}

	if best < 0 {
		return Match{Name: Unknown, Distance: math.MaxFloat64}
	}

	if bestDist > m.tolerance {
		return Match{Name: Unknown, Distance: bestDist}
	}

	known := m.gallery.faces[best]
	return Match{
		Name:      known.Name,
		ImagePath: known.ImagePath,
		Distance:  bestDist,
		Known:     true,
	}
}
