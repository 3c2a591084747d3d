package recognition

import (
	"math"
	"testing"
)

// descriptorAt returns a descriptor that is zero except for value v at index i.
func descriptorAt(i int, v float32) Descriptor {
	var d Descriptor
	d[i] = v
	return d
}

func testGallery() *Gallery {
	return NewGallery([]KnownFace{
		{Name: "alice", Descriptor: descriptorAt(0, 1), ImagePath: "/faces/alice.jpg"},
		{Name: "bob", Descriptor: descriptorAt(1, 1), ImagePath: "/faces/bob.jpg"},
		{Name: "carol", Descriptor: descriptorAt(2, 1), ImagePath: "/faces/carol.png"},
	})
}

func TestEuclideanDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b Descriptor
		want float64
	}{
		{name: "identical", a: descriptorAt(0, 1), b: descriptorAt(0, 1), want: 0},
		{name: "orthogonal unit", a: descriptorAt(0, 1), b: descriptorAt(1, 1), want: math.Sqrt2},
		{name: "same axis", a: descriptorAt(5, 0.25), b: descriptorAt(5, 0.75), want: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EuclideanDistance(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("EuclideanDistance() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestMatcher_IdenticalProbeMatchesEntry(t *testing.T) {
	g := testGallery()
	m := NewMatcher(g, 0.45)

	for _, known := range g.Faces() {
		t.Run(known.Name, func(t *testing.T) {
			got := m.Match(known.Descriptor)
			if !got.Known {
				t.Fatalf("expected known match for %s", known.Name)
			}
			if got.Name != known.Name {
				t.Errorf("Name = %s, want %s", got.Name, known.Name)
			}
			if got.ImagePath != known.ImagePath {
				t.Errorf("ImagePath = %s, want %s", got.ImagePath, known.ImagePath)
			}
			if got.Distance != 0 {
				t.Errorf("Distance = %f, want 0", got.Distance)
			}
		})
	}
}

func TestMatcher_PicksNearest(t *testing.T) {
	m := NewMatcher(testGallery(), 0.45)

	// Close to bob, further from everyone else
	query := descriptorAt(1, 0.8)
	got := m.Match(query)

	if !got.Known || got.Name != "bob" {
		t.Errorf("Match() = %+v, want bob", got)
	}
	if math.Abs(got.Distance-0.2) > 1e-6 {
		t.Errorf("Distance = %f, want 0.2", got.Distance)
	}
}

func TestMatcher_FarProbeIsUnknown(t *testing.T) {
	m := NewMatcher(testGallery(), 0.45)

	got := m.Match(descriptorAt(10, 1))

	if got.Known {
		t.Errorf("expected unknown, got %+v", got)
	}
	if got.Label() != Unknown {
		t.Errorf("Label() = %s, want %s", got.Label(), Unknown)
	}
	if got.ImagePath != "" {
		t.Errorf("unknown match should have no image, got %s", got.ImagePath)
	}
}

func TestMatcher_ToleranceBoundaryIsInclusive(t *testing.T) {
	g := NewGallery([]KnownFace{{Name: "dave", Descriptor: descriptorAt(0, 1)}})
	m := NewMatcher(g, 0.5)

	if got := m.Match(descriptorAt(0, 0.5)); !got.Known {
		t.Errorf("distance equal to tolerance should match, got %+v", got)
	}
	if got := m.Match(descriptorAt(0, 0.49)); got.Known {
		t.Errorf("distance above tolerance should not match, got %+v", got)
	}
}

func TestMatcher_EmptyGallery(t *testing.T) {
	m := NewMatcher(NewGallery(nil), 0.45)

	got := m.Match(descriptorAt(0, 1))
	if got.Known {
		t.Errorf("empty gallery should yield unknown, got %+v", got)
	}
	if got.Name != Unknown {
		t.Errorf("Name = %s, want %s", got.Name, Unknown)
	}
}

func TestNewMatcher_Defaults(t *testing.T) {
	m := NewMatcher(nil, 0)

	if m.Tolerance() != DefaultTolerance {
		t.Errorf("Tolerance() = %f, want %f", m.Tolerance(), DefaultTolerance)
	}
	if m.Gallery().Len() != 0 {
		t.Errorf("nil gallery should be empty, got %d", m.Gallery().Len())
	}
}
