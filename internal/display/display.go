// Package display holds the kiosk's display state: the latest annotated frame
// and the identity card for the person in front of the camera.
package display

import (
	"sync"
	"time"

	"github.com/ayusman/facekiosk/internal/people"
)

// Identity is the primary recognition result of a frame.
type Identity struct {
	Name      string
	Known     bool
	ImagePath string
	Distance  float64
}

// Update is what the capture worker hands to the render loop for one frame.
// A nil Identity means nothing was detected.
type Update struct {
	Frame    []byte
	Identity *Identity
}

// Resolver turns a name into a display card.
type Resolver interface {
	Card(name string, known bool, now time.Time) people.Card
}

// State is the non-video part of the display.
type State struct {
	Name      string       `json:"name"`
	Known     bool         `json:"known"`
	Distance  float64      `json:"distance,omitempty"`
	Card      *people.Card `json:"card,omitempty"`
	Info      string       `json:"info"`
	Avatar    string       `json:"-"`
	HasAvatar bool         `json:"has_avatar"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Empty reports whether the state shows nobody.
func (s State) Empty() bool {
	return s.Name == ""
}

const subscriberBuffer = 8

// Board is the shared display state. Apply is called from the render loop;
// the other methods are safe to call from HTTP handlers.
type Board struct {
	resolver     Resolver
	unknownImage string
	now          func() time.Time

	mu       sync.RWMutex
	state    State
	lastName string
	frame    []byte
	frameSeq uint64

	subMu   sync.Mutex
	subs    map[int]chan State
	nextSub int
}

// NewBoard creates a Board. now may be nil, in which case time.Now is used.
func NewBoard(resolver Resolver, unknownImage string, now func() time.Time) *Board {
	if now == nil {
		now = time.Now
	}
	return &Board{
		resolver:     resolver,
		unknownImage: unknownImage,
		now:          now,
		subs:         make(map[int]chan State),
	}
}

// Apply folds one update into the display. It returns the resulting state and
// whether this update is an arrival, meaning its identity differs from the
// last identity seen. The last identity is remembered across clears, so the
// same person leaving and coming back is not a new arrival.
func (b *Board) Apply(u Update) (State, bool) {
	b.mu.Lock()

	if u.Frame != nil {
		b.frame = u.Frame
		b.frameSeq++
	}

	if u.Identity == nil {
		changed := !b.state.Empty()
		b.state = State{}
		state := b.state
		b.mu.Unlock()

		if changed {
			b.publish(state)
		}
		return state, false
	}

	id := *u.Identity
	arrived := id.Name != b.lastName
	b.lastName = id.Name

	if !arrived && b.state.Name == id.Name {
		b.state.Distance = id.Distance
		state := b.state
		b.mu.Unlock()
		return state, false
	}

	card := b.resolver.Card(id.Name, id.Known, b.now())
	b.state = State{
		Name:      id.Name,
		Known:     id.Known,
		Distance:  id.Distance,
		Card:      &card,
		Info:      card.Text(),
		Avatar:    b.avatar(id, card),
		UpdatedAt: b.now(),
	}
	b.state.HasAvatar = b.state.Avatar != ""
	state := b.state
	b.mu.Unlock()

	b.publish(state)
	return state, arrived
}

// avatar picks the matched gallery image, then the record's image, then the
// unknown-face fallback.
func (b *Board) avatar(id Identity, card people.Card) string {
	if !id.Known {
		return b.unknownImage
	}
	if id.ImagePath != "" {
		return id.ImagePath
	}
	if card.ImagePath != "" {
		return card.ImagePath
	}
	return b.unknownImage
}

// Snapshot returns the current state.
func (b *Board) Snapshot() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

// LastName returns the most recent identity seen, even if the display has
// since been cleared.
func (b *Board) LastName() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastName
}

// Frame returns the latest annotated JPEG and its sequence number. The
// sequence is zero until the first frame arrives.
func (b *Board) Frame() ([]byte, uint64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.frame, b.frameSeq
}

// Subscribe returns a channel of state changes and a cancel function. Slow
// subscribers miss intermediate states rather than blocking the render loop.
func (b *Board) Subscribe() (<-chan State, func()) {
	b.subMu.Lock()
	defer b.subMu.Unlock()

	id := b.nextSub
	b.nextSub++
	ch := make(chan State, subscriberBuffer)
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.subMu.Lock()
			defer b.subMu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

func (b *Board) publish(s State) {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- s:
		default:
		}
	}
}
