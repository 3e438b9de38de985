// Package design holds the editable design state: the decorations placed
// on a monument and their persisted form.
//
// Store is an in-memory implementation of the store the attachment
// controller writes to. Every mutation is published to subscribers
// synchronously, after the store lock is released, in the order the
// mutations happened.
package design

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/gogpu/engrave"
)

// Sentinel errors for the design package.
var (
	// ErrNotFound is returned for unknown decoration ids.
	ErrNotFound = errors.New("design: decoration not found")

	// ErrDuplicateID is returned when inserting an id that exists.
	ErrDuplicateID = errors.New("design: duplicate decoration id")

	// ErrNotArt is returned when setting a raster on a text decoration.
	ErrNotArt = errors.New("design: decoration has no art payload")

	// ErrNotText is returned when editing text on an art decoration.
	ErrNotText = errors.New("design: decoration has no text payload")
)

// EventKind identifies a store mutation.
type EventKind uint8

const (
	// EventAdded is published after Insert.
	EventAdded EventKind = iota
	// EventRemoved is published after Delete.
	EventRemoved
	// EventPoseUpdated is published when position or rotation change.
	EventPoseUpdated
	// EventRasterUpdated is published when art pixels change.
	EventRasterUpdated
	// EventHostChanged is published when a decoration is attached,
	// reattached or detached.
	EventHostChanged
	// EventTextUpdated is published when text properties change.
	EventTextUpdated
)

// String returns the string representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventAdded:
		return "added"
	case EventRemoved:
		return "removed"
	case EventPoseUpdated:
		return "pose-updated"
	case EventRasterUpdated:
		return "raster-updated"
	case EventHostChanged:
		return "host-changed"
	case EventTextUpdated:
		return "text-updated"
	default:
		return "unknown"
	}
}

// Event describes one mutation. Decoration is a copy taken after the
// mutation; for EventRemoved it is the last state.
type Event struct {
	Kind       EventKind
	ID         string
	Decoration engrave.Decoration
}

// Store keeps decorations in insertion order. It is safe for concurrent
// use; subscribers must not call back into the store.
type Store struct {
	mu    sync.RWMutex
	items map[string]*engrave.Decoration
	order []string

	subMu   sync.Mutex
	subs    map[int]func(Event)
	nextSub int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		items: make(map[string]*engrave.Decoration),
		subs:  make(map[int]func(Event)),
	}
}

// Subscribe registers fn for every later mutation and returns a function
// that removes it.
func (s *Store) Subscribe(fn func(Event)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

func (s *Store) publish(ev Event) {
	s.subMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for i := 0; i < s.nextSub; i++ {
		if fn, ok := s.subs[i]; ok {
			fns = append(fns, fn)
		}
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Insert adds d, assigning a random id when d.ID is empty, and returns
// the id. A zero Scale is stored as (1, 1, 1).
func (s *Store) Insert(d engrave.Decoration) (string, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Scale.IsZero() {
		d.Scale = engrave.V3(1, 1, 1)
	}
	c := clone(&d)

	s.mu.Lock()
	if _, ok := s.items[c.ID]; ok {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrDuplicateID, c.ID)
	}
	s.items[c.ID] = c
	s.order = append(s.order, c.ID)
	ev := Event{Kind: EventAdded, ID: c.ID, Decoration: *clone(c)}
	s.mu.Unlock()

	engrave.Logger().Debug("design: inserted", "id", c.ID, "kind", c.Kind.String(), "host", c.HostID)
	s.publish(ev)
	return c.ID, nil
}

// Delete removes a decoration, reporting whether it existed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	d, ok := s.items[id]
	if !ok {
		s.mu.Unlock()
		return false
	}
	delete(s.items, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	ev := Event{Kind: EventRemoved, ID: id, Decoration: *d}
	s.mu.Unlock()

	s.publish(ev)
	return true
}

// Get returns a copy of one decoration.
func (s *Store) Get(id string) (engrave.Decoration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.items[id]
	if !ok {
		return engrave.Decoration{}, false
	}
	return *clone(d), true
}

// Len returns the number of decorations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Decorations returns copies of all decorations in insertion order. Art
// rasters are cloned, so the caller owns the current image of each.
func (s *Store) Decorations() []engrave.Decoration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]engrave.Decoration, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *clone(s.items[id]))
	}
	return out
}

// update applies fn to the stored decoration and publishes kind.
func (s *Store) update(id string, kind EventKind, fn func(d *engrave.Decoration) error) error {
	s.mu.Lock()
	d, ok := s.items[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := fn(d); err != nil {
		s.mu.Unlock()
		return err
	}
	ev := Event{Kind: kind, ID: id, Decoration: *clone(d)}
	s.mu.Unlock()

	s.publish(ev)
	return nil
}

// SetDecorationLocalPose stores a new local pose.
func (s *Store) SetDecorationLocalPose(id string, pos, rot engrave.Vec3) error {
	if !pos.IsFinite() || !rot.IsFinite() {
		return fmt.Errorf("design: non-finite pose for %s", id)
	}
	return s.update(id, EventPoseUpdated, func(d *engrave.Decoration) error {
		d.Position, d.Rotation = pos, rot
		return nil
	})
}

// SetDecorationRaster replaces the current image of an art decoration.
// When pm matches the existing size the original image is kept;
// otherwise pm becomes the new original too.
func (s *Store) SetDecorationRaster(id string, pm *engrave.Pixmap) error {
	if pm == nil {
		return fmt.Errorf("design: nil raster for %s", id)
	}
	return s.update(id, EventRasterUpdated, func(d *engrave.Decoration) error {
		if d.Art == nil {
			return fmt.Errorf("%w: %s", ErrNotArt, id)
		}
		if d.Art.Raster != nil && d.Art.Raster.Current().CopyFrom(pm) {
			return nil
		}
		d.Art.Raster = engrave.NewRasterBuffer(pm)
		return nil
	})
}

// SetArt replaces the source image of an art decoration.
func (s *Store) SetArt(id, source string, pm *engrave.Pixmap) error {
	return s.update(id, EventRasterUpdated, func(d *engrave.Decoration) error {
		if d.Art == nil {
			return fmt.Errorf("%w: %s", ErrNotArt, id)
		}
		d.Art.Source = source
		if pm != nil {
			d.Art.Raster = engrave.NewRasterBuffer(pm)
		}
		return nil
	})
}

// SetHost attaches a decoration to hostID, or detaches it when hostID is
// empty. The local pose is reset to zero so the controller assigns the
// default surface offset.
func (s *Store) SetHost(id, hostID string) error {
	return s.update(id, EventHostChanged, func(d *engrave.Decoration) error {
		if d.HostID != hostID {
			d.HostID = hostID
			d.Position = engrave.Vec3{}
		}
		return nil
	})
}

// UpdateText edits the text payload in place.
func (s *Store) UpdateText(id string, fn func(*engrave.TextPayload)) error {
	return s.update(id, EventTextUpdated, func(d *engrave.Decoration) error {
		if d.Text == nil {
			return fmt.Errorf("%w: %s", ErrNotText, id)
		}
		fn(d.Text)
		return nil
	})
}

func clone(d *engrave.Decoration) *engrave.Decoration {
	c := *d
	if d.Text != nil {
		t := *d.Text
		c.Text = &t
	}
	if d.Art != nil {
		a := *d.Art
		if a.Raster != nil {
			a.Raster = a.Raster.Clone()
		}
		c.Art = &a
	}
	return &c
}
