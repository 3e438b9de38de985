package attach

import (
	"sync"

	"github.com/gogpu/engrave"
	"github.com/gogpu/engrave/coord"
)

// Hosts is an in-memory HostProvider. Hosts become ready the first time
// Set is called for them.
type Hosts struct {
	mu      sync.Mutex
	entries map[string]*hostEntry
}

type hostEntry struct {
	transform coord.HostTransform
	size      engrave.Vec3
	loaded    bool
	ready     *Latch
}

// NewHosts creates an empty provider.
func NewHosts() *Hosts {
	return &Hosts{entries: make(map[string]*hostEntry)}
}

func (h *Hosts) entry(id string) *hostEntry {
	e, ok := h.entries[id]
	if !ok {
		e = &hostEntry{ready: NewLatch()}
		h.entries[id] = e
	}
	return e
}

// Set records the transform and bounding size of a host and marks it
// ready.
func (h *Hosts) Set(id string, t coord.HostTransform, size engrave.Vec3) {
	h.mu.Lock()
	e := h.entry(id)
	e.transform, e.size, e.loaded = t, size, true
	h.mu.Unlock()
	e.ready.Open()
}

// Move updates the transform of a loaded host.
func (h *Hosts) Move(id string, t coord.HostTransform) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.entries[id]
	if !ok || !e.loaded {
		return false
	}
	e.transform = t
	return true
}

// WorldTransform implements HostProvider.
func (h *Hosts) WorldTransform(id string) (coord.HostTransform, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.entries[id]
	if !ok || !e.loaded {
		return coord.HostTransform{}, false
	}
	return e.transform, true
}

// BoundingSize implements HostProvider.
func (h *Hosts) BoundingSize(id string) (engrave.Vec3, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.entries[id]
	if !ok || !e.loaded {
		return engrave.Vec3{}, false
	}
	return e.size, true
}

// Ready implements HostProvider.
func (h *Hosts) Ready(id string) <-chan struct{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entry(id).ready.Done()
}
