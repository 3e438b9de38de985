// Package attach keeps decorations glued to the host surfaces they sit on.
//
// A Controller tracks one render node per decoration. Every frame the
// application calls [Controller.Tick], which drains work posted by
// background goroutines, re-projects decorations whose host moved, and
// writes changed local poses back to the design store, at most once per
// decoration per frame.
//
// The local pose in the store is the source of truth. World poses are
// derived from it and pushed to nodes; the only path from a world pose back
// to the store is the end of a drag.
//
// Controller methods must be called from the frame goroutine. The inbound
// notifications PoseUpdated, HostReassigned, TextChanged and Removed may
// be called from any goroutine; they take effect on the next Tick.
package attach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"

	"github.com/gogpu/engrave"
	"github.com/gogpu/engrave/coord"
	"github.com/gogpu/engrave/fill"
	"github.com/gogpu/engrave/glyphs"
	"github.com/gogpu/engrave/layout"
	"github.com/gogpu/engrave/resource"
)

// Sentinel errors for the attach package.
var (
	// ErrClosed is returned by every method after Close.
	ErrClosed = errors.New("attach: controller closed")

	// ErrUnknownDecoration is returned for ids the controller does not
	// track.
	ErrUnknownDecoration = errors.New("attach: unknown decoration")

	// ErrAlreadyTracked is returned when attaching an id twice.
	ErrAlreadyTracked = errors.New("attach: decoration already tracked")

	// ErrNotAttached is returned when dragging a detached decoration.
	ErrNotAttached = errors.New("attach: decoration not attached")

	// ErrNotDragging is returned when ending a drag that never started.
	ErrNotDragging = errors.New("attach: no drag in progress")

	// ErrNoRaster is returned when filling a decoration without art.
	ErrNoRaster = errors.New("attach: decoration has no raster")

	// ErrNoText is returned for text operations on art decorations.
	ErrNoText = errors.New("attach: decoration has no text")
)

// State is the attachment state of one decoration.
type State uint8

const (
	// Detached decorations float in world space.
	Detached State = iota
	// AttachedIdle decorations follow their host.
	AttachedIdle
	// AttachedDragging decorations follow the user; host changes are
	// ignored until the drag ends.
	AttachedDragging
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Detached:
		return "detached"
	case AttachedIdle:
		return "attached-idle"
	case AttachedDragging:
		return "attached-dragging"
	default:
		return "unknown"
	}
}

// item is the controller's view of one decoration.
type item struct {
	id     string
	hostID string
	kind   engrave.Kind
	node   Node
	state  State

	local  coord.Pose
	finish engrave.FinishVariant

	// host is the transform the current world pose was derived from.
	host    *coord.HostTransform
	world   coord.WorldPose
	applied bool

	// initialized is set once the local pose is known to be placed.
	initialized bool
	// waiting is set while a goroutine waits on the host's ready signal;
	// stopWait ends that goroutine.
	waiting  bool
	stopWait context.CancelFunc
	dirty    bool
	// badHost is set once an unusable host transform has been reported.
	badHost bool

	// pending is the next local pose to write; expected is the last one
	// written and not yet echoed.
	pending  *coord.Pose
	expected *coord.Pose

	raster      *engrave.RasterBuffer
	rasterDirty bool

	text    *engrave.TextPayload
	run     layout.Run
	outline glyphs.Outline
}

// Controller synchronizes decorations with their hosts.
type Controller struct {
	cfg     engrave.Config
	hosts   HostProvider
	store   Store
	fonts   FontService
	loader  RasterLoader
	fill    *fill.Engine
	layout  *layout.Layouter
	surface coord.Surface
	log     *slog.Logger

	onNotice      func(Notice)
	fallbackColor engrave.RGBA
	echo          bool

	mbox   mailbox
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool

	items    map[string]*item
	dragging string
}

// New creates a Controller. hosts and store are required.
func New(hosts HostProvider, store Store, opts ...Option) (*Controller, error) {
	if hosts == nil || store == nil {
		return nil, errors.New("attach: nil host provider or store")
	}
	c := &Controller{
		cfg:           engrave.DefaultConfig(),
		hosts:         hosts,
		store:         store,
		fallbackColor: engrave.White,
		items:         make(map[string]*item),
	}
	for _, opt := range opts {
		opt(c)
	}
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	if c.log == nil {
		c.log = engrave.Logger()
	}
	if c.fonts == nil {
		r, err := glyphs.NewResolver(glyphs.WithDefaultWidth(c.cfg.Layout.DefaultWidth))
		if err != nil {
			return nil, err
		}
		c.fonts = r
	}
	if c.loader == nil {
		c.loader = resource.NewLoader(resource.WithConfig(c.cfg.Resource))
	}
	if c.fill == nil {
		c.fill = fill.New(fill.WithConfig(c.cfg.Fill))
	}
	if c.layout == nil {
		c.layout = layout.New(layout.WithConfig(c.cfg.Layout))
	}
	c.surface = coord.NewSurface(c.cfg.Surface)
	c.ctx, c.cancel = context.WithCancel(context.Background())
	return c, nil
}

// Close stops background waits and discards queued work. Results that
// arrive later are dropped.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.cancel()
	c.mbox.close()
	c.wg.Wait()
	c.items = make(map[string]*item)
	c.dragging = ""
}

// Attach starts tracking decoration d, rendered by node. A decoration with
// a host but a zero position is placed at the default surface offset as
// soon as the host's bounds are known.
func (c *Controller) Attach(d engrave.Decoration, node Node) error {
	if c.closed {
		return ErrClosed
	}
	if d.ID == "" || node == nil {
		return errors.New("attach: decoration id and node are required")
	}
	if _, ok := c.items[d.ID]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyTracked, d.ID)
	}

	it := &item{
		id:          d.ID,
		hostID:      d.HostID,
		kind:        d.Kind,
		node:        node,
		state:       Detached,
		local:       coord.Pose{Position: d.Position, Rotation: d.Rotation},
		finish:      d.Finish(),
		initialized: !d.Position.IsZero() || d.HostID == "",
		dirty:       true,
	}
	if d.HostID != "" {
		it.state = AttachedIdle
	}
	if d.Art != nil && d.Art.Raster != nil {
		it.raster = d.Art.Raster.Clone()
	}
	c.items[d.ID] = it

	if d.Text != nil {
		t := *d.Text
		it.text = &t
		c.relayout(it)
	}

	c.log.Info("attach: tracking decoration", "id", d.ID, "host", d.HostID, "kind", d.Kind.String())
	return nil
}

// Remove stops tracking a decoration. Pending writes and in-flight async
// results for it are discarded.
func (c *Controller) Remove(id string) bool {
	if _, ok := c.items[id]; !ok {
		return false
	}
	if c.dragging == id {
		c.dragging = ""
	}
	c.items[id].cancelWait()
	delete(c.items, id)
	return true
}

// Detach releases a decoration from its host. It keeps its world pose,
// which becomes its new local pose.
func (c *Controller) Detach(id string) error {
	it, err := c.lookup(id)
	if err != nil {
		return err
	}
	if it.state == Detached {
		return nil
	}
	if c.dragging == id {
		c.CancelDrag(id)
	}
	world := it.node.WorldPose()
	if it.applied {
		world = it.world
	}
	local, err := coord.ToLocal(world, nil)
	if err != nil {
		return err
	}
	it.hostID, it.host, it.state = "", nil, Detached
	c.setLocal(it, local)
	return nil
}

// SetHost moves a decoration onto hostID with the given local pose, or
// detaches it when hostID is empty. A zero position is replaced by the
// default surface offset once the host's bounds are known.
func (c *Controller) SetHost(id, hostID string, local coord.Pose) error {
	it, err := c.lookup(id)
	if err != nil {
		return err
	}
	if hostID == "" {
		return c.Detach(id)
	}
	if err := checkFinite(local); err != nil {
		c.reject(it, err)
		return err
	}
	if c.dragging == id {
		c.CancelDrag(id)
	}
	it.cancelWait()
	it.hostID, it.host, it.state = hostID, nil, AttachedIdle
	it.local = local
	it.initialized = !local.Position.IsZero()
	it.badHost = false
	it.dirty = true
	it.pending, it.expected = nil, nil
	return nil
}

// SetFinish changes the finish of a text decoration. Only the local Z is
// recomputed, and it is written back when it moved by more than epsilon.
func (c *Controller) SetFinish(id string, finish engrave.FinishVariant) error {
	it, err := c.lookup(id)
	if err != nil {
		return err
	}
	it.finish = finish
	if it.text != nil {
		it.text.Finish = finish
	}
	if it.hostID == "" || !it.initialized {
		return nil
	}
	size, ok := c.hosts.BoundingSize(it.hostID)
	thickness, ok2 := coord.Thickness(size)
	if !ok || !ok2 {
		// Placed again once the bounds arrive.
		it.initialized = false
		c.waitForHost(it)
		return nil
	}
	z := c.surface.Offset(thickness, finish)
	if math.Abs(z-it.local.Position.Z) <= c.cfg.Attach.Epsilon {
		return nil
	}
	local := it.local
	local.Position.Z = z
	c.setLocal(it, local)
	return nil
}

// RequestPoseUpdate sets a new local pose, as from a numeric editor or an
// undo. The pose must be finite and, when the host is loaded, survive a
// round trip through it; on failure the previous pose is kept.
func (c *Controller) RequestPoseUpdate(id string, local coord.Pose) error {
	it, err := c.lookup(id)
	if err != nil {
		return err
	}
	if err := checkFinite(local); err != nil {
		c.reject(it, err)
		return err
	}
	if it.state == AttachedDragging {
		c.CancelDrag(id)
	}
	host, err := c.hostTransform(it)
	if err != nil && !errors.Is(err, coord.ErrHostUnavailable) {
		return err
	}
	if err == nil {
		if _, err := c.project(local, host); err != nil {
			c.reject(it, err)
			return err
		}
	}
	it.initialized = true
	c.setLocal(it, local)
	return nil
}

// State returns the attachment state of a decoration.
func (c *Controller) State(id string) (State, bool) {
	it, ok := c.items[id]
	if !ok {
		return Detached, false
	}
	return it.state, true
}

// LocalPose returns the controller's current local pose of a decoration.
func (c *Controller) LocalPose(id string) (coord.Pose, bool) {
	it, ok := c.items[id]
	if !ok {
		return coord.Pose{}, false
	}
	return it.local, true
}

// WorldPose returns the last world pose applied to the decoration's node.
func (c *Controller) WorldPose(id string) (coord.WorldPose, bool) {
	it, ok := c.items[id]
	if !ok || !it.applied {
		return coord.WorldPose{}, false
	}
	return it.world, true
}

// Tick runs one frame: queued work, host propagation, recomputation and
// write-back.
func (c *Controller) Tick() error {
	if c.closed {
		return ErrClosed
	}
	for _, fn := range c.mbox.drain() {
		fn()
	}
	if c.closed {
		return ErrClosed
	}

	ids := make([]string, 0, len(c.items))
	for id := range c.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		c.update(c.items[id])
	}
	for _, id := range ids {
		c.flush(c.items[id])
	}
	return nil
}

// update propagates host changes to one decoration.
func (c *Controller) update(it *item) {
	if it.state == AttachedDragging {
		return
	}
	host, err := c.hostTransform(it)
	if err != nil {
		if errors.Is(err, coord.ErrHostUnavailable) {
			c.waitForHost(it)
			return
		}
		if !it.badHost {
			it.badHost = true
			c.log.Warn("attach: bad host transform", "id", it.id, "host", it.hostID, "error", err)
		} else {
			c.log.Debug("attach: bad host transform", "id", it.id, "host", it.hostID, "error", err)
		}
		return
	}
	it.badHost = false

	if !it.initialized {
		if !c.place(it) {
			c.waitForHost(it)
			return
		}
	}

	if !it.dirty && it.applied && sameHost(it.host, host) {
		return
	}
	world, err := c.project(it.local, host)
	if err != nil {
		c.reject(it, err)
		it.dirty = false
		return
	}
	it.host = host
	it.world, it.applied, it.dirty = world, true, false
	it.node.SetWorldPose(world)
}

// place assigns the default surface offset. It reports false while the
// host's bounds are unknown.
func (c *Controller) place(it *item) bool {
	size, ok := c.hosts.BoundingSize(it.hostID)
	if !ok {
		return false
	}
	thickness, ok := coord.Thickness(size)
	if !ok {
		return false
	}
	local := it.local
	local.Position.Z = c.surface.Offset(thickness, it.finish)
	it.initialized = true
	c.setLocal(it, local)
	c.log.Debug("attach: placed on surface", "id", it.id, "host", it.hostID, "z", local.Position.Z)
	return true
}

// flush writes pending state for one decoration.
func (c *Controller) flush(it *item) {
	if it.pending != nil && (!c.echo || it.expected == nil) {
		p := *it.pending
		it.pending = nil
		if err := c.store.SetDecorationLocalPose(it.id, p.Position, p.Rotation); err != nil {
			c.log.Warn("attach: pose write failed", "id", it.id, "error", err)
			c.notify(Notice{Kind: NoticeWriteFailed, DecorationID: it.id, Err: err})
		} else if c.echo {
			it.expected = &p
		}
	}
	if it.rasterDirty && it.raster != nil {
		it.rasterDirty = false
		if err := c.store.SetDecorationRaster(it.id, it.raster.Current().Clone()); err != nil {
			c.log.Warn("attach: raster write failed", "id", it.id, "error", err)
			c.notify(Notice{Kind: NoticeWriteFailed, DecorationID: it.id, Err: err})
		}
	}
}

// setLocal accepts a new local pose, queues its write and marks the world
// pose stale.
func (c *Controller) setLocal(it *item, local coord.Pose) {
	it.local = local
	p := local
	it.pending = &p
	it.dirty = true
}

// project converts local to world and checks that the result converts
// back consistently.
func (c *Controller) project(local coord.Pose, host *coord.HostTransform) (coord.WorldPose, error) {
	world, err := coord.ToWorld(local, host)
	if err != nil {
		return coord.WorldPose{}, err
	}
	back, err := coord.ToLocal(world, host)
	if err != nil {
		return coord.WorldPose{}, err
	}
	if err := coord.CheckRoundTrip(back, world, host, c.cfg.Attach.RoundTripTolerance); err != nil {
		return coord.WorldPose{}, err
	}
	return world, nil
}

// checkFinite reports coord.ErrNonFinite for a pose with NaN or infinite
// components.
func checkFinite(local coord.Pose) error {
	_, err := coord.ToWorld(local, nil)
	return err
}

func (c *Controller) reject(it *item, err error) {
	c.log.Warn("attach: pose rejected", "id", it.id, "host", it.hostID, "error", err)
	c.notify(Notice{Kind: NoticePoseRejected, DecorationID: it.id, Err: err})
}

func (c *Controller) hostTransform(it *item) (*coord.HostTransform, error) {
	return coord.Lookup(it.hostID, c.hosts.WorldTransform)
}

// waitForHost parks the decoration until its host signals ready.
func (c *Controller) waitForHost(it *item) {
	if it.waiting || it.hostID == "" {
		return
	}
	ctx, cancel := context.WithCancel(c.ctx)
	it.waiting, it.stopWait = true, cancel
	id, hostID := it.id, it.hostID
	ready := c.hosts.Ready(hostID)
	c.log.Debug("attach: waiting for host", "id", id, "host", hostID)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		select {
		case <-ready:
		case <-ctx.Done():
			return
		}
		c.mbox.post(func() {
			cur, ok := c.items[id]
			if !ok || cur != it || cur.hostID != hostID || ctx.Err() != nil {
				return
			}
			cur.cancelWait()
			cur.dirty = true
			c.log.Info("attach: host ready", "id", id, "host", hostID)
		})
	}()
}

// cancelWait ends a pending host wait, if any.
func (it *item) cancelWait() {
	if it.stopWait != nil {
		it.stopWait()
		it.stopWait = nil
	}
	it.waiting = false
}

func (c *Controller) notify(n Notice) {
	if c.onNotice != nil {
		c.onNotice(n)
	}
}

func (c *Controller) lookup(id string) (*item, error) {
	if c.closed {
		return nil, ErrClosed
	}
	it, ok := c.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDecoration, id)
	}
	return it, nil
}

func sameHost(a, b *coord.HostTransform) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
