package attach

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/engrave"
	"github.com/gogpu/engrave/coord"
	"github.com/gogpu/engrave/design"
	"github.com/gogpu/engrave/fill"
	"github.com/gogpu/engrave/glyphs"
)

const tol = 1e-9

type fakeNode struct {
	pose coord.WorldPose
	sets int
}

func (n *fakeNode) WorldPose() coord.WorldPose { return n.pose }

func (n *fakeNode) SetWorldPose(p coord.WorldPose) {
	n.pose = p
	n.sets++
}

// countingStore counts the writes the controller makes.
type countingStore struct {
	*design.Store
	poseWrites   int
	rasterWrites int
}

func (s *countingStore) SetDecorationLocalPose(id string, pos, rot engrave.Vec3) error {
	s.poseWrites++
	return s.Store.SetDecorationLocalPose(id, pos, rot)
}

func (s *countingStore) SetDecorationRaster(id string, pm *engrave.Pixmap) error {
	s.rasterWrites++
	return s.Store.SetDecorationRaster(id, pm)
}

// fakeLoader completes loads only when the test says so.
type fakeLoader struct {
	mu    sync.Mutex
	calls map[string]func(*engrave.Pixmap, error)
}

func (l *fakeLoader) LoadAsync(_ context.Context, path string, done func(*engrave.Pixmap, error)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.calls == nil {
		l.calls = make(map[string]func(*engrave.Pixmap, error))
	}
	l.calls[path] = done
}

func (l *fakeLoader) complete(path string, pm *engrave.Pixmap, err error) {
	l.mu.Lock()
	done := l.calls[path]
	l.mu.Unlock()
	done(pm, err)
}

type harness struct {
	c       *Controller
	hosts   *Hosts
	store   *countingStore
	loader  *fakeLoader
	notices []Notice
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		hosts:  NewHosts(),
		store:  &countingStore{Store: design.NewStore()},
		loader: &fakeLoader{},
	}
	opts = append([]Option{
		WithLoader(h.loader),
		WithNoticeHandler(func(n Notice) { h.notices = append(h.notices, n) }),
	}, opts...)
	c, err := New(h.hosts, h.store, opts...)
	require.NoError(t, err)
	h.c = c
	cancel := Bind(c, h.store.Store)
	t.Cleanup(func() {
		cancel()
		c.Close()
	})
	return h
}

// add inserts d into the store and attaches it with a fresh node.
func (h *harness) add(t *testing.T, d engrave.Decoration) (string, *fakeNode) {
	t.Helper()
	id, err := h.store.Insert(d)
	require.NoError(t, err)
	stored, ok := h.store.Get(id)
	require.True(t, ok)
	node := &fakeNode{}
	require.NoError(t, h.c.Attach(stored, node))
	return id, node
}

func (h *harness) tick(t *testing.T) {
	t.Helper()
	require.NoError(t, h.c.Tick())
}

func tickUntil(t *testing.T, c *Controller, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		require.NoError(t, c.Tick())
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		time.Sleep(time.Millisecond)
	}
}

func identityHost() coord.HostTransform {
	return coord.HostTransform{Rotation: engrave.QuatIdentity(), Scale: engrave.V3(1, 1, 1)}
}

func hostAt(x, y, z float64) coord.HostTransform {
	h := identityHost()
	h.Position = engrave.V3(x, y, z)
	return h
}

func textOn(host string) engrave.Decoration {
	return engrave.Decoration{
		HostID: host,
		Kind:   engrave.KindText,
		Text:   &engrave.TextPayload{Text: "HELLO", Size: 0.1, Finish: engrave.FinishEtched},
	}
}

func artOn(host string, w, h int) engrave.Decoration {
	pm := engrave.NewPixmap(w, h)
	pm.Clear(engrave.White)
	return engrave.Decoration{
		HostID:   host,
		Kind:     engrave.KindArt,
		Position: engrave.V3(0.1, 0.1, -0.06),
		Art:      &engrave.ArtPayload{Source: "rose.png", Raster: engrave.NewRasterBuffer(pm)},
	}
}

func TestAttachPlacesAtSurfaceOffset(t *testing.T) {
	h := newHarness(t)
	h.hosts.Set("tablet", identityHost(), engrave.V3(1, 0.6, 0.1))
	id, node := h.add(t, textOn("tablet"))

	h.tick(t)
	wantZ := -0.05 - 0.001
	local, _ := h.c.LocalPose(id)
	assert.InDelta(t, wantZ, local.Position.Z, tol)
	assert.InDelta(t, wantZ, node.pose.Position.Z, tol)
	assert.Equal(t, 1, h.store.poseWrites)

	d, _ := h.store.Get(id)
	assert.InDelta(t, wantZ, d.Position.Z, tol)

	// The echo of our own write is swallowed; nothing else is written.
	h.tick(t)
	h.tick(t)
	assert.Equal(t, 1, h.store.poseWrites)
	state, _ := h.c.State(id)
	assert.Equal(t, AttachedIdle, state)
}

func TestAttachDefersUntilHostReady(t *testing.T) {
	h := newHarness(t)
	id, node := h.add(t, textOn("tablet"))

	h.tick(t)
	h.tick(t)
	_, ok := h.c.WorldPose(id)
	assert.False(t, ok)
	assert.Zero(t, node.sets)
	assert.Zero(t, h.store.poseWrites)
	assert.Empty(t, h.notices)

	h.hosts.Set("tablet", hostAt(0, 1, 0), engrave.V3(1, 1, 0.2))
	tickUntil(t, h.c, func() bool {
		_, ok := h.c.WorldPose(id)
		return ok
	})
	assert.InDelta(t, 1, node.pose.Position.Y, tol)
	assert.InDelta(t, -0.101, node.pose.Position.Z, tol)
	assert.Equal(t, 1, h.store.poseWrites)
}

func TestHostMovePropagates(t *testing.T) {
	h := newHarness(t)
	h.hosts.Set("tablet", identityHost(), engrave.V3(1, 1, 0.1))
	id, node := h.add(t, textOn("tablet"))
	h.tick(t)
	writes := h.store.poseWrites

	require.True(t, h.hosts.Move("tablet", hostAt(1, 0, 0)))
	h.tick(t)

	assert.InDelta(t, 1, node.pose.Position.X, tol)
	assert.Equal(t, writes, h.store.poseWrites, "host movement never writes back")
	local, _ := h.c.LocalPose(id)
	assert.InDelta(t, 0, local.Position.X, tol)
}

func TestHostScaleProjection(t *testing.T) {
	h := newHarness(t)
	host := identityHost()
	host.Scale = engrave.V3(2, 1, 1)
	h.hosts.Set("tablet", host, engrave.V3(1, 1, 1))

	d := textOn("tablet")
	d.Position = engrave.V3(1, 0, 0)
	_, node := h.add(t, d)
	h.tick(t)

	assert.InDelta(t, 2, node.pose.Position.X, tol)
	assert.Zero(t, h.store.poseWrites, "an explicit position is not replaced")
}

func TestDragSuspendsHostUpdates(t *testing.T) {
	h := newHarness(t)
	h.hosts.Set("tablet", identityHost(), engrave.V3(1, 1, 0.1))
	id, node := h.add(t, textOn("tablet"))
	h.tick(t)

	require.NoError(t, h.c.BeginDrag(id))
	state, _ := h.c.State(id)
	assert.Equal(t, AttachedDragging, state)

	sets := node.sets
	h.hosts.Move("tablet", hostAt(1, 0, 0))
	h.tick(t)
	assert.Equal(t, sets, node.sets)

	require.NoError(t, h.c.EndDrag(id))
	h.tick(t)
	local, _ := h.c.LocalPose(id)
	assert.InDelta(t, -1, local.Position.X, tol, "drop pose is relative to the moved host")
	assert.InDelta(t, 0, node.pose.Position.X, tol)

	d, _ := h.store.Get(id)
	assert.InDelta(t, -1, d.Position.X, tol)
}

func TestDragWritesBack(t *testing.T) {
	h := newHarness(t)
	h.hosts.Set("tablet", hostAt(0, 0, 2), engrave.V3(1, 1, 0.1))
	id, node := h.add(t, textOn("tablet"))
	h.tick(t)
	writes := h.store.poseWrites
	start := node.pose

	drop := start
	drop.Position = start.Position.Add(engrave.V3(0.3, 0.2, 0))
	require.NoError(t, h.c.BeginDrag(id))
	require.NoError(t, h.c.DragTo(id, drop))
	require.NoError(t, h.c.EndDrag(id))
	h.tick(t)

	assert.Equal(t, writes+1, h.store.poseWrites)
	d, _ := h.store.Get(id)
	assert.InDelta(t, 0.3, d.Position.X, 1e-9)
	assert.InDelta(t, 0.2, d.Position.Y, 1e-9)
	assert.InDelta(t, -0.051, d.Position.Z, 1e-9)
	assert.True(t, d.Rotation.ApproxEqual(engrave.Vec3{}, 1e-9))

	world, _ := h.c.WorldPose(id)
	assert.True(t, world.Position.ApproxEqual(drop.Position, 1e-9))

	// Dropping in place writes nothing.
	require.NoError(t, h.c.BeginDrag(id))
	require.NoError(t, h.c.EndDrag(id))
	h.tick(t)
	assert.Equal(t, writes+1, h.store.poseWrites)
}

func TestSelectionCancelsDrag(t *testing.T) {
	h := newHarness(t)
	h.hosts.Set("tablet", identityHost(), engrave.V3(1, 1, 0.1))
	a, nodeA := h.add(t, textOn("tablet"))
	b, _ := h.add(t, textOn("tablet"))
	h.tick(t)
	writes := h.store.poseWrites
	stored := nodeA.pose

	require.NoError(t, h.c.BeginDrag(a))
	moved := stored
	moved.Position = engrave.V3(5, 5, 5)
	require.NoError(t, h.c.DragTo(a, moved))

	h.c.Select(b)
	state, _ := h.c.State(a)
	assert.Equal(t, AttachedIdle, state)
	assert.Equal(t, stored, nodeA.pose, "node restored to the stored pose")

	h.tick(t)
	assert.Equal(t, writes, h.store.poseWrites)
	assert.ErrorIs(t, h.c.EndDrag(a), ErrNotDragging)

	// Starting a drag on b also cancels one on a.
	require.NoError(t, h.c.BeginDrag(a))
	require.NoError(t, h.c.BeginDrag(b))
	state, _ = h.c.State(a)
	assert.Equal(t, AttachedIdle, state)
}

func TestDragErrors(t *testing.T) {
	h := newHarness(t)
	id, _ := h.add(t, artOn("", 2, 2))
	assert.ErrorIs(t, h.c.BeginDrag(id), ErrNotAttached)
	assert.ErrorIs(t, h.c.EndDrag(id), ErrNotDragging)
	assert.ErrorIs(t, h.c.DragTo(id, coord.WorldPose{}), ErrNotDragging)
	assert.ErrorIs(t, h.c.BeginDrag("nope"), ErrUnknownDecoration)
}

func TestSetFinishMovesOnlyZ(t *testing.T) {
	h := newHarness(t)
	h.hosts.Set("tablet", identityHost(), engrave.V3(1, 1, 0.1))
	d := textOn("tablet")
	d.Position = engrave.V3(0.2, 0.3, -0.051)
	id, _ := h.add(t, d)
	h.tick(t)
	assert.Zero(t, h.store.poseWrites)

	require.NoError(t, h.c.SetFinish(id, engrave.FinishRaised))
	h.tick(t)
	assert.Equal(t, 1, h.store.poseWrites)
	got, _ := h.store.Get(id)
	assert.InDelta(t, -0.053, got.Position.Z, tol)
	assert.InDelta(t, 0.2, got.Position.X, tol)
	assert.InDelta(t, 0.3, got.Position.Y, tol)

	require.NoError(t, h.c.SetFinish(id, engrave.FinishRaised))
	h.tick(t)
	h.tick(t)
	assert.Equal(t, 1, h.store.poseWrites, "unchanged Z is not written")
}

func TestWriteBackDebounced(t *testing.T) {
	h := newHarness(t)
	h.hosts.Set("tablet", identityHost(), engrave.V3(1, 1, 0.1))
	d := textOn("tablet")
	d.Position = engrave.V3(0, 0, -0.051)
	id, _ := h.add(t, d)
	h.tick(t)

	for i := 1; i <= 3; i++ {
		p := coord.Pose{Position: engrave.V3(float64(i)/10, 0, -0.051)}
		require.NoError(t, h.c.RequestPoseUpdate(id, p))
	}
	h.tick(t)
	assert.Equal(t, 1, h.store.poseWrites)
	got, _ := h.store.Get(id)
	assert.InDelta(t, 0.3, got.Position.X, tol)

	h.tick(t)
	assert.Equal(t, 1, h.store.poseWrites)
}

func TestExternalPoseAdopted(t *testing.T) {
	h := newHarness(t)
	h.hosts.Set("tablet", hostAt(1, 0, 0), engrave.V3(1, 1, 0.1))
	id, node := h.add(t, textOn("tablet"))
	h.tick(t)
	h.tick(t)
	writes := h.store.poseWrites

	// An undo, say, rewrites the store directly.
	require.NoError(t, h.store.Store.SetDecorationLocalPose(id, engrave.V3(0.5, 0, -0.051), engrave.Vec3{}))
	h.tick(t)

	local, _ := h.c.LocalPose(id)
	assert.InDelta(t, 0.5, local.Position.X, tol)
	assert.InDelta(t, 1.5, node.pose.Position.X, tol)
	assert.Equal(t, writes, h.store.poseWrites)
}

func TestInvalidPoseRejected(t *testing.T) {
	h := newHarness(t)
	h.hosts.Set("tablet", identityHost(), engrave.V3(1, 1, 0.1))
	id, node := h.add(t, textOn("tablet"))
	h.tick(t)
	before, _ := h.c.LocalPose(id)
	pose := node.pose

	err := h.c.RequestPoseUpdate(id, coord.Pose{Position: engrave.V3(math.NaN(), 0, 0)})
	assert.ErrorIs(t, err, coord.ErrNonFinite)

	after, _ := h.c.LocalPose(id)
	assert.Equal(t, before, after)
	h.tick(t)
	assert.Equal(t, pose, node.pose)
	require.Len(t, h.notices, 1)
	assert.Equal(t, NoticePoseRejected, h.notices[0].Kind)
}

func TestInvalidPoseRejectedWhileHostLoads(t *testing.T) {
	h := newHarness(t)
	id, node := h.add(t, textOn("slab"))
	h.tick(t)
	before, _ := h.c.LocalPose(id)

	for _, bad := range []coord.Pose{
		{Position: engrave.V3(math.NaN(), 0, 0)},
		{Rotation: engrave.V3(0, math.Inf(1), 0)},
	} {
		assert.ErrorIs(t, h.c.RequestPoseUpdate(id, bad), coord.ErrNonFinite)
		after, _ := h.c.LocalPose(id)
		assert.Equal(t, before, after)
	}
	assert.ErrorIs(t, h.c.SetHost(id, "slab", coord.Pose{Position: engrave.V3(0, math.NaN(), 0)}), coord.ErrNonFinite)

	h.hosts.Set("slab", identityHost(), engrave.V3(1, 1, 0.1))
	tickUntil(t, h.c, func() bool { return node.sets > 0 })
	local, _ := h.c.LocalPose(id)
	assert.True(t, local.Position.IsFinite())
	assert.InDelta(t, -0.051, local.Position.Z, tol)
	assert.True(t, node.pose.Position.IsFinite())
	for _, n := range h.notices {
		assert.Equal(t, NoticePoseRejected, n.Kind)
	}
}

// levelCounter counts records per level.
type levelCounter struct {
	mu     sync.Mutex
	counts map[slog.Level]int
}

func (l *levelCounter) Enabled(context.Context, slog.Level) bool { return true }

func (l *levelCounter) Handle(_ context.Context, r slog.Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.counts[r.Level]++
	return nil
}

func (l *levelCounter) WithAttrs([]slog.Attr) slog.Handler { return l }
func (l *levelCounter) WithGroup(string) slog.Handler      { return l }

func (l *levelCounter) count(level slog.Level) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[level]
}

func TestDegenerateHostWarnsOnce(t *testing.T) {
	logs := &levelCounter{counts: make(map[slog.Level]int)}
	h := newHarness(t, WithLogger(slog.New(logs)))
	h.hosts.Set("tablet", identityHost(), engrave.V3(1, 1, 0.1))
	h.add(t, textOn("tablet"))
	h.tick(t)
	require.Zero(t, logs.count(slog.LevelWarn))

	flat := identityHost()
	flat.Scale = engrave.V3(0, 1, 1)
	h.hosts.Move("tablet", flat)
	for range 5 {
		h.tick(t)
	}
	assert.Equal(t, 1, logs.count(slog.LevelWarn))

	// A usable transform re-arms the warning.
	h.hosts.Move("tablet", identityHost())
	h.tick(t)
	h.hosts.Move("tablet", flat)
	h.tick(t)
	h.tick(t)
	assert.Equal(t, 2, logs.count(slog.LevelWarn))
}

func TestRemoveStopsHostWait(t *testing.T) {
	h := newHarness(t)
	id, _ := h.add(t, textOn("never"))
	h.tick(t)
	it := h.c.items[id]
	require.True(t, it.waiting)

	require.True(t, h.c.Remove(id))
	done := make(chan struct{})
	go func() {
		h.c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("host wait outlived its decoration")
	}
}

func TestSetHostReplacesHostWait(t *testing.T) {
	h := newHarness(t)
	id, node := h.add(t, textOn("never"))
	h.tick(t)

	h.hosts.Set("slab", identityHost(), engrave.V3(1, 1, 0.1))
	require.NoError(t, h.c.SetHost(id, "slab", coord.Pose{}))
	tickUntil(t, h.c, func() bool { return node.sets > 0 })

	done := make(chan struct{})
	go func() {
		h.c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("wait on the previous host kept running")
	}
}

func TestDegenerateHostKeepsPose(t *testing.T) {
	h := newHarness(t)
	h.hosts.Set("tablet", identityHost(), engrave.V3(1, 1, 0.1))
	id, node := h.add(t, textOn("tablet"))
	h.tick(t)
	pose := node.pose

	flat := identityHost()
	flat.Scale = engrave.V3(1, 0, 1)
	h.hosts.Move("tablet", flat)
	h.tick(t)
	assert.Equal(t, pose, node.pose)

	require.NoError(t, h.c.BeginDrag(id))
	assert.ErrorIs(t, h.c.EndDrag(id), coord.ErrDegenerateHost)
	assert.Equal(t, pose, node.pose)
}

func TestDetach(t *testing.T) {
	h := newHarness(t)
	h.hosts.Set("tablet", hostAt(2, 0, 0), engrave.V3(1, 1, 0.1))
	id, node := h.add(t, textOn("tablet"))
	h.tick(t)
	world := node.pose

	require.NoError(t, h.c.Detach(id))
	h.tick(t)
	state, _ := h.c.State(id)
	assert.Equal(t, Detached, state)

	local, _ := h.c.LocalPose(id)
	assert.True(t, local.Position.ApproxEqual(world.Position, tol))
	assert.True(t, engrave.QuatFromEuler(local.Rotation).SameRotation(world.Rotation, 1e-9))
	assert.True(t, node.pose.Position.ApproxEqual(world.Position, tol))

	h.hosts.Move("tablet", hostAt(9, 0, 0))
	h.tick(t)
	assert.True(t, node.pose.Position.ApproxEqual(world.Position, tol), "detached decorations ignore the host")
}

func TestHostReassignedFromStore(t *testing.T) {
	h := newHarness(t)
	h.hosts.Set("tablet", identityHost(), engrave.V3(1, 1, 0.1))
	h.hosts.Set("base", hostAt(5, 0, 0), engrave.V3(2, 0.5, 0.2))
	id, node := h.add(t, textOn("tablet"))
	h.tick(t)

	require.NoError(t, h.store.SetHost(id, "base"))
	h.tick(t)
	h.tick(t)

	assert.InDelta(t, 5, node.pose.Position.X, tol)
	assert.InDelta(t, -0.101, node.pose.Position.Z, tol)
	d, _ := h.store.Get(id)
	assert.Equal(t, "base", d.HostID)
	assert.InDelta(t, -0.101, d.Position.Z, tol)
}

func TestRemovedFromStore(t *testing.T) {
	h := newHarness(t)
	id, _ := h.add(t, artOn("", 2, 2))
	require.True(t, h.store.Delete(id))
	h.tick(t)
	_, ok := h.c.State(id)
	assert.False(t, ok)
}

func TestFillWritesRasterOncePerFrame(t *testing.T) {
	h := newHarness(t)
	id, _ := h.add(t, artOn("", 3, 3))

	res, err := h.c.Fill(id, fill.Request{Mode: fill.ModeGlobal, Pattern: fill.NewSolid(engrave.Red)})
	require.NoError(t, err)
	assert.Equal(t, 9, res.Changed)
	_, err = h.c.Fill(id, fill.Request{Mode: fill.ModeSeeded, Pattern: fill.NewSolid(engrave.Blue), SeedX: 1, SeedY: 1})
	require.NoError(t, err)

	h.tick(t)
	assert.Equal(t, 1, h.store.rasterWrites)
	d, _ := h.store.Get(id)
	assert.Equal(t, engrave.Blue.NRGBA(), d.Art.Raster.Current().PixelAt(2, 2))

	res, err = h.c.Fill(id, fill.Request{Mode: fill.ModeGlobal, Pattern: fill.NewSolid(engrave.Blue)})
	require.NoError(t, err)
	assert.True(t, res.NoOp)
	h.tick(t)
	assert.Equal(t, 1, h.store.rasterWrites)

	tid, _ := h.add(t, textOn(""))
	_, err = h.c.Fill(tid, fill.Request{Pattern: fill.NewSolid(engrave.Red)})
	assert.ErrorIs(t, err, ErrNoRaster)
}

func TestFillWithPattern(t *testing.T) {
	h := newHarness(t)
	id, _ := h.add(t, artOn("", 4, 2))

	var got fill.Result
	require.NoError(t, h.c.FillWithPattern(id, "stripes.png", fill.Request{Mode: fill.ModeGlobal}, func(r fill.Result, err error) {
		require.NoError(t, err)
		got = r
	}))

	tile := engrave.NewPixmap(2, 1)
	tile.SetPixel(0, 0, engrave.Red)
	tile.SetPixel(1, 0, engrave.Green)
	h.loader.complete("stripes.png", tile, nil)
	h.tick(t)

	assert.Equal(t, 8, got.Changed)
	pm, ok := h.c.Raster(id)
	require.True(t, ok)
	assert.Equal(t, engrave.Red.NRGBA(), pm.PixelAt(2, 1))
	assert.Equal(t, engrave.Green.NRGBA(), pm.PixelAt(3, 0))
	assert.Equal(t, 1, h.store.rasterWrites)
	assert.Empty(t, h.notices)
}

func TestFillWithPatternFallback(t *testing.T) {
	h := newHarness(t, WithFallbackColor(engrave.Red))
	id, _ := h.add(t, artOn("", 2, 2))

	require.NoError(t, h.c.FillWithPattern(id, "missing.png", fill.Request{Mode: fill.ModeGlobal}, nil))
	h.loader.complete("missing.png", nil, errors.New("no such file"))
	h.tick(t)

	require.Len(t, h.notices, 1)
	assert.Equal(t, NoticePatternFallback, h.notices[0].Kind)
	assert.Contains(t, h.notices[0].String(), "no such file")
	d, _ := h.store.Get(id)
	assert.Equal(t, engrave.Red.NRGBA(), d.Art.Raster.Current().PixelAt(1, 1))
}

func TestLateResultsDiscarded(t *testing.T) {
	h := newHarness(t)
	id, _ := h.add(t, artOn("", 2, 2))

	called := false
	require.NoError(t, h.c.FillWithPattern(id, "slow.png", fill.Request{}, func(fill.Result, error) { called = true }))
	require.True(t, h.c.Remove(id))
	h.loader.complete("slow.png", engrave.NewPixmap(1, 1), nil)
	h.tick(t)
	assert.False(t, called)
	assert.Zero(t, h.store.rasterWrites)

	id2, _ := h.add(t, artOn("", 2, 2))
	require.NoError(t, h.c.FillWithPattern(id2, "slower.png", fill.Request{}, func(fill.Result, error) { called = true }))
	h.c.Close()
	h.loader.complete("slower.png", engrave.NewPixmap(1, 1), nil)
	assert.ErrorIs(t, h.c.Tick(), ErrClosed)
	assert.False(t, called)
	assert.ErrorIs(t, h.c.Attach(artOn("", 1, 1), &fakeNode{}), ErrClosed)
}

func TestCloseStopsHostWaits(t *testing.T) {
	h := newHarness(t)
	h.add(t, textOn("never"))
	h.tick(t)

	done := make(chan struct{})
	go func() {
		h.c.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked on a host wait")
	}
}

func TestTextLayoutAndFontFallback(t *testing.T) {
	h := newHarness(t)
	d := textOn("")
	d.Text.FontID = "missing-serif"
	d.Text.Text = "AB"
	id, _ := h.add(t, d)

	require.Len(t, h.notices, 1)
	assert.Equal(t, NoticeFontFallback, h.notices[0].Kind)
	assert.ErrorIs(t, h.notices[0].Err, glyphs.ErrUnknownFont)

	run, outline, err := h.c.GlyphRun(id)
	require.NoError(t, err)
	assert.Equal(t, glyphs.FallbackID, outline.FontID)
	require.Len(t, run.Placements, 2)
	assert.Less(t, run.Placements[0].X, 0.0)
	assert.Greater(t, run.Placements[1].X, 0.0)

	require.NoError(t, h.store.UpdateText(id, func(tp *engrave.TextPayload) {
		tp.Text = "ABC"
		tp.Curvature = 20
	}))
	h.tick(t)
	run, _, err = h.c.GlyphRun(id)
	require.NoError(t, err)
	assert.Len(t, run.Placements, 3)
	assert.True(t, run.Curved())

	aid, _ := h.add(t, artOn("", 1, 1))
	_, _, err = h.c.GlyphRun(aid)
	assert.ErrorIs(t, err, ErrNoText)
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(nil, design.NewStore())
	assert.Error(t, err)

	bad := engrave.DefaultConfig()
	bad.Layout.MaxCurvature = 0
	_, err = New(NewHosts(), design.NewStore(), WithConfig(bad))
	assert.ErrorIs(t, err, engrave.ErrInvalidConfig)
}

func TestAttachDuplicate(t *testing.T) {
	h := newHarness(t)
	id, _ := h.add(t, artOn("", 1, 1))
	d, _ := h.store.Get(id)
	assert.ErrorIs(t, h.c.Attach(d, &fakeNode{}), ErrAlreadyTracked)
	assert.Error(t, h.c.Attach(engrave.Decoration{}, &fakeNode{}))
}

func TestLatch(t *testing.T) {
	l := NewLatch()
	select {
	case <-l.Done():
		t.Fatal("latch open before Open")
	default:
	}
	l.Open()
	l.Open()
	<-l.Done()
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "attached-dragging", AttachedDragging.String())
	assert.Equal(t, "font-fallback", NoticeFontFallback.String())
}
