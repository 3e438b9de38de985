package attach

import (
	"github.com/gogpu/engrave"
	"github.com/gogpu/engrave/coord"
)

// PoseUpdated tells the controller the store now holds pos and rot for
// id. The echo of the controller's own write is swallowed; any other
// change is adopted and re-projected without writing back. Safe to call
// from any goroutine.
func (c *Controller) PoseUpdated(id string, pos, rot engrave.Vec3) {
	c.mbox.post(func() {
		it, ok := c.items[id]
		if !ok {
			return
		}
		got := coord.Pose{Position: pos, Rotation: rot}
		eps := c.cfg.Attach.Epsilon
		if it.expected != nil {
			exp := *it.expected
			it.expected = nil
			if !moved(exp, got, eps) {
				return
			}
		}
		if !moved(it.local, got, eps) {
			return
		}
		if err := checkFinite(got); err != nil {
			c.reject(it, err)
			return
		}
		if it.state == AttachedDragging {
			c.CancelDrag(id)
		}
		it.local = got
		it.pending = nil
		it.initialized = true
		it.dirty = true
		c.log.Debug("attach: adopted external pose", "id", id)
	})
}

// HostReassigned tells the controller the store moved id to hostID with
// the given pose. Safe to call from any goroutine.
func (c *Controller) HostReassigned(id, hostID string, local coord.Pose) {
	c.mbox.post(func() {
		it, ok := c.items[id]
		if !ok || (it.hostID == hostID && !moved(it.local, local, c.cfg.Attach.Epsilon)) {
			return
		}
		if err := c.SetHost(id, hostID, local); err != nil {
			c.log.Warn("attach: host reassignment failed", "id", id, "host", hostID, "error", err)
		}
	})
}

// TextChanged tells the controller a text decoration's properties
// changed. Safe to call from any goroutine.
func (c *Controller) TextChanged(id string, t engrave.TextPayload) {
	c.mbox.post(func() {
		it, ok := c.items[id]
		if !ok || it.text == nil {
			return
		}
		if err := c.SetText(id, t); err != nil {
			c.log.Warn("attach: text update failed", "id", id, "error", err)
		}
	})
}

// Removed tells the controller id was deleted from the store. Safe to
// call from any goroutine.
func (c *Controller) Removed(id string) {
	c.mbox.post(func() {
		c.Remove(id)
	})
}
