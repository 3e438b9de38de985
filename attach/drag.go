package attach

import (
	"github.com/gogpu/engrave/coord"
)

// Select notifies the controller that id became the selected decoration.
// A drag on any other decoration is cancelled.
func (c *Controller) Select(id string) {
	if c.dragging != "" && c.dragging != id {
		c.CancelDrag(c.dragging)
	}
}

// BeginDrag starts moving an attached decoration. Host changes are not
// applied to it until the drag ends.
func (c *Controller) BeginDrag(id string) error {
	it, err := c.lookup(id)
	if err != nil {
		return err
	}
	if it.state == Detached {
		return ErrNotAttached
	}
	if it.state == AttachedDragging {
		return nil
	}
	c.Select(id)
	it.state = AttachedDragging
	c.dragging = id
	c.log.Debug("attach: drag started", "id", id)
	return nil
}

// DragTo moves the dragged decoration's node to world.
func (c *Controller) DragTo(id string, world coord.WorldPose) error {
	it, err := c.lookup(id)
	if err != nil {
		return err
	}
	if it.state != AttachedDragging {
		return ErrNotDragging
	}
	it.node.SetWorldPose(world)
	return nil
}

// EndDrag converts the node's world pose back into the host frame and
// queues it for write-back. If the conversion fails the node returns to
// its previous pose and the error is returned.
func (c *Controller) EndDrag(id string) error {
	it, err := c.lookup(id)
	if err != nil {
		return err
	}
	if it.state != AttachedDragging {
		return ErrNotDragging
	}
	it.state = AttachedIdle
	c.dragging = ""

	host, err := c.hostTransform(it)
	if err != nil {
		c.restore(it)
		return err
	}
	world := it.node.WorldPose()
	local, err := coord.ToLocal(world, host)
	if err == nil {
		_, err = c.project(local, host)
	}
	if err != nil {
		c.reject(it, err)
		c.restore(it)
		return err
	}

	it.host = host
	it.world, it.applied = world, true
	if moved(it.local, local, c.cfg.Attach.Epsilon) {
		c.setLocal(it, local)
		// The node already shows the dropped pose.
		it.dirty = false
	}
	it.initialized = true
	c.log.Debug("attach: drag ended", "id", id, "x", local.Position.X, "y", local.Position.Y, "z", local.Position.Z)
	return nil
}

// CancelDrag abandons a drag without writing anything and puts the node
// back at the stored pose.
func (c *Controller) CancelDrag(id string) {
	it, ok := c.items[id]
	if !ok || it.state != AttachedDragging {
		return
	}
	it.state = AttachedIdle
	if c.dragging == id {
		c.dragging = ""
	}
	c.restore(it)
	c.log.Debug("attach: drag cancelled", "id", id)
}

// restore puts the node back at the last applied pose and schedules a
// recomputation in case the host moved meanwhile.
func (c *Controller) restore(it *item) {
	if it.applied {
		it.node.SetWorldPose(it.world)
	}
	it.dirty = true
}

func moved(a, b coord.Pose, eps float64) bool {
	return !a.Position.ApproxEqual(b.Position, eps) || !a.Rotation.ApproxEqual(b.Rotation, eps)
}
