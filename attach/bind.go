package attach

import (
	"github.com/gogpu/engrave/coord"
	"github.com/gogpu/engrave/design"
)

// Bind routes store events into c and turns on echo suppression. The
// returned function unsubscribes. Call it on the frame goroutine before
// the first Tick.
func Bind(c *Controller, s *design.Store) (cancel func()) {
	c.echo = true
	return s.Subscribe(func(ev design.Event) {
		d := ev.Decoration
		switch ev.Kind {
		case design.EventPoseUpdated:
			c.PoseUpdated(ev.ID, d.Position, d.Rotation)
		case design.EventHostChanged:
			c.HostReassigned(ev.ID, d.HostID, coord.Pose{Position: d.Position, Rotation: d.Rotation})
		case design.EventTextUpdated:
			if d.Text != nil {
				c.TextChanged(ev.ID, *d.Text)
			}
		case design.EventRemoved:
			c.Removed(ev.ID)
		}
	})
}
