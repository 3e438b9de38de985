package attach

import (
	"fmt"

	"github.com/gogpu/engrave"
	"github.com/gogpu/engrave/fill"
)

// Fill runs a fill on an art decoration's raster. The store receives the
// new image during the next Tick.
func (c *Controller) Fill(id string, req fill.Request) (fill.Result, error) {
	it, err := c.lookup(id)
	if err != nil {
		return fill.Result{}, err
	}
	if it.raster == nil {
		return fill.Result{}, fmt.Errorf("%w: %s", ErrNoRaster, id)
	}
	res, err := c.fill.Apply(it.raster, req)
	if err != nil {
		return res, err
	}
	if res.NeedsRedisplay() {
		it.rasterDirty = true
	}
	return res, nil
}

// FillWithPattern loads the image at path in the background and fills
// with it as a tiled pattern. If loading fails the fallback color is used
// and a notice is raised. done, if not nil, is called on the frame
// goroutine with the fill result. Nothing happens if the decoration is
// removed before the image arrives.
func (c *Controller) FillWithPattern(id, path string, req fill.Request, done func(fill.Result, error)) error {
	it, err := c.lookup(id)
	if err != nil {
		return err
	}
	if it.raster == nil {
		return fmt.Errorf("%w: %s", ErrNoRaster, id)
	}
	c.loader.LoadAsync(c.ctx, path, func(pm *engrave.Pixmap, err error) {
		c.mbox.post(func() {
			if cur, ok := c.items[id]; !ok || cur != it {
				return
			}
			if err != nil {
				c.log.Warn("attach: pattern unavailable, using fallback color", "id", id, "path", path, "error", err)
				c.notify(Notice{Kind: NoticePatternFallback, DecorationID: id, Err: err})
				req.Pattern = fill.NewSolid(c.fallbackColor)
			} else {
				req.Pattern = fill.NewTiled(pm)
			}
			res, ferr := c.Fill(id, req)
			if done != nil {
				done(res, ferr)
			}
		})
	})
	return nil
}

// Raster returns a copy of the working image of an art decoration.
func (c *Controller) Raster(id string) (*engrave.Pixmap, bool) {
	it, ok := c.items[id]
	if !ok || it.raster == nil {
		return nil, false
	}
	return it.raster.Current().Clone(), true
}
