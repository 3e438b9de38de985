// Package cache provides a small generic LRU cache.
//
// Caches are owned by the component that creates them; nothing in this
// module keeps a process-wide cache.
//
//	c := cache.New[string, *engrave.Pixmap](32)
//	c.Set("art/rose.png", pm)
//	pm, ok := c.Get("art/rose.png")
package cache
