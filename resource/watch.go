package resource

import (
	"context"
	"errors"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/engrave"
)

// Watch invalidates cached images when their files change, until ctx is
// done or the loader is closed. Files loaded before Watch starts are not
// watched.
func (l *Loader) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		w.Close()
		return ErrLoaderClosed
	}
	if l.watcher != nil {
		l.mu.Unlock()
		w.Close()
		return errors.New("resource: already watching")
	}
	l.watcher = w
	l.mu.Unlock()

	defer l.stopWatch(w)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Create) {
				continue
			}
			if l.Invalidate(ev.Name) {
				engrave.Logger().Debug("resource: invalidated", "path", ev.Name, "op", ev.Op.String())
				if l.onChange != nil {
					l.onChange(ev.Name)
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			engrave.Logger().Warn("resource: watch error", "error", err)
		}
	}
}

// watch adds path to the active watcher, if any.
func (l *Loader) watch(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.watcher == nil {
		return
	}
	if err := l.watcher.Add(path); err != nil {
		engrave.Logger().Warn("resource: watch failed", "path", path, "error", err)
	}
}

func (l *Loader) stopWatch(w *fsnotify.Watcher) {
	l.mu.Lock()
	if l.watcher == w {
		l.watcher = nil
	}
	l.mu.Unlock()
	w.Close()
}

// Close stops watching and empties the cache.
func (l *Loader) Close() error {
	l.mu.Lock()
	l.closed = true
	w := l.watcher
	l.watcher = nil
	l.mu.Unlock()

	l.cache.Clear()
	if w != nil {
		return w.Close()
	}
	return nil
}
