package native

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/gobeaver/vfskit"
)

// rootWatcher observes attached root directories with fsnotify and feeds
// translated change events into the driver's batcher. Watching is
// non-recursive: only the root directory itself is registered, so events
// from deeper levels surface only for mutations made through the driver.
// External changes inside subdirectories are a documented blind spot.
type rootWatcher struct {
	driver  *Driver
	watcher *fsnotify.Watcher

	mu    sync.RWMutex
	roots map[string]*vfskit.RootEntry // host dir -> registry entry
	done  chan struct{}
}

func newRootWatcher(d *Driver) (*rootWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	rw := &rootWatcher{
		driver:  d,
		watcher: w,
		roots:   make(map[string]*vfskit.RootEntry),
		done:    make(chan struct{}),
	}
	go rw.run()
	return rw, nil
}

func (w *rootWatcher) addRoot(entry *vfskit.RootEntry) error {
	if err := w.watcher.Add(entry.HandleRef); err != nil {
		return err
	}
	w.mu.Lock()
	w.roots[entry.HandleRef] = entry
	w.mu.Unlock()
	return nil
}

func (w *rootWatcher) close() {
	close(w.done)
	w.watcher.Close()
}

func (w *rootWatcher) run() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev, match := w.translate(event); match {
				w.driver.emit(ev)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.driver.log.Warn().Err(err).Msg("watch error")
		}
	}
}

// translate maps a host filesystem event back onto the virtual path of the
// root that contains it.
func (w *rootWatcher) translate(event fsnotify.Event) (vfskit.ChangeEvent, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	hostPath := filepath.Clean(event.Name)
	for hostRoot, entry := range w.roots {
		if hostPath != hostRoot && !strings.HasPrefix(hostPath, hostRoot+string(filepath.Separator)) {
			continue
		}
		rel, err := filepath.Rel(hostRoot, hostPath)
		if err != nil {
			return vfskit.ChangeEvent{}, false
		}
		virtual := vfskit.NormalizePath(entry.RootPath())
		if rel != "." {
			virtual = vfskit.JoinPath(virtual, filepath.ToSlash(rel))
		}

		switch {
		case event.Op.Has(fsnotify.Create):
			return vfskit.ChangeEvent{Kind: vfskit.Created, Path: virtual}, true
		case event.Op.Has(fsnotify.Write):
			return vfskit.ChangeEvent{Kind: vfskit.Changed, Path: virtual}, true
		case event.Op.Has(fsnotify.Remove), event.Op.Has(fsnotify.Rename):
			return vfskit.ChangeEvent{Kind: vfskit.Deleted, Path: virtual}, true
		}
		return vfskit.ChangeEvent{}, false
	}
	return vfskit.ChangeEvent{}, false
}
