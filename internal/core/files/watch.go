package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"lcars-core/internal/domain"
	"lcars-core/internal/logger"

	"github.com/fsnotify/fsnotify"
)

// Watcher publishes directory-changed events for the directories the
// explorer has open. Watches are reference counted since several views may
// show the same directory. The fsnotify watcher starts on first use.
type Watcher struct {
	pub domain.Publisher
	log logger.Logger

	mu   sync.Mutex
	fw   *fsnotify.Watcher
	refs map[string]int
}

func NewWatcher(pub domain.Publisher, log logger.Logger) *Watcher {
	if pub == nil {
		pub = domain.NopPublisher{}
	}
	return &Watcher{pub: pub, log: log, refs: make(map[string]int)}
}

func (w *Watcher) Add(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %w", dir, ErrNotDirectory)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.refs[dir] > 0 {
		w.refs[dir]++
		return nil
	}

	if w.fw == nil {
		fw, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("start watcher: %w", err)
		}
		w.fw = fw
		go w.loop(fw)
	}

	if err := w.fw.Add(dir); err != nil {
		return err
	}
	w.refs[dir] = 1
	w.log.Debug("files: watching directory", "path", dir)
	return nil
}

// Remove drops one reference. Removing an unwatched directory is a no-op.
func (w *Watcher) Remove(dir string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	n := w.refs[dir]
	if n == 0 {
		return nil
	}
	if n > 1 {
		w.refs[dir] = n - 1
		return nil
	}

	delete(w.refs, dir)
	if w.fw == nil {
		return nil
	}
	if err := w.fw.Remove(dir); err != nil {
		w.log.Debug("files: remove watch failed", "path", dir, "error", err)
	}
	return nil
}

// forget drops every reference to dir, used before the directory is deleted.
func (w *Watcher) forget(dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.refs[dir]; !ok {
		return
	}
	delete(w.refs, dir)
	if w.fw != nil {
		_ = w.fw.Remove(dir)
	}
}

func (w *Watcher) Watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]string, 0, len(w.refs))
	for dir := range w.refs {
		out = append(out, dir)
	}
	return out
}

func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.refs = make(map[string]int)
	if w.fw == nil {
		return nil
	}
	err := w.fw.Close()
	w.fw = nil
	return err
}

func (w *Watcher) loop(fw *fsnotify.Watcher) {
	for {
		select {
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			op := opName(ev.Op)
			if op == "" {
				continue
			}
			w.pub.Publish(domain.EventDirectoryChanged, domain.DirectoryEvent{
				Path: filepath.Dir(ev.Name),
				Name: filepath.Base(ev.Name),
				Op:   op,
			})
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			w.log.Warn("files: watcher error", "error", err)
		}
	}
}

func opName(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Remove):
		return "remove"
	case op.Has(fsnotify.Rename):
		return "rename"
	case op.Has(fsnotify.Write):
		return "write"
	}
	return ""
}
