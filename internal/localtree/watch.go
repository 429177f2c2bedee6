package localtree

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// FsWatcher abstracts filesystem event monitoring. Satisfied by
// *fsnotify.Watcher; tests inject a fake.
type FsWatcher interface {
	Add(name string) error
	Close() error
	Events() <-chan fsnotify.Event
	Errors() <-chan error
}

type fsnotifyWrapper struct{ w *fsnotify.Watcher }

func (fw *fsnotifyWrapper) Add(name string) error         { return fw.w.Add(name) }
func (fw *fsnotifyWrapper) Close() error                  { return fw.w.Close() }
func (fw *fsnotifyWrapper) Events() <-chan fsnotify.Event { return fw.w.Events }
func (fw *fsnotifyWrapper) Errors() <-chan error          { return fw.w.Errors }

func newFsWatcher() (FsWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &fsnotifyWrapper{w: w}, nil
}

// Watch blocks, calling onChange whenever the bookmark file is created,
// written, or renamed into place, until ctx is canceled or the watcher's
// event or error channel closes; a watcher error is logged and watching
// continues. The directory containing the file is watched rather than the file
// itself: writeLocked replaces the file by rename, an event an inode-level
// watch on the old file would never see once the rename lands.
//
// onChange is called synchronously from the watch loop; a slow callback
// delays processing of the next event, so callers that need to do real work
// should hand off to their own goroutine or channel.
func (p *Provider) Watch(ctx context.Context, onChange func()) error {
	watcher, err := p.watcherFactory()
	if err != nil {
		return fmt.Errorf("localtree: creating filesystem watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(p.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("localtree: watching %s: %w", dir, err)
	}

	name := filepath.Base(p.path)

	if p.logger != nil {
		p.logger.Info("localtree: watch started", slog.String("dir", dir), slog.String("file", name))
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events():
			if !ok {
				return nil
			}

			if filepath.Base(ev.Name) != name {
				continue
			}

			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			onChange()

		case err, ok := <-watcher.Errors():
			if !ok {
				return nil
			}

			if p.logger != nil {
				p.logger.Warn("localtree: watch error", slog.String("error", err.Error()))
			}
		}
	}
}
