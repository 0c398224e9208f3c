package site

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nilszeilon/mdxposts/internal/fileutil"
)

const rebuildDelay = 300 * time.Millisecond

// Watch rebuilds the whole site after posts or assets under the posts
// directory change. Bursts of events within rebuildDelay trigger a single
// rebuild. It returns when ctx is done.
func (b *Builder) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := addDirs(watcher, b.opts.PostsDir); err != nil {
		return fmt.Errorf("add watch paths: %w", err)
	}
	b.log.Info("Watching for changes", "dir", b.opts.PostsDir)

	timer := time.NewTimer(rebuildDelay)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// New directories may already hold posts (e.g. a moved-in tree).
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addDirs(watcher, event.Name); err != nil {
						b.log.Warn("Failed to watch new directory", "dir", event.Name, "error", err)
					}
					timer.Reset(rebuildDelay)
					continue
				}
			}
			if !fileutil.IsMDX(event.Name) && !fileutil.IsImage(event.Name) {
				continue
			}
			b.log.Debug("Change detected", "path", event.Name, "op", event.Op.String())
			timer.Reset(rebuildDelay)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			b.log.Warn("Watcher error", "error", err)

		case <-timer.C:
			if _, err := b.Build(); err != nil {
				b.log.Error("Rebuild failed", "error", err)
			}
		}
	}
}

func addDirs(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
