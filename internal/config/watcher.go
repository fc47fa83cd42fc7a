package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// reloadDebounce absorbs the burst of write events an editor's atomic save
// (write-to-temp, rename-over) produces, so one edit triggers one reload.
const reloadDebounce = 500 * time.Millisecond

// Watch starts a background fsnotify watch over configPath and mappingPath
// (whichever are non-empty) and reloads Load(configPath, envPath) into
// store on change, then passes the freshly loaded Config to onReload. Grounded on win30221-genesis's pkg/config/watcher.go debounced-
// channel pattern, adapted here to actually re-run Load and swap the Store
// rather than just notifying a channel, since Store needs the freshly
// parsed Config, not merely an event.
//
// fsnotify watches directories, not files directly (a rename-based atomic
// save replaces the inode fsnotify was watching), so Watch adds the parent
// directory of each path and filters events by filename.
func Watch(ctx context.Context, store *Store, configPath, mappingPath, envPath string, onReload func(*Config)) {
	watched := map[string]bool{}
	dirs := map[string]bool{}
	for _, p := range []string{configPath, mappingPath} {
		if p == "" {
			continue
		}
		watched[filepath.Base(p)] = true
		dirs[filepath.Dir(p)] = true
	}
	if len(dirs) == 0 {
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logrus.WithError(err).Warn("config: fsnotify unavailable, hot-reload disabled")
		return
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			logrus.WithError(err).WithField("dir", dir).Warn("config: failed to watch directory")
		}
	}

	go runWatchLoop(ctx, watcher, watched, func() {
		cfg, err := Load(configPath, envPath)
		if err != nil {
			logrus.WithError(err).Warn("config: reload failed, keeping previous snapshot")
			return
		}
		store.Replace(cfg)
		if onReload != nil {
			onReload(cfg)
		}
		logrus.Info("config: reloaded")
	})
}

func runWatchLoop(ctx context.Context, watcher *fsnotify.Watcher, watched map[string]bool, reload func()) {
	defer watcher.Close()
	var timer *time.Timer

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !watched[filepath.Base(event.Name)] {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDebounce, reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logrus.WithError(err).Warn("config: watcher error")
		}
	}
}
