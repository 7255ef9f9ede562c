package main

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"golang.org/x/exp/slog"
)

// watchScript calls run once, then again every time the file at path is written or replaced,
// until ctx is done. The parent directory is watched so that editors which save by renaming a
// temporary file over the script are picked up.
func watchScript(ctx context.Context, logger *slog.Logger, path string, run func()) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(err, "failed to resolve script path")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	defer watcher.Close()

	err = watcher.Add(filepath.Dir(target))
	if err != nil {
		return errors.Wrapf(err, "failed to watch %s", filepath.Dir(target))
	}

	run()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			logger.Debug("watchScript rerun", slog.String("Path", ev.Name), slog.String("Op", ev.Op.String()))
			run()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			logger.Warn("watchScript watcher error", slog.String("Error", err.Error()))
		}
	}
}
