package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"
)

const debounceDelay = 100 * time.Millisecond

// Watch reloads the config at path whenever it is written or recreated and
// passes every copy that loads and validates to onChange. Invalid edits are
// logged and ignored. Watching stops when ctx ends.
func Watch(ctx context.Context, path string, logger hclog.Logger, onChange func(*Config)) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	// the directory survives editors that replace the file
	dir, file := filepath.Split(abs)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	reload := func() {
		cfg, err := Load(abs)
		if err == nil {
			err = cfg.ApplyEnv()
		}
		if err == nil {
			err = cfg.Validate()
		}
		if err != nil {
			logger.Warn("ignoring config change", "path", abs, "error", err)
			return
		}
		logger.Info("config reloaded", "path", abs)
		onChange(cfg)
	}

	go func() {
		defer watcher.Close()

		var debounce *time.Timer
		for {
			select {
			case <-ctx.Done():
				if debounce != nil {
					debounce.Stop()
				}
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != file {
					continue
				}
				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					if debounce != nil {
						debounce.Stop()
					}
					debounce = time.AfterFunc(debounceDelay, reload)
				} else if event.Has(fsnotify.Remove) {
					logger.Warn("config file was removed", "path", abs)
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Error("file watcher error", "error", err)
			}
		}
	}()

	logger.Info("watching config file", "path", abs)
	return nil
}
