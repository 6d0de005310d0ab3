package config

import (
	"context"
	"path/filepath"
	"reflect"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"go.viam.com/haptics/logging"
	"go.viam.com/haptics/utils"
)

// A Watcher re-reads a config file whenever it changes on disk and reports every new valid
// config. Invalid intermediate states of the file are logged and skipped.
type Watcher struct {
	path    string
	watcher *fsnotify.Watcher
	workers *utils.StoppableWorkers
	logger  logging.Logger
}

// NewWatcher starts watching filePath. onChange is called from the watcher goroutine with each
// config that differs from current.
func NewWatcher(
	ctx context.Context,
	filePath string,
	current *Config,
	logger logging.Logger,
	onChange func(ctx context.Context, cfg *Config),
) (*Watcher, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, err
	}
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "creating config watcher")
	}
	guard := utils.NewGuard(func() {
		//nolint:errcheck,gosec
		fsWatcher.Close()
	})
	defer guard.OnFail()

	// editors often replace the file instead of writing to it, so watch the directory
	if err := fsWatcher.Add(filepath.Dir(absPath)); err != nil {
		return nil, errors.Wrapf(err, "watching %s", filepath.Dir(absPath))
	}
	w := &Watcher{path: absPath, watcher: fsWatcher, logger: logger}
	last := current
	w.workers = utils.NewStoppableWorkersWithContext(ctx, func(ctx context.Context) {
		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-fsWatcher.Errors:
				if !ok {
					return
				}
				logger.Warnw("config watcher error", "error", err)
			case event, ok := <-fsWatcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != absPath || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := Read(ctx, absPath, logger)
				if err != nil {
					logger.Warnw("ignoring invalid config change", "path", absPath, "error", err)
					continue
				}
				cfg.ConfigFilePath = filePath
				if last != nil && reflect.DeepEqual(last, cfg) {
					continue
				}
				logger.Infow("config changed", "path", absPath)
				last = cfg
				onChange(ctx, cfg)
			}
		}
	})
	guard.Success()
	return w, nil
}

// Close stops watching and waits for any running onChange to return.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	w.workers.Stop()
	return err
}
