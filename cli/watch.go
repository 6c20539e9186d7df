package cli

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/meshscan/logging"
)

// defaultRerunDelay is how long the inputs must stay quiet before a rerun starts.
const defaultRerunDelay = 300 * time.Millisecond

// watchAndRerun calls run once paths have stopped changing for delay, until ctx is done. The
// parent directories are watched so that editors which save by rename are noticed. Runs never
// overlap.
func watchAndRerun(
	ctx context.Context,
	paths []string,
	delay time.Duration,
	logger logging.Logger,
	run func() error,
) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating file watcher")
	}
	defer utils.UncheckedErrorFunc(watcher.Close)

	watched := map[string]bool{}
	dirs := map[string]bool{}
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		watched[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return errors.Wrapf(err, "watching %q", dir)
		}
		dirs[dir] = true
	}
	logger.Infow("watching inputs for changes", "paths", paths)

	var runMu sync.Mutex
	stopped := false
	debounced := debounce.New(delay)
	rerun := func() {
		runMu.Lock()
		defer runMu.Unlock()
		if stopped || ctx.Err() != nil {
			return
		}
		if err := run(); err != nil {
			logger.Errorw("rerun failed", "error", err)
		}
	}
	// waits out a rerun that is still in flight
	defer func() {
		runMu.Lock()
		stopped = true
		runMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			name, err := filepath.Abs(ev.Name)
			if err != nil || !watched[name] {
				continue
			}
			logger.Infow("input changed, rerunning", "path", name)
			debounced(rerun)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnw("file watcher error", "error", err)
		}
	}
}
