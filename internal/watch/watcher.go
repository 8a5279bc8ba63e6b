// Package watch observes the active live configuration file and keeps
// the snapshot history in sync with edits made outside the engine.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"mcpswitch-go/internal/engine"
	"mcpswitch-go/internal/model"
)

// DefaultDebounce is how long the watcher waits after the last write
// event before re-reading the file. Editors and clients often write in
// bursts (truncate, write, rename).
const DefaultDebounce = 500 * time.Millisecond

// Watcher follows one profile's live configuration file and appends a
// snapshot whenever the file settles on new, valid content. It never
// writes the live file.
type Watcher struct {
	engine   *engine.SyncEngine
	logger   engine.Logger
	debounce time.Duration
}

// New creates a Watcher. debounce <= 0 selects DefaultDebounce.
func New(eng *engine.SyncEngine, logger engine.Logger, debounce time.Duration) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{engine: eng, logger: logger, debounce: debounce}
}

// Run watches the given profile's config path until ctx is cancelled.
// The parent directory is watched rather than the file itself so
// atomic-rename writers (including this tool) are observed.
func (w *Watcher) Run(ctx context.Context, profile *model.Profile) error {
	if profile == nil {
		return fmt.Errorf("no profile to watch")
	}
	target := filepath.Clean(profile.ConfigPath)

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(target), err)
	}

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	w.logger.Info("watching live file", "profile", profile.Name, "path", target)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if relevant(ev, target) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", "error", err)

		case <-timer.C:
			w.syncOnce(profile)
		}
	}
}

// syncOnce reads the settled file and versions it. Validation failures
// are logged and skipped; the next settle retries.
func (w *Watcher) syncOnce(profile *model.Profile) {
	changed, err := w.engine.SyncConfigFromDisk(profile.ID)
	if err != nil {
		var verr *engine.ValidationError
		if errors.As(err, &verr) {
			w.logger.Warn("live file invalid, not versioned", "path", profile.ConfigPath, "error", err)
			return
		}
		w.logger.Error("versioning live file failed", "path", profile.ConfigPath, "error", err)
		return
	}
	if changed {
		w.logger.Info("live file change versioned", "profile", profile.Name)
	}
}

// relevant reports whether an event concerns the watched file and could
// have changed its content.
func relevant(ev fsnotify.Event, target string) bool {
	if filepath.Clean(ev.Name) != target {
		return false
	}
	return ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}
