package organize

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"superterm/internal/logging"
)

// Watch keeps the root organized until ctx is cancelled. Filesystem
// events are debounced so a burst of writes triggers one run after the
// directory settles.
func (o *Organizer) Watch(ctx context.Context, debounce time.Duration) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("organize: watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(o.root); err != nil {
		return fmt.Errorf("organize: watch %s: %w", o.root, err)
	}
	logging.Organize("watching %s (debounce %s)", o.root, debounce)

	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if pending {
				if !timer.Stop() {
					<-timer.C
				}
			}
			timer.Reset(debounce)
			pending = true
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logging.OrganizeWarn("watch error: %v", err)
		case <-timer.C:
			pending = false
			if _, err := o.Run(ctx); err != nil && ctx.Err() == nil {
				logging.OrganizeWarn("watch run: %v", err)
			}
		}
	}
}
