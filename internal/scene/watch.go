package scene

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"GopherShade/internal/logger"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounceDelay batches the burst of events an editor produces for one save.
const debounceDelay = 100 * time.Millisecond

// Watch calls onChange after path is written or recreated. It watches the
// parent directory so that editors which replace the file are seen too. Watch
// blocks until ctx is done.
func Watch(ctx context.Context, path string, onChange func()) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	logger.Log.Info("Watching scene file", zap.String("path", target))

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			logger.Log.Debug("Scene file event", zap.String("op", event.Op.String()))
			debounce = time.After(debounceDelay)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Log.Warn("Scene watcher error", zap.Error(err))

		case <-debounce:
			debounce = nil
			onChange()
		}
	}
}
