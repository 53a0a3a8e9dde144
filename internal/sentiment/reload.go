package sentiment

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/trendlens/internal/watcher"
)

// WatchLexicon loads path into l and reloads it whenever the file changes.
// The returned watcher is stopped when ctx is cancelled.
func WatchLexicon(ctx context.Context, l *Lexicon, path string, logger *zap.Logger, opts ...watcher.WatcherOption) (*watcher.Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := l.Reload(path); err != nil {
		return nil, err
	}
	opts = append([]watcher.WatcherOption{watcher.WithLogger(logger)}, opts...)
	w := watcher.NewWatcher([]string{path}, func(p string) {
		if err := l.Reload(p); err != nil {
			logger.Warn("sentiment lexicon reload failed, keeping previous", zap.String("path", p), zap.Error(err))
		}
	}, opts...)
	if err := w.Start(ctx); err != nil {
		return nil, fmt.Errorf("watch lexicon: %w", err)
	}
	return w, nil
}
