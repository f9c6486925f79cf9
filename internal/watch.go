package internal

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	tt "github.com/gnolang/astrule/internal/types"
)

// settleDelay groups the burst of events an editor emits for one save.
const settleDelay = 100 * time.Millisecond

// ReportFunc receives the issues of a re-matched file.
type ReportFunc func(filename string, issues []tt.Issue)

// Watch re-runs the engine on Go files written under dirs until ctx is
// done. accept filters file paths; nil accepts every .go file.
func (e *Engine) Watch(ctx context.Context, dirs []string, accept func(string) bool, report ReportFunc) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating watcher")
	}
	defer watcher.Close()

	for _, dir := range dirs {
		err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		})
		if err != nil {
			return errors.Wrap(err, "error adding directory to watcher")
		}
	}
	e.logger.Info("watching for changes", zap.Strings("dirs", dirs))

	return e.watchLoop(ctx, watcher, accept, report)
}

func (e *Engine) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, accept func(string) bool, report ReportFunc) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			e.handleFileEvent(ctx, event, accept, report)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			e.logger.Error("watch error", zap.Error(err))
		}
	}
}

func (e *Engine) handleFileEvent(ctx context.Context, event fsnotify.Event, accept func(string) bool, report ReportFunc) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	if !strings.HasSuffix(event.Name, ".go") {
		return
	}
	if accept != nil && !accept(event.Name) {
		return
	}

	time.Sleep(settleDelay)
	issues, err := e.Run(ctx, event.Name)
	if err != nil {
		e.logger.Error("error matching file", zap.String("file", event.Name), zap.Error(err))
		return
	}
	e.logger.Debug("file re-matched", zap.String("file", event.Name), zap.Int("issues", len(issues)))
	report(event.Name, issues)
}
