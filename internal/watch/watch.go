// Package watch forwards external edits of a markdown file.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/alnah/go-md2docx/internal/logging"
)

// ErrWatch indicates the watcher could not be started.
var ErrWatch = errors.New("watching file failed")

// Option configures File.
type Option func(*watcher)

// WithLogger sets the logger for watch events.
func WithLogger(l logging.Logger) Option {
	return func(w *watcher) { w.logger = logging.OrNoOp(l) }
}

type watcher struct {
	path     string
	onChange func(string)
	logger   logging.Logger
	last     string
}

// File watches path until ctx is done and calls onChange with the new
// contents after each write. The parent directory is watched so editors
// that save by renaming a temporary file over path are followed.
// Contents identical to the previous delivery are not forwarded.
func File(ctx context.Context, path string, onChange func(string), opts ...Option) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWatch, err)
	}

	w := &watcher{path: filepath.Clean(abs), onChange: onChange, logger: logging.NoOp()}
	for _, opt := range opts {
		opt(w)
	}
	if data, err := os.ReadFile(w.path); err == nil { // #nosec G304 -- user-selected input file
		w.last = string(data)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWatch, err)
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("%w: %v", ErrWatch, err)
	}
	w.logger.Debug("watching file", "path", w.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "path", w.path, "error", err)
		}
	}
}

func (w *watcher) handle(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	data, err := os.ReadFile(w.path) // #nosec G304 -- user-selected input file
	if err != nil {
		// Between remove and rename the file may briefly not exist.
		w.logger.Debug("re-reading watched file failed", "path", w.path, "error", err)
		return
	}
	contents := string(data)
	if contents == w.last {
		return
	}
	w.last = contents
	w.logger.Info("file changed", "path", w.path, "bytes", len(data))
	w.onChange(contents)
}
