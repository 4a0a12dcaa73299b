// Package watch regenerates packages when their sources change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/sghaida/constdefault/internal/fsutil"
	"github.com/sghaida/constdefault/internal/generate"
)

// DefaultDebounce is how long the watcher waits for more events before
// regenerating.
const DefaultDebounce = 200 * time.Millisecond

// RunFunc regenerates one package directory.
type RunFunc func(ctx context.Context, dir string) generate.Result

// Watcher regenerates package directories on source changes. A package is
// only regenerated when the content of its sources changed.
type Watcher struct {
	dirs     []string
	run      RunFunc
	output   string
	debounce time.Duration
	logger   *zap.Logger
	onResult func(generate.Result)

	// hashes is owned by the Run goroutine.
	hashes map[string]string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithDebounce sets the quiet period before regenerating.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithOutput names the generated file, whose changes are ignored.
func WithOutput(name string) Option {
	return func(w *Watcher) { w.output = name }
}

// OnResult is called after every regeneration.
func OnResult(fn func(generate.Result)) Option {
	return func(w *Watcher) { w.onResult = fn }
}

// New returns a Watcher over dirs.
func New(dirs []string, run RunFunc, opts ...Option) *Watcher {
	w := &Watcher{
		dirs:     dirs,
		run:      run,
		debounce: DefaultDebounce,
		logger:   zap.NewNop(),
		hashes:   map[string]string{},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run generates every directory once, then watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	if len(w.dirs) == 0 {
		return errors.New("watch: no directories")
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fw.Close()

	byDir := make(map[string]string, len(w.dirs))
	for _, dir := range w.dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("watch: %w", err)
		}
		if !fsutil.DirExists(abs) {
			return fmt.Errorf("watch: %s is not a directory", dir)
		}
		if err := fw.Add(abs); err != nil {
			return fmt.Errorf("watch: %s: %w", dir, err)
		}
		byDir[abs] = dir
	}

	for _, dir := range w.dirs {
		w.regenerate(ctx, dir)
	}

	pending := map[string]bool{}
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			dir, ok := byDir[filepath.Dir(ev.Name)]
			if !ok {
				continue
			}
			w.logger.Debug("source event", zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
			pending[dir] = true
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-timer.C:
			dirs := make([]string, 0, len(pending))
			for dir := range pending {
				dirs = append(dirs, dir)
			}
			sort.Strings(dirs)
			pending = map[string]bool{}
			for _, dir := range dirs {
				w.regenerate(ctx, dir)
			}
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Base(ev.Name)
	if !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
		return false
	}
	return name != w.output
}

// regenerate runs dir unless its sources hash to the last seen value.
func (w *Watcher) regenerate(ctx context.Context, dir string) {
	sum, err := w.sourceHash(dir)
	if err != nil {
		w.logger.Warn("hash sources", zap.String("dir", dir), zap.Error(err))
	} else if prev, ok := w.hashes[dir]; ok && prev == sum {
		w.logger.Debug("sources unchanged", zap.String("dir", dir))
		return
	}

	res := w.run(ctx, dir)
	if err == nil {
		w.hashes[dir] = sum
	}
	if len(res.Errs) > 0 {
		w.logger.Warn("regeneration failed", zap.String("dir", dir), zap.Error(res.Err()))
	}
	if w.onResult != nil {
		w.onResult(res)
	}
}

// sourceHash digests the names and contents of the scanned sources of dir.
func (w *Watcher) sourceHash(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") || name == w.output {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return "", err
		}
		b.WriteString(name)
		b.WriteByte(0)
		b.WriteString(fsutil.SHA256Hex(data))
		b.WriteByte('\n')
	}
	return fsutil.SHA256Hex([]byte(b.String())), nil
}
