package generate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sghaida/constdefault/emit"
	"github.com/sghaida/constdefault/internal/config"
	"github.com/sghaida/constdefault/internal/fsutil"
	"github.com/sghaida/constdefault/registry"
)

// ErrFailed is returned by Run when at least one package reported errors.
var ErrFailed = errors.New("generate: failed")

// ErrOutOfDate is returned by Run in verify mode when a generated file differs
// from what would be generated.
var ErrOutOfDate = errors.New("generate: generated code is out of date")

// Runner generates ConstDefault implementations for package directories.
type Runner struct {
	cfg    *config.Config
	table  *registry.Table
	logger *zap.Logger
	types  []string
	verify bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger; nil keeps the no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithTypes requests derivation for the named types in addition to the
// directive-marked ones.
func WithTypes(names ...string) Option {
	return func(r *Runner) { r.types = append(r.types, names...) }
}

// WithVerify makes Run compare instead of write.
func WithVerify(verify bool) Option {
	return func(r *Runner) { r.verify = verify }
}

// New returns a Runner for cfg.
func New(cfg *config.Config, opts ...Option) *Runner {
	r := &Runner{cfg: cfg, table: cfg.Table(), logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Result is the outcome of one package directory.
type Result struct {
	Dir     string
	Package string
	// Output is the path of the generated file.
	Output string
	// Types lists the types whose implementation was generated.
	Types []string
	Errs  []error

	Written bool
	Removed bool
	// Stale is set in verify mode when the file on disk differs.
	Stale bool
}

// Err joins the errors of the package.
func (r Result) Err() error { return errors.Join(r.Errs...) }

// Run processes dirs concurrently. Results keep the order of dirs.
func (r *Runner) Run(ctx context.Context, dirs []string) ([]Result, error) {
	results := make([]Result, len(dirs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers())
	for i, dir := range dirs {
		g.Go(func() error {
			results[i] = r.RunDir(gctx, dir)
			// Packages are independent; failures are reported per result.
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}

	var failed, stale int
	for _, res := range results {
		if len(res.Errs) > 0 {
			failed++
		}
		if res.Stale {
			stale++
		}
	}
	switch {
	case failed > 0:
		return results, fmt.Errorf("%w: %d of %d packages", ErrFailed, failed, len(dirs))
	case stale > 0:
		return results, fmt.Errorf("%w: %d of %d packages", ErrOutOfDate, stale, len(dirs))
	}
	return results, nil
}

// RunDir processes one package directory.
func (r *Runner) RunDir(ctx context.Context, dir string) Result {
	res := Result{Dir: dir, Output: filepath.Join(dir, r.cfg.Output)}

	a, err := r.Analyze(ctx, dir)
	if err != nil {
		res.Errs = append(res.Errs, err)
		return res
	}
	res.Package = a.Package.Name
	res.Errs = append(res.Errs, a.Errs...)
	res.Errs = append(res.Errs, a.Failed()...)

	units := a.Succeeded()
	if len(units) == 0 {
		r.dropOutput(&res)
		return res
	}

	src, err := r.Render(a)
	if err != nil {
		res.Errs = append(res.Errs, err)
		return res
	}
	for _, u := range units {
		res.Types = append(res.Types, u.Impl.Type)
	}

	if r.verify {
		existing, err := os.ReadFile(res.Output)
		res.Stale = err != nil || !bytes.Equal(existing, src)
		return res
	}

	written, err := fsutil.WriteIfChanged(res.Output, src, 0o644)
	if err != nil {
		res.Errs = append(res.Errs, fmt.Errorf("generate: write %s: %w", res.Output, err))
		return res
	}
	res.Written = written
	if written {
		r.logger.Info("wrote generated file", zap.String("path", res.Output), zap.Strings("types", res.Types))
	} else {
		r.logger.Debug("generated file unchanged", zap.String("path", res.Output))
	}
	return res
}

// Render emits the Go source of the successful requests of a.
func (r *Runner) Render(a *Analysis) ([]byte, error) {
	return emit.Go(a.Package.Name, a.Succeeded(), emit.Options{Filename: r.cfg.Output, Runtime: r.cfg.Runtime()})
}

// dropOutput removes a generated file left over from earlier runs.
func (r *Runner) dropOutput(res *Result) {
	if r.verify {
		res.Stale = fsutil.FileExists(res.Output)
		return
	}
	removed, err := fsutil.RemoveIfExists(res.Output)
	if err != nil {
		res.Errs = append(res.Errs, fmt.Errorf("generate: remove %s: %w", res.Output, err))
		return
	}
	res.Removed = removed
	if removed {
		r.logger.Info("removed stale generated file", zap.String("path", res.Output))
	}
}

func (r *Runner) workers() int {
	if r.cfg.Workers > 0 {
		return r.cfg.Workers
	}
	return runtime.GOMAXPROCS(0)
}
