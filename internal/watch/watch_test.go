package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sghaida/constdefault/internal/generate"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// recorder counts regenerations per directory.
type recorder struct {
	mu    sync.Mutex
	runs  map[string]int
	ready chan string
}

func newRecorder() *recorder {
	return &recorder{runs: map[string]int{}, ready: make(chan string, 16)}
}

func (r *recorder) run(_ context.Context, dir string) generate.Result {
	r.mu.Lock()
	r.runs[dir]++
	r.mu.Unlock()
	r.ready <- dir
	return generate.Result{Dir: dir}
}

func (r *recorder) count(dir string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs[dir]
}

func waitRun(t *testing.T, r *recorder, want string) {
	t.Helper()
	select {
	case dir := <-r.ready:
		require.Equal(t, want, dir)
	case <-time.After(5 * time.Second):
		t.Fatalf("no regeneration of %s", want)
	}
}

func expectNoRun(t *testing.T, r *recorder) {
	t.Helper()
	select {
	case dir := <-r.ready:
		t.Fatalf("unexpected regeneration of %s", dir)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_RegeneratesOnContentChange(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(src, []byte("package a\n"), 0o644))

	rec := newRecorder()
	var results []generate.Result
	w := New([]string{dir}, rec.run,
		WithDebounce(20*time.Millisecond),
		WithOutput("constdefault_gen.go"),
		OnResult(func(res generate.Result) { results = append(results, res) }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Initial generation.
	waitRun(t, rec, dir)

	// Content change regenerates.
	require.NoError(t, os.WriteFile(src, []byte("package a\n\ntype A struct{}\n"), 0o644))
	waitRun(t, rec, dir)

	// Rewriting identical content is gated by the hash.
	require.NoError(t, os.WriteFile(src, []byte("package a\n\ntype A struct{}\n"), 0o644))
	expectNoRun(t, rec)

	// Generated output, tests and non-Go files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "constdefault_gen.go"), []byte("package a\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_test.go"), []byte("package a\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0o644))
	expectNoRun(t, rec)

	// New source files count.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.go"), []byte("package a\n"), 0o644))
	waitRun(t, rec, dir)

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 3, rec.count(dir))
	assert.Len(t, results, 3)
}

func TestWatcher_Errors(t *testing.T) {
	t.Parallel()

	err := New(nil, newRecorder().run).Run(context.Background())
	assert.EqualError(t, err, "watch: no directories")

	err = New([]string{filepath.Join(t.TempDir(), "missing")}, newRecorder().run).Run(context.Background())
	assert.ErrorContains(t, err, "watch:")
}

func TestSourceHash(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	w := New([]string{dir}, nil, WithOutput("gen.go"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a\n"), 0o644))

	first, err := w.sourceHash(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "gen.go"), []byte("package a\n// x\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_test.go"), []byte("package a\n"), 0o644))
	same, err := w.sourceHash(dir)
	require.NoError(t, err)
	assert.Equal(t, first, same)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.go"), []byte("package a\n\n"), 0o644))
	changed, err := w.sourceHash(dir)
	require.NoError(t, err)
	assert.NotEqual(t, first, changed)
}
