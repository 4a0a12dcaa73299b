package generate

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sghaida/constdefault/derive"
	"github.com/sghaida/constdefault/descriptor"
	"github.com/sghaida/constdefault/internal/config"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const shapesSrc = `package shapes

import "time"

//constdefault:derive
type Color struct {
	R, G, B uint8
}

//constdefault:derive positional
type Vec3 struct {
	X, Y, Z float32
}

//constdefault:derive
type Sprite struct {
	Tint  Color
	Pos   Vec3
	Every time.Duration
}

//constdefault:derive
type Shape interface{ Area() float64 }

//constdefault:derive
type Broken struct {
	Conn Unknown
}

//constdefault:derive
type Holder struct {
	Inner Broken
}
`

func testConfig() *config.Config {
	return &config.Config{
		Output:        config.DefaultOutput,
		RuntimeImport: config.DefaultRuntimeImport,
		TupleArity:    config.DefaultTupleArity,
		Check:         true,
		Workers:       2,
	}
}

func writePackage(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shapes.go"), []byte(src), 0o644))
	return dir
}

func readOutput(t *testing.T, dir string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(dir, config.DefaultOutput))
	require.NoError(t, err)
	return string(b)
}

//
// -----------------------------------------------------------------------------
// Analyze
// -----------------------------------------------------------------------------

// TestAnalyze_FailuresCascade verifies a failing type stops counting as derived for its dependents.
func TestAnalyze_FailuresCascade(t *testing.T) {
	t.Parallel()

	dir := writePackage(t, shapesSrc)
	a, err := New(testConfig()).Analyze(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, a.Outcomes, 6)

	status := map[string]bool{}
	for _, o := range a.Outcomes {
		status[o.Request.Def.Name] = o.OK()
	}
	assert.Equal(t, map[string]bool{
		"Color":  true,
		"Vec3":   true,
		"Sprite": true,
		"Shape":  false,
		"Broken": false,
		"Holder": false,
	}, status)

	failed := a.Failed()
	require.Len(t, failed, 3)
	assert.ErrorIs(t, failed[0], derive.ErrUnsupportedShape)
	assert.ErrorIs(t, failed[1], derive.ErrUnsatisfiedFieldConformance)
	assert.ErrorIs(t, failed[2], derive.ErrUnsatisfiedFieldConformance)
	assert.Contains(t, failed[2].Error(), "derive Holder.Inner")
	assert.Len(t, a.Succeeded(), 3)
	assert.Equal(t, dir+": 6 requests, 3 failed", a.String())
}

func TestAnalyze_DeferredChecks(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Check = false
	a, err := New(cfg).Analyze(context.Background(), writePackage(t, shapesSrc))
	require.NoError(t, err)

	// Only the sum type is rejected; the rest is left to the compiler.
	assert.Len(t, a.Failed(), 1)
	assert.Len(t, a.Succeeded(), 5)
}

func TestAnalyze_RuntimePackage(t *testing.T) {
	t.Parallel()

	dir := writePackage(t, shapesSrc)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/rt\n"), 0o644))

	cfg := testConfig()
	cfg.RuntimeImport = "example.com/rt"
	_, err := New(cfg).Analyze(context.Background(), dir)
	assert.ErrorIs(t, err, ErrRuntimePackage)
}

func TestAnalyze_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(testConfig()).Analyze(ctx, writePackage(t, shapesSrc))
	assert.ErrorIs(t, err, context.Canceled)
}

const descriptorYAML = `package: shapes
types:
  - name: Color
    shape: struct
    fields:
      - {name: R, type: uint8}
  - name: Palette
    shape: struct
    fields:
      - {name: Main, type: Color}
      - {name: Spare, type: Token}
  - name: Swatch
    shape: tuple
    fields:
      - {type: Color}
  - name: Token
    shape: union
    variants: [Ident, Number]
`

func TestAnalyzeDescriptor(t *testing.T) {
	t.Parallel()

	files, err := descriptor.Parse("shapes.yaml", []byte(descriptorYAML))
	require.NoError(t, err)
	require.Len(t, files, 1)

	r := New(testConfig())
	a, err := r.AnalyzeDescriptor(context.Background(), "shapes.yaml", files[0])
	require.NoError(t, err)

	failed := a.Failed()
	require.Len(t, failed, 2)
	assert.ErrorIs(t, failed[0], derive.ErrUnsatisfiedFieldConformance)
	assert.ErrorIs(t, failed[1], derive.ErrUnsupportedShape)

	src, err := r.Render(a)
	require.NoError(t, err)
	out := string(src)
	assert.Contains(t, out, "package shapes\n")
	assert.Contains(t, out, "func (Color) ConstDefault() Color {")
	assert.Contains(t, out, "\t\tColor{}.ConstDefault(),\n")
	assert.NotContains(t, out, "Palette")
}

//
// -----------------------------------------------------------------------------
// Run
// -----------------------------------------------------------------------------

func TestRun_WritesSuccessfulTypes(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	dir := writePackage(t, shapesSrc)
	r := New(testConfig(), WithLogger(zap.New(core)))

	results, err := r.Run(context.Background(), []string{dir})
	require.ErrorIs(t, err, ErrFailed)
	require.Len(t, results, 1)

	res := results[0]
	assert.Equal(t, "shapes", res.Package)
	assert.Equal(t, []string{"Color", "Vec3", "Sprite"}, res.Types)
	assert.True(t, res.Written)
	assert.Len(t, res.Errs, 3)

	src := readOutput(t, dir)
	assert.Contains(t, src, "// Code generated by constdefault; DO NOT EDIT.")
	assert.Contains(t, src, "func (Color) ConstDefault() Color {")
	assert.Contains(t, src, "\t\tTint:  Color{}.ConstDefault(),\n\t\tPos:   Vec3{}.ConstDefault(),\n\t\tEvery: 0,\n")
	assert.NotContains(t, src, "Holder")
	assert.Equal(t, 1, logs.FilterMessage("wrote generated file").Len())
	assert.Equal(t, 3, logs.FilterMessage("derivation failed").Len())

	// A second run leaves the file alone.
	results, err = r.Run(context.Background(), []string{dir})
	require.ErrorIs(t, err, ErrFailed)
	assert.False(t, results[0].Written)
}

func TestRun_RemovesStaleOutput(t *testing.T) {
	t.Parallel()

	dir := writePackage(t, "package shapes\n\ntype Plain struct{}\n")
	stale := filepath.Join(dir, config.DefaultOutput)
	require.NoError(t, os.WriteFile(stale, []byte("// Code generated by constdefault; DO NOT EDIT.\n\npackage shapes\n"), 0o644))

	results, err := New(testConfig()).Run(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.True(t, results[0].Removed)
	assert.NoFileExists(t, stale)
}

func TestRun_Verify(t *testing.T) {
	t.Parallel()

	dir := writePackage(t, "package shapes\n\n//constdefault:derive\ntype Color struct{ R, G, B uint8 }\n")

	_, err := New(testConfig(), WithVerify(true)).Run(context.Background(), []string{dir})
	require.ErrorIs(t, err, ErrOutOfDate)
	assert.NoFileExists(t, filepath.Join(dir, config.DefaultOutput), "verify never writes")

	_, err = New(testConfig()).Run(context.Background(), []string{dir})
	require.NoError(t, err)

	results, err := New(testConfig(), WithVerify(true)).Run(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.False(t, results[0].Stale)
}

// TestRun_PackagesIndependent verifies one broken package does not affect another.
func TestRun_PackagesIndependent(t *testing.T) {
	t.Parallel()

	good := writePackage(t, "package good\n\n//constdefault:derive\ntype A struct{ N int }\n")
	bad := writePackage(t, "package bad\n\ntype {\n")
	missing := filepath.Join(t.TempDir(), "missing")

	results, err := New(testConfig()).Run(context.Background(), []string{bad, good, missing})
	require.ErrorIs(t, err, ErrFailed)
	assert.ErrorContains(t, err, "2 of 3 packages")
	require.Len(t, results, 3)

	assert.NotEmpty(t, results[0].Errs)
	assert.Empty(t, results[1].Errs)
	assert.Equal(t, []string{"A"}, results[1].Types)
	assert.NotEmpty(t, results[2].Errs)
	assert.Contains(t, readOutput(t, good), "func (A) ConstDefault() A {")
}

// TestRun_ElementDefaults verifies arrays and anonymous structs of a type
// with a non-zero default carry that default.
func TestRun_ElementDefaults(t *testing.T) {
	t.Parallel()

	dir := writePackage(t, `package hands

type Hand struct{ X int }

func (Hand) ConstDefault() Hand { return Hand{X: 7} }

//constdefault:derive
type Outer struct {
	One  Hand
	Many [2]Hand
	Tup  struct{ H Hand }
	_    [4]byte
}
`)
	results, err := New(testConfig()).Run(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{"Outer"}, results[0].Types)

	src := readOutput(t, dir)
	assert.Contains(t, src, "Hand{}.ConstDefault(),\n")
	assert.Contains(t, src, "[2]Hand{Hand{}.ConstDefault(), Hand{}.ConstDefault()},\n")
	assert.Contains(t, src, "struct{ H Hand }{H: Hand{}.ConstDefault()},\n")
	assert.NotContains(t, src, "_:")
	assert.NotContains(t, src, "[2]Hand{}")
}

// TestRun_ImportedDerivedTypes verifies a type derived in another package of
// the module satisfies the obligations of its users.
func TestRun_ImportedDerivedTypes(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	a := filepath.Join(root, "a")
	b := filepath.Join(root, "b")
	require.NoError(t, os.WriteFile(filepath.Join(root, "go.mod"), []byte("module example.com/paint\n\ngo 1.22\n"), 0o644))
	require.NoError(t, os.Mkdir(a, 0o755))
	require.NoError(t, os.Mkdir(b, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(a, "a.go"), []byte("package a\n\n//constdefault:derive\ntype Color struct{ R uint8 }\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(b, "b.go"), []byte(`package b

import "example.com/paint/a"

//constdefault:derive
type Swatch struct{ C a.Color }

//constdefault:derive
type Strip struct{ Cs [2]a.Color }
`), 0o644))

	results, err := New(testConfig()).Run(context.Background(), []string{a, b})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, []string{"Swatch", "Strip"}, results[1].Types)

	src := readOutput(t, b)
	assert.Contains(t, src, "\t\"example.com/paint/a\"\n")
	assert.Contains(t, src, "\t\tC: a.Color{}.ConstDefault(),\n")
	assert.Contains(t, src, "\t\tCs: [2]a.Color{a.Color{}.ConstDefault(), a.Color{}.ConstDefault()},\n")
}

func TestRun_ExplicitTypes(t *testing.T) {
	t.Parallel()

	dir := writePackage(t, "package shapes\n\ntype Point struct{ X, Y int }\n")
	results, err := New(testConfig(), WithTypes("Point")).Run(context.Background(), []string{dir})
	require.NoError(t, err)
	assert.Equal(t, []string{"Point"}, results[0].Types)
}

func TestRun_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results, err := New(testConfig()).Run(ctx, []string{writePackage(t, shapesSrc)})
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 1)
	assert.NoFileExists(t, filepath.Join(results[0].Dir, config.DefaultOutput))
}

func TestResult_Err(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Result{}.Err())
	assert.Error(t, Result{Errs: []error{context.Canceled}}.Err())
}
