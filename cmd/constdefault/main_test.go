package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	buildLogger = func(bool) (*zap.Logger, error) { return zap.NewNop(), nil }
	os.Exit(m.Run())
}

const colorsSrc = `package colors

//constdefault:derive
type Color struct {
	R, G, B uint8
}

//constdefault:derive positional
type Vec3 struct {
	X, Y, Z float32
}
`

const brokenSrc = `package colors

//constdefault:derive
type Broken struct {
	Conn Unknown
}
`

const shapesYAML = `package: shapes
types:
  - name: Color
    shape: struct
    fields:
      - {name: R, type: uint8}
  - name: Token
    shape: union
    variants: [Ident, Number]
`

// testEnv is a package directory plus an empty config file, so that no
// constdefault.yaml above the test directory is picked up.
type testEnv struct {
	dir    string
	config string
}

func newTestEnv(t *testing.T, files map[string]string) testEnv {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "colors")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for name, src := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644))
	}
	cfg := filepath.Join(root, "constdefault.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("workers: 2\n"), 0o644))
	return testEnv{dir: dir, config: cfg}
}

func runCLI(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = run(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

//
// -----------------------------------------------------------------------------
// generate
// -----------------------------------------------------------------------------

func TestGenerate_WritesFile(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, map[string]string{"colors.go": colorsSrc})
	code, _, stderr := runCLI("generate", "--config", env.config, env.dir)
	require.Equal(t, 0, code, stderr)

	b, err := os.ReadFile(filepath.Join(env.dir, "constdefault_gen.go"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "func (Color) ConstDefault() Color {")
	assert.Contains(t, string(b), "func (Vec3) ConstDefault() Vec3 {")
}

func TestGenerate_OutputFlag(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, map[string]string{"colors.go": colorsSrc})
	code, _, stderr := runCLI("generate", "--config", env.config, "-o", "defaults_gen.go", env.dir)
	require.Equal(t, 0, code, stderr)
	assert.FileExists(t, filepath.Join(env.dir, "defaults_gen.go"))
	assert.NoFileExists(t, filepath.Join(env.dir, "constdefault_gen.go"))
}

func TestGenerate_ReportsFailures(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, map[string]string{"colors.go": colorsSrc, "broken.go": brokenSrc})
	code, _, stderr := runCLI("generate", "--config", env.config, env.dir)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "derive Broken.Conn: unsatisfied field conformance")
	assert.Contains(t, stderr, "Error: generate: failed: 1 of 1 packages")

	// The conforming types are still written.
	b, err := os.ReadFile(filepath.Join(env.dir, "constdefault_gen.go"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "func (Color) ConstDefault() Color {")
	assert.NotContains(t, string(b), "Broken")
}

func TestGenerate_CheckDisabled(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, map[string]string{"broken.go": brokenSrc})
	code, _, stderr := runCLI("generate", "--config", env.config, "--check=false", env.dir)
	require.Equal(t, 0, code, stderr)

	b, err := os.ReadFile(filepath.Join(env.dir, "constdefault_gen.go"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "Conn: constdefault.Derived[Unknown](),")
}

func TestGenerate_Verify(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, map[string]string{"colors.go": colorsSrc})
	code, _, stderr := runCLI("generate", "--config", env.config, "--verify", env.dir)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "out of date")
	assert.NoFileExists(t, filepath.Join(env.dir, "constdefault_gen.go"))

	code, _, stderr = runCLI("generate", "--config", env.config, env.dir)
	require.Equal(t, 0, code, stderr)

	code, _, stderr = runCLI("generate", "--config", env.config, "--verify", env.dir)
	assert.Equal(t, 0, code, stderr)
}

func TestGenerate_ExplicitTypes(t *testing.T) {
	t.Parallel()

	src := "package colors\n\ntype Point struct {\n\tX, Y int\n}\n"
	env := newTestEnv(t, map[string]string{"point.go": src})
	code, _, stderr := runCLI("generate", "--config", env.config, "--type", "Point", env.dir)
	require.Equal(t, 0, code, stderr)

	b, err := os.ReadFile(filepath.Join(env.dir, "constdefault_gen.go"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "func (Point) ConstDefault() Point {")
}

//
// -----------------------------------------------------------------------------
// describe / list / version
// -----------------------------------------------------------------------------

func TestDescribe(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, nil)
	path := filepath.Join(env.dir, "shapes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(shapesYAML), 0o644))

	tests := []struct {
		name    string
		args    []string
		code    int
		wantOut []string
		wantErr []string
	}{
		{
			name:    "manifest",
			args:    []string{"describe", "-f", path},
			code:    1,
			wantOut: []string{"types:", "name: Color", "shape: named"},
			wantErr: []string{"derive Token: unsupported shape"},
		},
		{
			name:    "go source",
			args:    []string{"describe", "-f", path, "--format", "go"},
			code:    1,
			wantOut: []string{"package shapes", "func (Color) ConstDefault() Color {"},
			wantErr: []string{"derive Token: unsupported shape"},
		},
		{
			name:    "unknown format",
			args:    []string{"describe", "-f", path, "--format", "json"},
			code:    1,
			wantErr: []string{`unknown format "json"`},
		},
		{
			name:    "missing file flag",
			args:    []string{"describe"},
			code:    1,
			wantErr: []string{`required flag(s) "file" not set`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			args := append([]string{}, tt.args...)
			args = append(args, "--config", env.config)
			code, stdout, stderr := runCLI(args...)
			assert.Equal(t, tt.code, code)
			for _, want := range tt.wantOut {
				assert.Contains(t, stdout, want)
			}
			for _, want := range tt.wantErr {
				assert.Contains(t, stderr, want)
			}
		})
	}
}

func TestList(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, map[string]string{"colors.go": colorsSrc})
	code, stdout, stderr := runCLI("list", "--config", env.config, env.dir)
	require.Equal(t, 0, code, stderr)

	for _, want := range []string{"PACKAGE", "OBLIGATIONS", "Color", "Vec3", "positional", "uint8", "float32", "ok"} {
		assert.Contains(t, stdout, want)
	}
	assert.NoFileExists(t, filepath.Join(env.dir, "constdefault_gen.go"))
}

func TestList_Failures(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, map[string]string{"broken.go": brokenSrc})
	code, stdout, stderr := runCLI("list", "--config", env.config, env.dir)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout, "failed")
	assert.Contains(t, stderr, "generate: failed: 1 types")
}

func TestVersion(t *testing.T) {
	t.Parallel()

	code, stdout, _ := runCLI("version")
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout, "constdefault v"+Version)
}

func TestUnknownCommand(t *testing.T) {
	t.Parallel()

	code, _, stderr := runCLI("frobnicate")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, `unknown command "frobnicate"`)
}

func TestConfigErrors(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, map[string]string{"colors.go": colorsSrc})
	code, _, stderr := runCLI("generate", "--config", env.config, "--tuple-arity=-1", env.dir)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "invalid configuration")
}
