package fsutil

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/mod/modfile"
)

// ErrNoModule is matched (errors.Is) by every ModuleError.
var ErrNoModule = errors.New("fsutil: no module")

// ModuleError reports a directory that has no usable go.mod above it.
type ModuleError struct {
	// GoMod is the go.mod that was rejected; empty when none was found.
	GoMod  string
	Reason string
}

// Error implements the error interface.
func (e ModuleError) Error() string {
	// Example: fsutil: "/src/app/go.mod": no module directive
	if e.GoMod == "" {
		return "fsutil: " + e.Reason
	}
	return "fsutil: " + strconv.Quote(filepath.ToSlash(e.GoMod)) + ": " + e.Reason
}

// Is makes errors.Is(err, ErrNoModule) work.
func (e ModuleError) Is(target error) bool { return target == ErrNoModule }

// OutsideError reports a directory that is not part of a module.
type OutsideError struct {
	Dir  string
	Root string
}

// Error implements the error interface.
func (e OutsideError) Error() string {
	return "fsutil: " + strconv.Quote(filepath.ToSlash(e.Dir)) + " is outside module root " + strconv.Quote(filepath.ToSlash(e.Root))
}

// Module is a Go module on disk.
type Module struct {
	// Root is the absolute directory holding go.mod.
	Root string
	// Path is the module path.
	Path string
}

// FindModule returns the module of the nearest go.mod at or above startDir.
func FindModule(startDir string) (Module, error) {
	gomod := FindUp(startDir, "go.mod")
	if gomod == "" {
		return Module{}, ModuleError{Reason: "go.mod not found above " + strconv.Quote(filepath.ToSlash(startDir))}
	}
	data, err := os.ReadFile(gomod)
	if err != nil {
		return Module{}, err
	}
	modPath := modfile.ModulePath(data)
	if strings.TrimSpace(modPath) == "" {
		return Module{}, ModuleError{GoMod: gomod, Reason: "no module directive"}
	}
	return Module{Root: filepath.Dir(gomod), Path: modPath}, nil
}

// ImportPath returns the import path of dir.
func (m Module) ImportPath(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(m.Root, abs)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	switch {
	case rel == ".":
		return m.Path, nil
	case rel == ".." || strings.HasPrefix(rel, "../"):
		return "", OutsideError{Dir: abs, Root: m.Root}
	}
	return path.Join(m.Path, rel), nil
}

// Dir returns the directory of the package importPath when it belongs to m.
// Packages of modules nested below m do not.
func (m Module) Dir(importPath string) (string, bool) {
	var rel string
	switch {
	case importPath == m.Path:
	case strings.HasPrefix(importPath, m.Path+"/"):
		rel = strings.TrimPrefix(importPath, m.Path+"/")
	default:
		return "", false
	}
	dir := filepath.Join(m.Root, filepath.FromSlash(rel))
	for d := dir; d != m.Root; d = filepath.Dir(d) {
		if FileExists(filepath.Join(d, "go.mod")) {
			return "", false
		}
	}
	return dir, DirExists(dir)
}

// FindUp returns the first existing file with one of names in startDir or
// the nearest parent holding one, or "" when there is none. Within a
// directory names are tried in order.
func FindUp(startDir string, names ...string) string {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return ""
	}
	for {
		for _, name := range names {
			if p := filepath.Join(dir, name); FileExists(p) {
				return p
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// DirExists reports whether path is an existing directory.
func DirExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.IsDir()
}

// FileExists reports whether path is an existing regular file.
func FileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}

// SHA256Hex returns the hex encoded SHA-256 digest of b.
func SHA256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
