package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/sghaida/constdefault/internal/fsutil"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "CONSTDEFAULT_"

// flagKeys maps the command line flags that override config keys.
var flagKeys = map[string]string{
	"output":         "output",
	"runtime-import": "runtime_import",
	"tuple-arity":    "tuple_arity",
	"check":          "check",
	"verbose":        "verbose",
	"workers":        "workers",
}

// Options tells Load where to look.
type Options struct {
	// File is an explicit config file; when empty FileNames are searched
	// upward from Dir.
	File string

	// Dir is the start directory of the search; defaults to the working directory.
	Dir string

	// Flags holds the command line; only explicitly set flags are applied.
	Flags *pflag.FlagSet
}

// Load reads the configuration.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func Load(opts Options) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"output":         DefaultOutput,
		"runtime_import": DefaultRuntimeImport,
		"tuple_arity":    DefaultTupleArity,
		"check":          true,
		"verbose":        false,
		"workers":        DefaultWorkers,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	cfgFile := opts.File
	if cfgFile == "" {
		cfgFile = findConfigFile(opts.Dir)
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// 3. Environment (CONSTDEFAULT_TUPLE_ARITY -> tuple_arity)
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if opts.Flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(opts.Flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(opts.Flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.File = cfgFile

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func findConfigFile(dir string) string {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return ""
		}
		dir = cwd
	}
	if p := fsutil.FindUp(dir, FileNames...); p != "" {
		return filepath.Clean(p)
	}
	return ""
}
