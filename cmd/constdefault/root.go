package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sghaida/constdefault/internal/config"
)

// Version is set at build time.
var Version = "0.1.0"

// app is the state shared by the subcommands of one invocation.
type app struct {
	cfgFile string
	cfg     *config.Config
	logger  *zap.Logger
}

// buildLogger is a test seam.
var buildLogger = productionLogger

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "constdefault",
		Short: "Derive canonical default values for Go types",
		Long: `constdefault generates ConstDefault methods for product types marked with
a //constdefault:derive directive. Every field of the type must itself have
a canonical default; types that do not are reported at the field.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}
			return a.setup(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default: constdefault.yaml found upward)")
	pf.BoolP("verbose", "v", false, "debug logging")
	pf.StringP("output", "o", "", "name of the generated file")
	pf.String("runtime-import", "", "import path of the constdefault runtime package")
	pf.Int("tuple-arity", 0, "largest anonymous struct with a registered default")
	pf.Bool("check", true, "verify field obligations before writing (false leaves them to the compiler)")
	pf.Int("workers", 0, "packages processed in parallel")

	root.AddCommand(a.newGenerateCmd())
	root.AddCommand(a.newDescribeCmd())
	root.AddCommand(a.newListCmd())
	root.AddCommand(a.newWatchCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// setup loads the configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(config.Options{File: a.cfgFile, Flags: cmd.Flags()})
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := buildLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	if cfg.File != "" {
		logger.Debug("using config file", zap.String("path", cfg.File))
	}
	return nil
}

func productionLogger(verbose bool) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zcfg.Build()
}

// dirsOrCwd defaults to the working directory, which go:generate sets to the
// package directory.
func dirsOrCwd(args []string) []string {
	if len(args) == 0 {
		return []string{"."}
	}
	return args
}
