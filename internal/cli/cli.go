// Package cli implements the stepload command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"stepload/internal/config"
	"stepload/internal/logging"
	"stepload/internal/pipeline"
	"stepload/internal/registry"
)

const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// usageError marks errors caused by bad arguments.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return usageError{err: fmt.Errorf(format, args...)}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
	noColor    bool
}

// Run executes the CLI and returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return RunContext(ctx, args, stdout, stderr)
}

// RunContext is Run with a caller-supplied context.
func RunContext(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	var usage usageError
	if errors.As(err, &usage) {
		return ExitUsage
	}
	return ExitError
}

// NewRootCmd builds the stepload command tree.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "stepload",
		Short:         "Resolve and load only the step definitions a test run needs",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err: err}
	})

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "Path to config file (default: search for .stepload/config.yml)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&flags.logFormat, "log-format", "", "Log format: text or json")
	pf.BoolVar(&flags.noColor, "no-color", false, "Disable coloured output")

	root.AddCommand(
		newInitCmd(flags),
		newValidateCmd(flags),
		newIndexCmd(flags),
		newResolveCmd(flags),
		newLoadCmd(flags),
		newCacheCmd(flags),
		newWatchCmd(flags),
	)
	return root
}

// env is the loaded configuration and logger for one command.
type env struct {
	cfg    config.Config
	logger *slog.Logger
	style  styles
}

// loadEnv loads config and builds the logger. Without a config file the
// defaults apply, rooted at the working directory.
func loadEnv(cmd *cobra.Command, flags *globalFlags) (*env, error) {
	path, err := resolveConfigPath(flags.configPath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Log.Format = flags.logFormat
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, usageError{err: err}
	}
	return &env{
		cfg:    cfg,
		logger: logging.New(level, cfg.Log.Format, cmd.ErrOrStderr()),
		style:  newStyles(cmd.OutOrStdout(), flags.noColor),
	}, nil
}

func (e *env) session(source registry.Source) *pipeline.Session {
	return pipeline.New(e.cfg, source,
		pipeline.WithLogger(e.logger),
		pipeline.WithDebug(e.cfg.Log.Level == "debug"))
}
