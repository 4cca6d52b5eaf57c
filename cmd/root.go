// Package cmd holds the linkguard command line.
package cmd

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

	"github.com/selimozcann/LinkGuard/internal/banner"
	"github.com/selimozcann/LinkGuard/internal/config"
	"github.com/selimozcann/LinkGuard/internal/engine"
	"github.com/selimozcann/LinkGuard/internal/kvstore"
	"github.com/selimozcann/LinkGuard/internal/logging"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitBlocked = 2
)

// exitError carries a process exit code without printing anything extra.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

type globalOptions struct {
	envFile   string
	stateFile string
	verbose   bool
	noResolve bool
	noBanner  bool
}

// app is what every command needs once flags are parsed.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	engine *engine.Engine
	store  kvstore.Store
	out    io.Writer
}

func (a *app) Close() error {
	if f, ok := a.store.(*kvstore.File); ok {
		return f.Close()
	}
	return nil
}

func newApp(cmd *cobra.Command, opts *globalOptions) (*app, error) {
	var files []string
	if opts.envFile != "" {
		files = append(files, opts.envFile)
	}
	cfg, err := config.Load(files...)
	if err != nil {
		return nil, err
	}
	if opts.stateFile != "" {
		cfg.StateFile = opts.stateFile
	}
	if opts.verbose {
		cfg.Verbose = true
	}
	logger := logging.NewLogger(cfg.Verbose, cfg.JSONLogs)

	var store kvstore.Store = kvstore.NewMemory()
	if cfg.StateFile != "" {
		f, err := kvstore.OpenFile(cfg.StateFile)
		if err != nil {
			return nil, fmt.Errorf("open state file: %w", err)
		}
		store = f
	}

	e, err := engine.New(cfg, store, logger)
	if err != nil {
		return nil, err
	}
	e.NoResolve = opts.noResolve
	return &app{cfg: cfg, logger: logger, engine: e, store: store, out: cmd.OutOrStdout()}, nil
}

// withApp adapts a command body that needs an app into a cobra RunE.
func withApp(opts *globalOptions, run func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, opts)
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				a.logger.Warn("close state file", "err", err)
			}
		}()
		return run(cmd, a, args)
	}
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}
	root := &cobra.Command{
		Use:           "linkguard",
		Short:         "Review links for phishing and redirect abuse",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if !opts.noBanner {
				banner.PrintBanner(cmd.ErrOrStderr())
			}
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&opts.envFile, "env", "", "Environment file to load (default .env)")
	pf.StringVar(&opts.stateFile, "state", "", "JSON state file for trust, events and PIN state (overrides LINKGUARD_STATE_FILE)")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	pf.BoolVar(&opts.noResolve, "no-resolve", false, "Do not follow redirects")
	pf.BoolVar(&opts.noBanner, "no-banner", false, "Do not print the banner")

	root.AddCommand(
		newCheckCmd(opts),
		newGateCmd(opts),
		newBatchCmd(opts),
		newServeCmd(opts),
		newEventsCmd(opts),
		newTrustCmd(opts),
		newPINCmd(opts),
	)
	return root
}

// run executes the command line and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err := root.ExecuteContext(ctx)
	var ee exitError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &ee):
		return ee.code
	default:
		fmt.Fprintf(stderr, "[-] Error: %v\n", err)
		return exitFailure
	}
}

// Execute runs the linkguard command line and exits.
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
