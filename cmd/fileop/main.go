package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bamsammich/fileop/internal/config"
	"github.com/bamsammich/fileop/internal/ipc"
	"github.com/bamsammich/fileop/internal/ui"
	"github.com/bamsammich/fileop/internal/worker"
)

var version = "dev"

// Exit statuses of the fileop command.
const (
	exitOK        = 0
	exitFailed    = 1
	exitCancelled = 130
)

func main() {
	// Worker mode: re-exec'd child process running one operation.
	// Must be checked before cobra to avoid flag conflicts.
	if len(os.Args) == 2 && os.Args[1] == ipc.WorkerModeFlag {
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: worker.LogLevel(),
		}))
		slog.SetDefault(logger)

		if err := worker.RunProcess(); err != nil {
			slog.Error("worker failed", "error", err)
			os.Exit(ipc.ExitInternal)
		}
		return
	}

	os.Exit(run(os.Args[1:]))
}

// app holds the global flags and everything derived from them before a
// subcommand runs.
type app struct {
	workDir     string
	verbose     int
	quiet       bool
	logFile     string
	assumeStr   string
	yes         bool
	tuiFlag     bool
	showVersion bool

	cfg      config.Config
	level    slog.Level
	assume   ui.Assume
	closeLog func()
}

func run(args []string) int {
	a := &app{closeLog: func() {}}
	root := a.rootCmd()
	root.SetArgs(args)
	err := root.Execute()
	a.closeLog()

	if err != nil {
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			return exitErr.code
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitFailed
	}
	return exitOK
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fileop",
		Short: "Copy, move, delete and change files in a supervised worker process",
		Long: `fileop runs each file operation in a separate worker process. The worker
reports what it is doing and how far along it is, and stops to ask when
something goes wrong: retry or ignore a failing file, skip or overwrite an
existing one. Ctrl-C pauses the worker and asks before cancelling.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if a.showVersion {
				return nil
			}
			return cobra.NoArgs(cmd, args)
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.showVersion {
				fmt.Fprintf(cmd.OutOrStdout(), "fileop %s\n", version)
				return nil
			}
			return cmd.Help()
		},
	}

	root.Flags().BoolVar(&a.showVersion, "version", false, "print version and exit")

	pf := root.PersistentFlags()
	pf.StringVarP(&a.workDir, "directory", "C", "", "resolve paths relative to DIR")
	pf.CountVarP(&a.verbose, "verbose", "v", "more output (repeat for debug logging)")
	pf.BoolVarP(&a.quiet, "quiet", "q", false, "suppress all output except errors")
	pf.StringVar(&a.logFile, "log", "", "write structured JSON log to FILE")
	pf.StringVar(&a.assumeStr, "assume", "", "answer prompts automatically (skip or continue)")
	pf.BoolVarP(&a.yes, "yes", "y", false, "cancel on Ctrl-C without asking")
	pf.BoolVar(&a.tuiFlag, "tui", false, "full-screen display (Bubble Tea)")

	root.AddCommand(
		a.copyCmd(),
		a.moveCmd(),
		a.deleteCmd(),
		a.chattrCmd(),
		a.dupCmd(),
		docsCmd,
	)
	return root
}

// setup loads the config file and configures logging. Flags override
// config values only when set on the command line.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		// A broken config file should not block an operation.
		slog.Warn("failed to load config", "error", err)
	}
	a.cfg = cfg

	flags := cmd.Flags()
	if !flags.Changed("tui") && cfg.Defaults.TUI != nil {
		a.tuiFlag = *cfg.Defaults.TUI
	}
	if !flags.Changed("assume") && cfg.Defaults.Assume != nil {
		a.assumeStr = *cfg.Defaults.Assume
	}
	if a.assume, err = ui.ParseAssume(a.assumeStr); err != nil {
		return fmt.Errorf("invalid --assume: %w", err)
	}

	a.level = logLevel(a.verbose, a.quiet, cfg.Defaults.LogLevel)
	textHandler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: a.level})
	var handler slog.Handler = textHandler
	if a.logFile != "" {
		lf, lfErr := os.Create(a.logFile)
		if lfErr != nil {
			return fmt.Errorf("open log file: %w", lfErr)
		}
		a.closeLog = func() { lf.Close() }
		jsonHandler := slog.NewJSONHandler(lf, &slog.HandlerOptions{Level: slog.LevelDebug})
		handler = ui.NewMultiHandler(textHandler, jsonHandler)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}

// logLevel maps -v/-q to a level. The config file only applies when
// neither is given.
func logLevel(verbose int, quiet bool, configured *string) slog.Level {
	switch {
	case quiet:
		return slog.LevelError
	case verbose >= 2:
		return slog.LevelDebug
	case verbose == 1:
		return slog.LevelInfo
	}
	if configured != nil {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(*configured)); err == nil {
			return lvl
		}
	}
	return slog.LevelWarn
}

// workerStderr is where worker logs go. The full-screen display owns the
// terminal, so worker logs are dropped there.
func (a *app) workerStderr(fullScreen bool) io.Writer {
	if fullScreen {
		return io.Discard
	}
	return os.Stderr
}

type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}
