// Package main is the entry point for undoreplay, which runs replay scripts
// against an undo-enabled store.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sanity-io/litter"

	"github.com/dshills/undocore/internal/config"
	"github.com/dshills/undocore/internal/config/watcher"
	"github.com/dshills/undocore/internal/logging"
	"github.com/dshills/undocore/internal/replay"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Exit codes.
const (
	exitOK       = 0
	exitError    = 1
	exitFailed   = 2
	exitUsageErr = 64
)

type options struct {
	configPath string
	scriptPath string
	logLevel   string
	watch      bool
	dump       bool
	version    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsageErr
	}

	if opts.version {
		fmt.Fprintf(stdout, "undoreplay %s\n", version)
		fmt.Fprintf(stdout, "Commit: %s\n", commit)
		fmt.Fprintf(stdout, "Built: %s\n", date)
		return exitOK
	}

	if !opts.watch {
		return replayOnce(ctx, opts, stdout, stderr)
	}
	return watchLoop(ctx, opts, stdout, stderr)
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("undoreplay", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configPath, "config", "", "Path to configuration file")
	fs.StringVar(&opts.configPath, "c", "", "Path to configuration file (shorthand)")
	fs.StringVar(&opts.scriptPath, "script", "", "Path to replay script")
	fs.StringVar(&opts.scriptPath, "s", "", "Path to replay script (shorthand)")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides the config file")
	fs.BoolVar(&opts.watch, "watch", false, "Re-run when the script or config file changes")
	fs.BoolVar(&opts.watch, "w", false, "Re-run on changes (shorthand)")
	fs.BoolVar(&opts.dump, "dump", false, "Dump the final store state")
	fs.BoolVar(&opts.version, "version", false, "Show version information")
	fs.BoolVar(&opts.version, "v", false, "Show version information (shorthand)")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "undoreplay - replay scripted actions against an undoable store\n\n")
		fmt.Fprintf(stderr, "Usage: undoreplay [options] [script.yaml]\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  undoreplay steps.yaml                 Run a script\n")
		fmt.Fprintf(stderr, "  undoreplay -dump steps.yaml           Run and dump the final state\n")
		fmt.Fprintf(stderr, "  undoreplay -w -c undo.toml steps.yaml Re-run on every save\n")
	}

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.version {
		return opts, nil
	}

	if opts.scriptPath == "" && fs.NArg() > 0 {
		opts.scriptPath = fs.Arg(0)
	}
	if opts.scriptPath == "" {
		return opts, errors.New("no script given")
	}

	if opts.logLevel != "" {
		if _, ok := logging.ParseLevel(opts.logLevel); !ok {
			return opts, fmt.Errorf("invalid log level %q (must be debug, info, warn, or error)", opts.logLevel)
		}
	}
	return opts, nil
}

// setup loads the configuration and builds the logger.
func setup(opts options, stderr io.Writer) (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}

	logger := logging.New(logging.Config{
		Level:  cfg.LogLevel(),
		Output: stderr,
		Prefix: "undoreplay",
	})
	return cfg, logger, nil
}

func replayOnce(ctx context.Context, opts options, stdout, stderr io.Writer) int {
	cfg, logger, err := setup(opts, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: loading config: %v\n", err)
		return exitError
	}

	script, err := replay.ParseFile(opts.scriptPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	st, err := replay.Run(ctx, script, replay.Options{
		Enhancer: cfg.EnhancerConfig(),
		Output:   stdout,
		Logger:   logger,
	})

	if opts.dump && st != nil {
		dumper := litter.Options{StripPackageNames: true, HidePrivateFields: true}
		fmt.Fprintln(stdout, dumper.Sdump(st.State()))
	}

	var failed *replay.ExpectationError
	switch {
	case err == nil:
		fmt.Fprintf(stdout, "ok: %d steps\n", len(script.Steps))
		return exitOK
	case errors.As(err, &failed):
		fmt.Fprintf(stdout, "FAIL: %v\n", failed)
		return exitFailed
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
}

// watchLoop replays the script, then again after every change to the
// script or config file, until ctx is done.
func watchLoop(ctx context.Context, opts options, stdout, stderr io.Writer) int {
	_, logger, err := setup(opts, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: loading config: %v\n", err)
		return exitError
	}

	w, err := watcher.New(
		watcher.WithDebounce(200*time.Millisecond),
		watcher.WithLogger(logger.WithComponent("watcher")),
	)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	defer w.Close()

	for _, path := range []string{opts.scriptPath, opts.configPath} {
		if path == "" {
			continue
		}
		if err := w.Watch(path); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitError
		}
	}

	changed := make(chan watcher.Event, 1)
	w.OnChange(func(e watcher.Event) {
		select {
		case changed <- e:
		default:
		}
	})
	if err := w.Start(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	replayOnce(ctx, opts, stdout, stderr)
	for {
		select {
		case <-ctx.Done():
			return exitOK
		case e := <-changed:
			fmt.Fprintf(stdout, "\n%s %s: re-running\n", e.Path, e.Op)
			replayOnce(ctx, opts, stdout, stderr)
		}
	}
}
