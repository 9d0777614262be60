// Package main is the entry point for the ScreenPrompt input service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/screenprompt/screenprompt/internal/app"
	"github.com/screenprompt/screenprompt/internal/config"
	"github.com/screenprompt/screenprompt/internal/hook"
	"github.com/screenprompt/screenprompt/internal/winapi"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const shutdownTimeout = 5 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	opts := parseFlags()

	logger := app.NewLogger(app.LoggerConfig{
		Level:  app.ParseLogLevel(opts.logLevel),
		Output: os.Stderr,
		Prefix: "screenprompt",
	})

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: loading settings: %v\n", err)
		return 1
	}

	application := app.New(cfg, hook.NewBackend(), hook.NewWindowProber(),
		app.WithLogger(logger),
		app.WithVersion(version),
	)

	if err := application.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: starting: %v\n", err)
		return 1
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := application.Shutdown(ctx); err != nil {
			logger.Warn("shutdown: %v", err)
		}
	}()

	if err := application.WatchConfig(); err != nil {
		logger.Warn("settings live reload disabled: %v", err)
	}
	logger.Debug("keyboard layout locale: %s", winapi.KeyboardLayout())

	if opts.windowTitle != "" {
		w, err := winapi.FindWindow(opts.windowTitle)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: resolving overlay window: %v\n", err)
			return 1
		}
		if err := application.AttachWindow(w); err != nil {
			fmt.Fprintf(os.Stderr, "Error: attaching overlay window: %v\n", err)
			return 1
		}
	}

	if opts.checkUpdates {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		rel, newer, err := application.CheckForUpdates(ctx)
		cancel()
		switch {
		case err != nil:
			logger.Warn("update check failed: %v", err)
		case newer:
			fmt.Printf("Update available: %s\n", rel.Version)
		default:
			logger.Info("up to date (latest %s)", rel.Version)
		}
	}

	// Block until asked to stop.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals

	return 0
}

type options struct {
	configPath   string
	logLevel     string
	windowTitle  string
	checkUpdates bool
}

func parseFlags() options {
	var opts options
	var showVersion bool

	flag.StringVar(&opts.configPath, "config", "", "Path to settings file (default: per-user config dir)")
	flag.StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.StringVar(&opts.windowTitle, "window", "", "Overlay window title to attach to")
	flag.BoolVar(&opts.checkUpdates, "check-updates", false, "Check for a newer release at startup")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "ScreenPrompt - always-on-top prompt overlay input service\n\n")
		fmt.Fprintf(os.Stderr, "Usage: screenprompt [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  screenprompt -window ScreenPrompt     Attach to the running overlay\n")
		fmt.Fprintf(os.Stderr, "  screenprompt -log-level debug         Verbose hook lifecycle logging\n")
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("ScreenPrompt %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	switch opts.logLevel {
	case "debug", "info", "warn", "error":
	default:
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", opts.logLevel)
		os.Exit(1)
	}

	return opts
}
