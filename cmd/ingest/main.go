package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/Adda-Baaj/prism-news/internal/app"
	"github.com/Adda-Baaj/prism-news/internal/config"
	"github.com/Adda-Baaj/prism-news/internal/logger"
)

func main() {
	os.Exit(run())
}

type options struct {
	configFile string
	envFile    string
	interval   time.Duration
}

// loop reports whether polls repeat until shutdown.
func (o options) loop() bool { return o.interval > 0 }

// parseFlags reads the command line. --once (the default) and --interval are mutually
// exclusive; --once=false is only meaningful together with a positive --interval.
func parseFlags(args []string) (options, error) {
	fs := pflag.NewFlagSet("ingest", pflag.ContinueOnError)
	var (
		opts options
		once bool
	)
	fs.StringVarP(&opts.configFile, "config", "c", "", "path to a config file (yaml, json, toml)")
	fs.StringVar(&opts.envFile, "env-file", "", "path to a .env file (default: ./.env when present)")
	fs.BoolVar(&once, "once", true, "run a single poll, print the result and exit; --once=false requires --interval")
	fs.DurationVar(&opts.interval, "interval", 0, "poll repeatedly with this pause between runs; cannot be combined with --once")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	onceSet := fs.Changed("once")
	switch {
	case opts.interval < 0:
		return options{}, fmt.Errorf("--interval must not be negative, got %s", opts.interval)
	case opts.interval > 0 && onceSet && once:
		return options{}, errors.New("--once and --interval cannot be combined")
	case opts.interval == 0 && onceSet && !once:
		return options{}, errors.New("--once=false requires a positive --interval")
	}
	return opts, nil
}

func run() int {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ingest: %v\n", err)
		return 2
	}

	cfg, err := config.Load(config.Options{ConfigFile: opts.configFile, EnvFile: opts.envFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return 1
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ing, err := app.NewIngest(ctx, cfg, log, app.Options{})
	if err != nil {
		log.ErrorObj("startup failed", "ingest_startup_error", map[string]any{"error": err.Error()})
		return 1
	}
	defer func() { _ = ing.Close() }()

	if !opts.loop() {
		resp := ing.Handler.Handle(ctx)
		_ = json.NewEncoder(os.Stdout).Encode(resp)
		if resp.StatusCode != http.StatusOK {
			return 1
		}
		return 0
	}

	// Runs never overlap: the next poll starts only after the previous one returns.
	for {
		resp := ing.Handler.Handle(ctx)
		log.InfoObj("poll finished", "ingest_poll_done", map[string]any{
			"status_code": resp.StatusCode,
			"next_in":     opts.interval.String(),
		})

		select {
		case <-ctx.Done():
			log.InfoObj("shutting down", "ingest_shutdown", nil)
			return 0
		case <-time.After(opts.interval):
		}
	}
}
