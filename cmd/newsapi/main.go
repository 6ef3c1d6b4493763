package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/Adda-Baaj/prism-news/internal/api"
	"github.com/Adda-Baaj/prism-news/internal/config"
	"github.com/Adda-Baaj/prism-news/internal/logger"
	"github.com/Adda-Baaj/prism-news/internal/store"
)

func main() {
	configFile := pflag.StringP("config", "c", "", "path to a config file (yaml, json, toml)")
	envFile := pflag.String("env-file", "", "path to a .env file (default: ./.env when present)")
	pflag.Parse()

	cfg, err := config.Load(config.Options{ConfigFile: *configFile, EnvFile: *envFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.New(ctx, cfg.Store, log)
	if err != nil {
		log.ErrorObj("open store failed", "api_startup_error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer func() { _ = st.Close() }()

	if err := api.NewServer(cfg.API, st, log).Start(ctx); err != nil {
		log.ErrorObj("read api stopped", "api_stopped", map[string]any{"error": err.Error()})
		stop()
		_ = st.Close()
		os.Exit(1)
	}
}
