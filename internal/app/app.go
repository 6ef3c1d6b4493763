// Package app assembles the long-lived collaborators shared by the binaries.
package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/Adda-Baaj/prism-news/internal/config"
	"github.com/Adda-Baaj/prism-news/internal/handler"
	"github.com/Adda-Baaj/prism-news/internal/ingest"
	"github.com/Adda-Baaj/prism-news/internal/logger"
	"github.com/Adda-Baaj/prism-news/internal/normalizer"
	"github.com/Adda-Baaj/prism-news/internal/store"
	"github.com/Adda-Baaj/prism-news/pkg/providers"
	"github.com/Adda-Baaj/prism-news/pkg/publishers"
)

// Ingest holds everything one ingestion process needs.
type Ingest struct {
	Handler *handler.Handler
	Store   store.Store
}

// Close releases the store.
func (i *Ingest) Close() error {
	if i == nil || i.Store == nil {
		return nil
	}
	return i.Store.Close()
}

// Options override collaborators, mostly for tests.
type Options struct {
	HTTPClient providers.HTTPClient
	Publishers publishers.Registry
	Credential handler.CredentialFunc
}

// NewIngest builds the store, notifier, fetcher and pipeline from cfg.
func NewIngest(ctx context.Context, cfg *config.Config, log logger.Logger, opts Options) (*Ingest, error) {
	log = logger.Ensure(log)
	if opts.HTTPClient == nil {
		opts.HTTPClient = providers.DefaultHTTPClient()
	}
	if opts.Publishers == nil {
		opts.Publishers = publishers.DefaultRegistry()
	}
	if opts.Credential == nil {
		opts.Credential = config.Credential
	}

	fetcher, err := providers.DefaultFetcherRegistry(opts.HTTPClient).FetcherFor(cfg.Feed)
	if err != nil {
		return nil, err
	}

	pubCfgs, err := publisherConfigs(cfg)
	if err != nil {
		return nil, err
	}
	notifier, err := publishers.BuildNotifier(ctx, opts.Publishers, pubCfgs, log)
	if err != nil {
		return nil, fmt.Errorf("build notifier: %w", err)
	}

	st, err := store.New(ctx, cfg.Store, log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	pipeline, err := ingest.New(cfg.Feed, ingest.Deps{
		Fetcher:    fetcher,
		Store:      st,
		Notifier:   notifier,
		Normalizer: normalizer.New(nil),
		Log:        log,
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	log.InfoObj("ingest wired", "app_wired", map[string]any{
		"feed":       cfg.Feed.SourceURL,
		"key_mode":   string(cfg.Feed.EffectiveKeyMode()),
		"store":      cfg.Store.Backend,
		"publishers": notifier.Publishers(),
	})

	return &Ingest{
		Handler: handler.New(pipeline, opts.Credential, log),
		Store:   st,
	}, nil
}

// publisherConfigs reads the publishers file, or falls back to a single EventBridge
// publisher on the default bus.
func publisherConfigs(cfg *config.Config) ([]publishers.PublisherConfig, error) {
	if strings.TrimSpace(cfg.PublishersFile) == "" {
		return []publishers.PublisherConfig{publishers.DefaultEventBridgeConfig(cfg.AWSRegion)}, nil
	}
	reg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, err
	}
	return reg.Enabled(), nil
}
