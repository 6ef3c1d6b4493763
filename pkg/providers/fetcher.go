package providers

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Adda-Baaj/prism-news/pkg/httpclient"
)

type fetcherRegistry struct {
	fetchers map[string]Fetcher
	mu       sync.RWMutex
}

// NewFetcherRegistry builds a registry for the provided fetcher implementations.
func NewFetcherRegistry(fetchers ...Fetcher) FetcherRegistry {
	reg := &fetcherRegistry{
		fetchers: make(map[string]Fetcher, len(fetchers)),
	}

	for _, f := range fetchers {
		if f == nil {
			continue
		}
		reg.fetchers[strings.ToLower(strings.TrimSpace(f.ID()))] = f
	}

	return reg
}

// FetcherFor selects the fetcher for the given provider based on its type, falling back to
// its id. An empty type means newsapi.
func (r *fetcherRegistry) FetcherFor(cfg Provider) (Fetcher, error) {
	key := strings.ToLower(strings.TrimSpace(cfg.Type))
	if key == "" {
		key = ProviderTypeNewsAPI
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if f, ok := r.fetchers[key]; ok {
		return f, nil
	}
	if f, ok := r.fetchers[strings.ToLower(strings.TrimSpace(cfg.ID))]; ok {
		return f, nil
	}

	return nil, fmt.Errorf("no fetcher registered for provider %q (type %q)", cfg.ID, cfg.Type)
}

// DefaultHTTPClient returns a resty-backed client for provider fetchers. The per-request
// deadline comes from Provider.Timeout; this is only a backstop.
func DefaultHTTPClient() HTTPClient { return httpclient.NewRestyClient(15 * time.Second) }

// DefaultFetcherRegistry wires up the known provider fetchers.
func DefaultFetcherRegistry(client HTTPClient) FetcherRegistry {
	if client == nil {
		client = DefaultHTTPClient()
	}

	return NewFetcherRegistry(
		NewNewsAPIFetcher(client),
	)
}
