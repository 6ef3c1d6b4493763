package providers

import (
	"context"
	"strings"
	"time"

	"github.com/Adda-Baaj/prism-news/internal/domain"
	"github.com/Adda-Baaj/prism-news/pkg/httpclient"
)

const (
	// ProviderTypeNewsAPI is a JSON feed shaped like newsapi.org's top-headlines endpoint.
	ProviderTypeNewsAPI = "newsapi"

	DefaultSourceURL = "https://newsapi.org/v2/top-headlines?country=us"
	DefaultTimeout   = 8000 * time.Millisecond

	apiKeyQueryParam = "apiKey"
	apiKeyHeader     = "X-Api-Key"
)

// KeyMode selects how the feed credential travels with the request.
type KeyMode string

const (
	KeyModeQuery  KeyMode = "query"
	KeyModeHeader KeyMode = "header"
)

// HTTPClient is the client used by fetchers.
type HTTPClient = httpclient.Client

// Fetcher retrieves raw articles for one provider.
type Fetcher interface {
	ID() string
	Fetch(ctx context.Context, cfg Provider) ([]domain.RawArticle, error)
}

// FetcherRegistry resolves the fetcher for a provider config.
type FetcherRegistry interface {
	FetcherFor(cfg Provider) (Fetcher, error)
}

// Provider describes one feed endpoint. APIKey is filled in per run and never serialized.
type Provider struct {
	ID        string            `mapstructure:"id" yaml:"id"`
	Type      string            `mapstructure:"type" yaml:"type"`
	SourceURL string            `mapstructure:"source_url" yaml:"source_url"`
	KeyMode   KeyMode           `mapstructure:"key_mode" yaml:"key_mode"`
	UserAgent string            `mapstructure:"user_agent" yaml:"user_agent"`
	TimeoutMS int               `mapstructure:"timeout_ms" yaml:"timeout_ms"`
	Headers   map[string]string `mapstructure:"headers" yaml:"headers"`
	APIKey    string            `mapstructure:"-" yaml:"-"`
}

// Timeout returns the per-request deadline, defaulting to 8s.
func (p Provider) Timeout() time.Duration {
	if p.TimeoutMS <= 0 {
		return DefaultTimeout
	}
	return time.Duration(p.TimeoutMS) * time.Millisecond
}

// EffectiveKeyMode defaults to query-parameter delivery.
func (p Provider) EffectiveKeyMode() KeyMode {
	switch KeyMode(strings.ToLower(strings.TrimSpace(string(p.KeyMode)))) {
	case KeyModeHeader:
		return KeyModeHeader
	default:
		return KeyModeQuery
	}
}

// Headers builds the request headers for the provider: identifying client, JSON accept, any
// configured extras and the API key when header delivery is selected.
func Headers(cfg Provider) map[string]string {
	ua := strings.TrimSpace(cfg.UserAgent)
	if ua == "" {
		ua = httpclient.DefaultUserAgent
	}

	headers := make(map[string]string, len(cfg.Headers)+3)
	for k, v := range cfg.Headers {
		if k = strings.TrimSpace(k); k != "" {
			headers[k] = strings.TrimSpace(v)
		}
	}
	headers["User-Agent"] = ua
	headers["Accept"] = "application/json"
	if cfg.EffectiveKeyMode() == KeyModeHeader && cfg.APIKey != "" {
		headers[apiKeyHeader] = cfg.APIKey
	}
	return headers
}
