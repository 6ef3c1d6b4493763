package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Adda-Baaj/prism-news/internal/apperr"
	"github.com/Adda-Baaj/prism-news/internal/domain"
)

const feedStatusError = "error"

// newsAPIFetcher fetches a NewsAPI-style JSON headline feed.
type newsAPIFetcher struct {
	client HTTPClient
}

// NewNewsAPIFetcher builds a Fetcher for NewsAPI-style JSON feeds.
func NewNewsAPIFetcher(client HTTPClient) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &newsAPIFetcher{client: client}
}

func (f *newsAPIFetcher) ID() string {
	return ProviderTypeNewsAPI
}

// newsAPIResponse covers both the success shape ({articles: [...]}) and the error shape
// ({status: "error", code, message}).
type newsAPIResponse struct {
	Status       string               `json:"status"`
	Code         string               `json:"code"`
	Message      string               `json:"message"`
	TotalResults int                  `json:"totalResults"`
	Articles     *[]domain.RawArticle `json:"articles"`
}

// Fetch performs one GET against the provider within its timeout. It never retries.
func (f *newsAPIFetcher) Fetch(ctx context.Context, cfg Provider) ([]domain.RawArticle, error) {
	id := cfg.ID
	if strings.TrimSpace(id) == "" {
		id = ProviderTypeNewsAPI
	}

	target, err := feedURL(cfg)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindConfiguration, fmt.Sprintf("%s provider misconfigured", id), err)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()

	resp, err := f.client.Get(ctx, target, Headers(cfg))
	if err != nil {
		return nil, classifyTransportError(ctx, id, err)
	}

	body := resp.Body()
	if !resp.IsSuccess() {
		return nil, apperr.Upstream(resp.StatusCode(), string(body))
	}

	var parsed newsAPIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, apperr.Wrap(apperr.KindMalformedResponse,
			fmt.Sprintf("decode %s response: body %s", id, responseSnippet(body)), err)
	}

	if strings.EqualFold(parsed.Status, feedStatusError) {
		msg := strings.TrimSpace(parsed.Message)
		if msg == "" {
			msg = "feed reported an error"
		}
		if parsed.Code != "" {
			msg = fmt.Sprintf("%s: %s", parsed.Code, msg)
		}
		return nil, apperr.New(apperr.KindInvalidResponse, msg)
	}
	if parsed.Articles == nil {
		return nil, apperr.New(apperr.KindInvalidResponse, "invalid feed response: no articles found")
	}

	return *parsed.Articles, nil
}
