package providers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/Adda-Baaj/prism-news/internal/apperr"
)

// responseSnippet returns a truncated snippet of the response body for logging.
func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}

// feedURL resolves the request URL, attaching the API key as a query parameter when the
// provider uses query delivery.
func feedURL(cfg Provider) (string, error) {
	raw := strings.TrimSpace(cfg.SourceURL)
	if raw == "" {
		raw = DefaultSourceURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse source_url %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("source_url %q must be absolute", raw)
	}

	if cfg.EffectiveKeyMode() == KeyModeQuery && cfg.APIKey != "" {
		q := u.Query()
		q.Set(apiKeyQueryParam, cfg.APIKey)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// isTimeout reports whether err came from an exceeded deadline, either ours or the
// transport's.
func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// classifyTransportError maps a failed round trip onto the error taxonomy.
func classifyTransportError(ctx context.Context, providerID string, err error) error {
	if isTimeout(ctx, err) {
		return apperr.Wrap(apperr.KindTimeout, fmt.Sprintf("%s request timed out", providerID), err)
	}
	return apperr.Wrap(apperr.KindUpstream, fmt.Sprintf("fetch %s feed", providerID), err)
}
