package publishers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/prism-news/pkg/httpclient"
)

// httpPublisher posts the record payload to a webhook.
type httpPublisher struct {
	id      string
	typ     string
	url     string
	method  string
	headers map[string]string
	client  httpclient.Client
	log     Logger
}

func newHTTPPublisher(_ context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.HTTP == nil {
		return nil, fmt.Errorf("publisher %q missing http configuration", cfg.ID)
	}
	timeout := time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = httpDefaultTimeoutSeconds * time.Second
	}
	return newHTTPPublisherWithClient(cfg, httpclient.NewRestyClient(timeout), log), nil
}

func newHTTPPublisherWithClient(cfg PublisherConfig, client httpclient.Client, log Logger) *httpPublisher {
	method := cfg.HTTP.Method
	if method == "" {
		method = httpDefaultMethod
	}
	return &httpPublisher{
		id:      cfg.ID,
		typ:     cfg.Type,
		url:     cfg.HTTP.URL,
		method:  method,
		headers: cfg.HTTP.Headers,
		client:  client,
		log:     ensureLogger(log),
	}
}

func (p *httpPublisher) ID() string   { return p.id }
func (p *httpPublisher) Type() string { return p.typ }

// Publish sends the record JSON; any non-2xx answer is a failure.
func (p *httpPublisher) Publish(ctx context.Context, evt Event) error {
	payload, err := evt.Payload()
	if err != nil {
		return err
	}

	headers := make(map[string]string, len(p.headers)+3)
	for k, v := range p.headers {
		headers[k] = v
	}
	headers["Content-Type"] = "application/json"
	headers["X-Event-Source"] = evt.Source
	headers["X-Event-Detail-Type"] = evt.DetailType

	resp, err := p.client.Do(ctx, p.method, p.url, headers, payload)
	if err != nil {
		return fmt.Errorf("http publish: %w", err)
	}
	if !resp.IsSuccess() {
		body := strings.TrimSpace(string(resp.Body()))
		if len(body) > 256 {
			body = body[:256]
		}
		return fmt.Errorf("http publish returned status %d body: %s", resp.StatusCode(), body)
	}

	p.log.DebugObj("http publisher delivered event", "publisher_http_delivery", map[string]any{
		"publisher_id": p.id,
		"status":       resp.StatusCode(),
	})
	return nil
}
