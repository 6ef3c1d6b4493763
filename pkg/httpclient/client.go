package httpclient

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client is the minimal HTTP surface used by feed fetchers and webhook publishers.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (*resty.Response, error)
	Post(ctx context.Context, url string, headers map[string]string, body []byte) (*resty.Response, error)
	Do(ctx context.Context, method, url string, headers map[string]string, body []byte) (*resty.Response, error)
}

type restyClient struct {
	rc *resty.Client
}

// NewRestyClient builds a Client with the given overall request timeout. Retries are disabled;
// callers own retry policy.
func NewRestyClient(timeout time.Duration) Client {
	rc := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", DefaultUserAgent)
	return &restyClient{rc: rc}
}

// DefaultUserAgent identifies the service to upstream APIs.
const DefaultUserAgent = "Prism-News/1.0"

func (c *restyClient) Get(ctx context.Context, url string, headers map[string]string) (*resty.Response, error) {
	return c.Do(ctx, resty.MethodGet, url, headers, nil)
}

func (c *restyClient) Post(ctx context.Context, url string, headers map[string]string, body []byte) (*resty.Response, error) {
	return c.Do(ctx, resty.MethodPost, url, headers, body)
}

func (c *restyClient) Do(ctx context.Context, method, url string, headers map[string]string, body []byte) (*resty.Response, error) {
	req := c.rc.R().SetContext(ctx).SetHeaders(headers)
	if body != nil {
		req.SetBody(body)
	}
	return req.Execute(method, url)
}
