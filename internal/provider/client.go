package provider

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/time/rate"
)

// Client wraps http.Client with request smoothing and retry on
// transport failure. Provider-error responses are returned to the
// caller untouched; only failures to get any response are retried.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries uint64
}

// ClientOptions configures a provider HTTP client.
type ClientOptions struct {
	Timeout        time.Duration
	RequestsPerSec int
	MaxRetries     int
	Proxy          string
}

// NewClient creates a rate-limited HTTP client with sane defaults.
func NewClient(opts ClientOptions) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RequestsPerSec == 0 {
		opts.RequestsPerSec = 5
	}
	transport := &http.Transport{}
	if opts.Proxy != "" {
		if u, err := url.Parse(opts.Proxy); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSec), opts.RequestsPerSec),
		maxRetries: uint64(opts.MaxRetries),
	}
}

// Do performs the request, waiting on the rate limiter first and
// retrying transport errors with exponential backoff.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var resp *http.Response
	operation := func() error {
		r, err := c.httpClient.Do(req.WithContext(ctx))
		if err != nil {
			return err
		}
		resp = r
		return nil
	}

	strategy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx)
	if err := backoff.Retry(operation, strategy); err != nil {
		return nil, err
	}
	return resp, nil
}
