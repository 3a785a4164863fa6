// Package iex is the client for the IEX stock data REST API.
package iex

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"resty.dev/v3"

	"github.com/dhocker/iex-localc/internal/fetcher"
	"github.com/dhocker/iex-localc/internal/metrics"
	"github.com/dhocker/iex-localc/internal/ratelimit"
)

// DefaultBaseURL is the public IEX API root.
const DefaultBaseURL = "https://api.iextrading.com/1.0"

// Client fetches IEX resources. It implements fetcher.Fetcher.
type Client struct {
	token   string
	client  *resty.Client
	limiter *ratelimit.Limiter
	metrics *metrics.Metrics
	log     zerolog.Logger
}

// Options configures a Client.
type Options struct {
	Token      string
	RetryCount int
	// Timeout per request; ten seconds when zero.
	Timeout time.Duration
	Limiter    *ratelimit.Limiter
	Metrics    *metrics.Metrics
	Log        zerolog.Logger
}

// NewClient creates a new IEX client rooted at baseURL.
func NewClient(baseURL string, opts Options) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimit.Unlimited()
	}

	return &Client{
		token:   opts.Token,
		client:  fetcher.NewHTTPClient(strings.TrimRight(baseURL, "/"), fetcher.ClientOptions{RetryCount: opts.RetryCount, Timeout: opts.Timeout}),
		limiter: limiter,
		metrics: opts.Metrics,
		log:     opts.Log.With().Str("component", "iex").Logger(),
	}
}

// StockPath builds the path of a per-symbol resource, e.g.
// StockPath("so", "dividends", "1y") is /stock/SO/dividends/1y.
func StockPath(symbol string, category ...string) string {
	parts := append([]string{"stock", strings.ToUpper(symbol)}, category...)
	return "/" + strings.Join(parts, "/")
}

// Fetch performs one GET for path and wraps the outcome.
func (c *Client) Fetch(ctx context.Context, path string) fetcher.Result {
	res := fetcher.Result{Path: path}

	if !c.limiter.Allow(ratelimit.APIIEX) {
		c.log.Debug().Str("path", path).Msg("throttled")
		if err := c.limiter.Wait(ctx, ratelimit.APIIEX); err != nil {
			res.Err = fetcher.NewTimeoutError(err)
			return res
		}
	}

	req := c.client.R().SetContext(ctx)
	if c.token != "" {
		req.SetQueryParam("token", c.token)
	}

	resp, err := req.Get(path)
	if err != nil {
		c.metrics.UpstreamRequest(0)
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			res.Err = fetcher.NewTimeoutError(err)
		} else {
			res.Err = fetcher.NewNetworkError(err)
		}
		c.log.Error().Err(err).Str("path", path).Msg("request failed")
		return res
	}

	res.StatusCode = resp.StatusCode()
	c.metrics.UpstreamRequest(res.StatusCode)

	if res.StatusCode != http.StatusOK {
		res.Err = fetcher.ClassifyHTTPError(res.StatusCode, resp.String())
		c.log.Error().
			Str("path", path).
			Int("status_code", res.StatusCode).
			Str("message", fetcher.Message(res.Err)).
			Msg("unexpected status code")
		return res
	}

	payload, err := fetcher.ParsePayload(resp.Bytes())
	if err != nil {
		res.Err = fetcher.NewValidationError(fmt.Sprintf("invalid response for %s", path))
		c.log.Error().Err(err).Str("path", path).Msg("invalid response body")
		return res
	}
	res.Payload = payload

	c.log.Debug().Str("path", path).Msg("fetched")
	return res
}

// Close releases the underlying HTTP client.
func (c *Client) Close() error {
	return c.client.Close()
}
