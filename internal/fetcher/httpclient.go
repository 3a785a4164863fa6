package fetcher

import (
	"time"

	"github.com/rs/zerolog/log"
	"resty.dev/v3"
)

const (
	// Default retry configuration. Retries are off unless configured.
	defaultRetryCount       = 0
	defaultRetryWaitTime    = 1 * time.Second
	defaultRetryMaxWaitTime = 10 * time.Second
	defaultTimeout          = 10 * time.Second
)

// ClientOptions tunes the HTTP client built by NewHTTPClient.
type ClientOptions struct {
	RetryCount int
	Timeout    time.Duration
}

// NewHTTPClient creates a new HTTP client for the remote data API.
// When opts.RetryCount is positive, failed requests are retried with
// exponential backoff.
func NewHTTPClient(baseURL string, opts ClientOptions) *resty.Client {
	if opts.RetryCount < 0 {
		opts.RetryCount = defaultRetryCount
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.RetryCount).
		SetRetryWaitTime(defaultRetryWaitTime).
		SetRetryMaxWaitTime(defaultRetryMaxWaitTime).
		AddRetryConditions(retryCondition).
		AddRetryHooks(retryHook)

	return client
}

// retryCondition determines whether a request should be retried based on the response and error
func retryCondition(r *resty.Response, err error) bool {
	// Retry on network errors
	if err != nil {
		return true
	}
	return RetryableStatus(r.StatusCode())
}

// RetryableStatus reports whether a response with statusCode is worth
// retrying, as decided by its FetchError classification.
func RetryableStatus(statusCode int) bool {
	if statusCode < 400 {
		return false
	}
	return ClassifyHTTPError(statusCode, "").Retryable
}

// retryHook logs retry attempts for observability
func retryHook(r *resty.Response, err error) {
	if err != nil {
		log.Debug().
			Str("url", r.Request.URL).
			Int("attempt", r.Request.Attempt).
			Err(err).
			Msg("retrying request due to error")
		return
	}

	log.Debug().
		Str("url", r.Request.URL).
		Int("attempt", r.Request.Attempt).
		Int("status_code", r.StatusCode()).
		Msg("retrying request due to status code")
}
