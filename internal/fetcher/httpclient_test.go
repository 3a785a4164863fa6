package fetcher

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryableStatus(t *testing.T) {
	tests := []struct {
		statusCode int
		want       bool
	}{
		{200, false},
		{302, false},
		{400, false},
		{404, false},
		{408, true},
		{429, true},
		{500, true},
		{503, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RetryableStatus(tt.statusCode), "status %d", tt.statusCode)
		if tt.statusCode >= 400 {
			assert.Equal(t, tt.want, ClassifyHTTPError(tt.statusCode, "").Retryable, "status %d", tt.statusCode)
		}
	}
}

// flakyServer fails the first failures requests with status, then answers 200.
func flakyServer(t *testing.T, status, failures int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if int(hits.Add(1)) <= failures {
			w.WriteHeader(status)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`1`))
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func TestNewHTTPClient_RetriesRetryableStatus(t *testing.T) {
	server, hits := flakyServer(t, http.StatusServiceUnavailable, 1)

	client := NewHTTPClient(server.URL, ClientOptions{RetryCount: 2})
	client.SetRetryWaitTime(time.Millisecond).SetRetryMaxWaitTime(5 * time.Millisecond)
	defer client.Close()

	resp, err := client.R().Get("/stock/IBM/price")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.EqualValues(t, 2, hits.Load())
}

func TestNewHTTPClient_DoesNotRetryClientError(t *testing.T) {
	server, hits := flakyServer(t, http.StatusNotFound, 1)

	client := NewHTTPClient(server.URL, ClientOptions{RetryCount: 2})
	client.SetRetryWaitTime(time.Millisecond).SetRetryMaxWaitTime(5 * time.Millisecond)
	defer client.Close()

	resp, err := client.R().Get("/stock/ZZZZ/price")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())
	assert.EqualValues(t, 1, hits.Load())
}
