package iex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/dhocker/iex-localc/internal/fetcher"
	"github.com/dhocker/iex-localc/internal/logging"
	"github.com/dhocker/iex-localc/internal/ratelimit"
)

func newTestClient(url string) *Client {
	return NewClient(url, Options{Log: logging.Nop()})
}

func TestStockPath(t *testing.T) {
	tests := []struct {
		symbol   string
		category []string
		want     string
	}{
		{"ibm", []string{"quote"}, "/stock/IBM/quote"},
		{"SO", []string{"dividends", "1y"}, "/stock/SO/dividends/1y"},
		{"aapl", []string{"chart", "3m"}, "/stock/AAPL/chart/3m"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, StockPath(tt.symbol, tt.category...))
		})
	}
}

func TestNewClient_DefaultBaseURL(t *testing.T) {
	c := NewClient("", Options{Log: logging.Nop()})
	require.NotNil(t, c)
	assert.NotNil(t, c.client)
	assert.NotNil(t, c.limiter)
}

func TestClient_Fetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stock/IBM/quote", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"symbol":"IBM","latestPrice":158.73}`))
	}))
	defer server.Close()

	res := newTestClient(server.URL).Fetch(context.Background(), "/stock/IBM/quote")
	require.True(t, res.OK(), res.ErrorMessage())
	assert.Equal(t, "/stock/IBM/quote", res.Path)

	price, ok := res.Payload.Field("latestPrice")
	require.True(t, ok)
	assert.Equal(t, 158.73, price.Value())
}

func TestClient_Fetch_BareNumber(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`143.5`))
	}))
	defer server.Close()

	res := newTestClient(server.URL).Fetch(context.Background(), "/stock/IBM/price")
	require.True(t, res.OK())
	f, ok := res.Payload.Float()
	require.True(t, ok)
	assert.Equal(t, 143.5, f)
}

func TestClient_Fetch_UnknownSymbol(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("Unknown symbol"))
	}))
	defer server.Close()

	res := newTestClient(server.URL).Fetch(context.Background(), "/stock/ZZZZ/quote")
	assert.False(t, res.OK())
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "Unknown symbol", res.ErrorMessage())

	var fe *fetcher.FetchError
	require.ErrorAs(t, res.Err, &fe)
	assert.Equal(t, fetcher.ErrorTypeClient, fe.Type)
}

func TestClient_Fetch_ServerErrorWithoutBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	res := newTestClient(server.URL).Fetch(context.Background(), "/stock/IBM/quote")
	assert.False(t, res.OK())
	assert.Equal(t, "Unexpected status code 500", res.ErrorMessage())
}

func TestClient_Fetch_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer server.Close()

	res := newTestClient(server.URL).Fetch(context.Background(), "/stock/IBM/quote")
	assert.False(t, res.OK())

	var fe *fetcher.FetchError
	require.ErrorAs(t, res.Err, &fe)
	assert.Equal(t, fetcher.ErrorTypeValidation, fe.Type)
}

func TestClient_Fetch_Token(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("token"))
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	c := NewClient(server.URL, Options{Token: "secret", Log: logging.Nop()})
	res := c.Fetch(context.Background(), "/stock/IBM/company")
	assert.True(t, res.OK())
}

func TestClient_Fetch_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := newTestClient(server.URL).Fetch(ctx, "/stock/IBM/quote")
	assert.False(t, res.OK())
	assert.Error(t, res.Err)
}

func TestClient_Fetch_RateLimitWaitFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	limiter := ratelimit.New(map[ratelimit.API]rate.Limit{ratelimit.APIIEX: rate.Every(time.Hour)})
	c := NewClient(server.URL, Options{Limiter: limiter, Log: logging.Nop()})

	require.True(t, c.Fetch(context.Background(), "/stock/IBM/quote").OK())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	res := c.Fetch(ctx, "/stock/IBM/quote")

	var fe *fetcher.FetchError
	require.ErrorAs(t, res.Err, &fe)
	assert.Equal(t, fetcher.ErrorTypeTimeout, fe.Type)
}
