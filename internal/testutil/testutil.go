package testutil

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/dhocker/iex-localc/internal/fetcher"
)

// MockFetcher is a mock implementation of the Fetcher interface for testing.
// It serves canned bodies by path and counts every call.
type MockFetcher struct {
	FetchFunc func(ctx context.Context, path string) fetcher.Result

	mu    sync.Mutex
	calls map[string]int
}

// Fetch implements the Fetcher interface
func (m *MockFetcher) Fetch(ctx context.Context, path string) fetcher.Result {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[path]++
	m.mu.Unlock()

	if m.FetchFunc != nil {
		return m.FetchFunc(ctx, path)
	}
	return fetcher.Result{Path: path, StatusCode: http.StatusNotFound, Err: fetcher.NewClientError(http.StatusNotFound, "Unknown symbol")}
}

// Calls returns how many times path was fetched.
func (m *MockFetcher) Calls(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[path]
}

// TotalCalls returns the number of fetches across all paths.
func (m *MockFetcher) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		n += c
	}
	return n
}

// NewMockFetcher creates a mock that answers each path in bodies with HTTP
// 200 and that body; any other path gets a 404 "Unknown symbol".
func NewMockFetcher(bodies map[string]string) *MockFetcher {
	return &MockFetcher{
		FetchFunc: func(ctx context.Context, path string) fetcher.Result {
			body, ok := bodies[path]
			if !ok {
				return fetcher.Result{
					Path:       path,
					StatusCode: http.StatusNotFound,
					Err:        fetcher.NewClientError(http.StatusNotFound, "Unknown symbol"),
				}
			}
			return fetcher.Result{Path: path, StatusCode: http.StatusOK, Payload: fetcher.MustParsePayload(body)}
		},
	}
}

// FakeIEX is an httptest server that answers IEX paths with canned JSON.
type FakeIEX struct {
	*httptest.Server

	mu     sync.Mutex
	bodies map[string]string
	hits   map[string]int
}

// NewFakeIEX starts a fake IEX API. Unknown paths get 404 "Unknown symbol".
func NewFakeIEX(bodies map[string]string) *FakeIEX {
	f := &FakeIEX{
		bodies: make(map[string]string, len(bodies)),
		hits:   make(map[string]int),
	}
	for k, v := range bodies {
		f.bodies[k] = v
	}

	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimSuffix(r.URL.Path, "/")

		f.mu.Lock()
		f.hits[path]++
		body, ok := f.bodies[path]
		f.mu.Unlock()

		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte("Unknown symbol"))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(body))
	}))
	return f
}

// Set replaces the body served for path.
func (f *FakeIEX) Set(path, body string) {
	f.mu.Lock()
	f.bodies[path] = body
	f.mu.Unlock()
}

// Hits returns how many requests path received.
func (f *FakeIEX) Hits(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}
