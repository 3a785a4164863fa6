package fetcher

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyHTTPError(t *testing.T) {
	tests := []struct {
		name        string
		statusCode  int
		body        string
		wantType    ErrorType
		wantRetry   bool
		wantMessage string
	}{
		{"rate limit", 429, "Too many requests", ErrorTypeRateLimit, true, "Too many requests"},
		{"server error", 503, "", ErrorTypeServer, true, "Unexpected status code 503"},
		{"request timeout", 408, "", ErrorTypeClient, true, "Unexpected status code 408"},
		{"unknown symbol", 404, "Unknown symbol\n", ErrorTypeClient, false, "Unknown symbol"},
		{"bad request", 400, "  ", ErrorTypeClient, false, "Unexpected status code 400"},
		{"redirect", 302, "", ErrorTypeUnknown, false, "Unexpected status code 302"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClassifyHTTPError(tt.statusCode, tt.body)
			assert.Equal(t, tt.wantType, err.Type)
			assert.Equal(t, tt.wantRetry, err.Retryable)
			assert.Equal(t, tt.statusCode, err.StatusCode)
			assert.Equal(t, tt.wantMessage, err.Message)
		})
	}
}

func TestFetchError_Error(t *testing.T) {
	err := NewClientError(404, "Unknown symbol")
	assert.Equal(t, "client error (status 404): Unknown symbol", err.Error())

	err = NewValidationError("response is not valid JSON")
	assert.Equal(t, "validation error: response is not valid JSON", err.Error())
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "", Message(nil))
	assert.Equal(t, "Unknown symbol", Message(NewClientError(404, "Unknown symbol")))

	wrapped := fmt.Errorf("quote: %w", NewServerError(500, "boom"))
	assert.Equal(t, "boom", Message(wrapped))

	assert.Equal(t, "plain", Message(errors.New("plain")))
}

func TestNetworkErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewNetworkError(cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "network request failed: connection refused", err.Message)
}

func TestResultErrorMessage(t *testing.T) {
	ok := Result{StatusCode: 200, Payload: MustParsePayload(`{}`)}
	assert.True(t, ok.OK())
	assert.Equal(t, "", ok.ErrorMessage())

	bare := Result{StatusCode: 500}
	assert.False(t, bare.OK())
	assert.Equal(t, "Unexpected status code 500", bare.ErrorMessage())

	failed := Result{StatusCode: 404, Err: NewClientError(404, "Unknown symbol")}
	assert.Equal(t, "Unknown symbol", failed.ErrorMessage())
}
