package fetcher

import "net/http"

// Result represents the outcome of a fetch operation: either a status code
// with a decoded payload, or a status code with an error describing why no
// usable payload is available.
type Result struct {
	// Path is the request path the result was produced for
	Path string

	// StatusCode is the HTTP status returned by the remote API, or 0 when
	// no response was received.
	StatusCode int

	// Payload is the decoded JSON body. Only meaningful when OK reports true.
	Payload Payload

	// Err contains any error that occurred during the fetch operation.
	// If Err is not nil, Payload should be considered invalid.
	Err error
}

// OK reports whether the result carries a usable payload.
func (r Result) OK() bool {
	return r.Err == nil && r.StatusCode == http.StatusOK
}

// ErrorMessage returns the user-facing message for a failed result, or ""
// when the result is OK.
func (r Result) ErrorMessage() string {
	if r.OK() {
		return ""
	}
	if r.Err == nil {
		return StatusCodeMessage(r.StatusCode)
	}
	return Message(r.Err)
}
