package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// API represents the different external APIs we interact with
type API string

const (
	// APIIEX represents the IEX stock data API
	APIIEX API = "iex"
)

// DefaultIEXLimit is a conservative request rate for the IEX API.
const DefaultIEXLimit = rate.Limit(10)

// Limiter manages rate limits for different APIs
type Limiter struct {
	limiters map[API]*rate.Limiter
	mu       sync.RWMutex
}

// New creates a limiter with one token bucket (burst 1) per API. A limit of
// rate.Inf disables limiting for that API; APIs not listed are unlimited.
func New(limits map[API]rate.Limit) *Limiter {
	l := &Limiter{
		limiters: make(map[API]*rate.Limiter, len(limits)),
	}
	for api, limit := range limits {
		l.limiters[api] = rate.NewLimiter(limit, 1)
	}
	return l
}

// Unlimited returns a limiter that never blocks. Intended for tests.
func Unlimited() *Limiter {
	return New(map[API]rate.Limit{APIIEX: rate.Inf})
}

// Wait blocks until the rate limiter permits an event for the given API
// It returns an error if the context is canceled before the event can proceed
func (l *Limiter) Wait(ctx context.Context, api API) error {
	l.mu.RLock()
	limiter, exists := l.limiters[api]
	l.mu.RUnlock()

	if !exists {
		// If no limiter exists for this API, allow the request without limiting
		return nil
	}

	return limiter.Wait(ctx)
}

// Allow reports whether an event for the given API may happen now
func (l *Limiter) Allow(api API) bool {
	l.mu.RLock()
	limiter, exists := l.limiters[api]
	l.mu.RUnlock()

	if !exists {
		// If no limiter exists for this API, allow the request
		return true
	}

	return limiter.Allow()
}
