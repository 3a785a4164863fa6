// Package accessor exposes one IEX resource category as a flat, index-addressable
// set of fields so a caller without a map type can enumerate it.
package accessor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/dhocker/iex-localc/internal/cache"
	"github.com/dhocker/iex-localc/internal/fetcher"
	"github.com/dhocker/iex-localc/internal/metrics"
)

// TemplateSymbol is the symbol whose record defines a category's key sequence.
const TemplateSymbol = "IBM"

// Options configures an Accessor.
type Options struct {
	// Cache holds fetched results; a fresh cache with DefaultTTL is used when nil.
	Cache *cache.ResultCache
	// Location converts timestamps; time.Local when nil.
	Location *time.Location
	Metrics  *metrics.Metrics
	Log      zerolog.Logger
}

// Accessor serves one Category with result caching and key enumeration.
type Accessor struct {
	cat     Category
	fetcher fetcher.Fetcher
	cache   *cache.ResultCache
	loc     *time.Location
	metrics *metrics.Metrics
	log     zerolog.Logger

	group singleflight.Group

	keysMu sync.Mutex
	keys   []string
}

// New creates an accessor for cat that fetches through f.
func New(cat Category, f fetcher.Fetcher, opts Options) *Accessor {
	c := opts.Cache
	if c == nil {
		c = cache.New(cache.DefaultTTL, nil)
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	return &Accessor{
		cat:     cat,
		fetcher: f,
		cache:   c,
		loc:     loc,
		metrics: opts.Metrics,
		log:     opts.Log.With().Str("component", "accessor").Str("category", cat.Name).Logger(),
	}
}

// Category returns the descriptor this accessor serves.
func (a *Accessor) Category() Category { return a.cat }

// Fetch returns the result for symbol (and period range, for range-addressed
// categories) from the cache, or performs exactly one request on a miss.
// Only HTTP 200 results are cached; failures are returned as-is.
func (a *Accessor) Fetch(ctx context.Context, symbol, periodRange string) fetcher.Result {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	periodRange = a.cat.normalizeRange(periodRange)
	key := a.cat.CacheKey(symbol, periodRange)

	if res, ok := a.cache.Get(key); ok {
		a.metrics.CacheLookup(a.cat.Name, true)
		a.log.Debug().Str("key", key).Msg("cache hit")
		return res
	}
	a.metrics.CacheLookup(a.cat.Name, false)
	a.log.Debug().Str("key", key).Msg("cache miss")

	// Concurrent misses for one key share a single request. The request is
	// detached from the first caller's cancellation; each caller still
	// stops waiting when its own context ends.
	path := a.cat.Path(symbol, periodRange)
	ch := a.group.DoChan(key, func() (v any, err error) {
		// The shared request runs on its own goroutine, where a panic
		// could not reach the caller's recover.
		defer func() {
			if r := recover(); r != nil {
				a.log.Error().Str("key", key).Interface("panic", r).Msg("fetch panicked")
				v = fetcher.Result{Path: path, Err: errors.New(fmt.Sprint(r))}
			}
		}()
		if res, ok := a.cache.Get(key); ok {
			return res, nil
		}
		res := a.fetcher.Fetch(context.WithoutCancel(ctx), path)
		if res.OK() {
			a.cache.Put(key, res)
			a.log.Debug().Str("key", key).Msg("cached")
		}
		return res, nil
	})

	select {
	case r := <-ch:
		return r.Val.(fetcher.Result)
	case <-ctx.Done():
		return fetcher.Result{Path: path, Err: fetcher.NewTimeoutError(ctx.Err())}
	}
}

// record selects the record holding the fields: the payload itself, or the
// period-th element of its period sequence.
func (a *Accessor) record(p fetcher.Payload, period int) (fetcher.Payload, error) {
	if !a.cat.Periodic() {
		return p, nil
	}
	periods, ok := a.cat.Periods(p)
	if !ok {
		return fetcher.Payload{}, ErrNoPeriods
	}
	rec, ok := periods.Index(period)
	if !ok {
		return fetcher.Payload{}, ErrIndexOutOfRange
	}
	return rec, nil
}

func (a *Accessor) templateRecord(ctx context.Context) (fetcher.Payload, error) {
	res := a.Fetch(ctx, TemplateSymbol, a.cat.DefaultRange)
	if !res.OK() {
		return fetcher.Payload{}, resultError(res)
	}
	return a.record(res.Payload, 0)
}

// Keys returns the category's field names, sorted case-insensitively and
// without duplicates. The sequence is computed once from the template
// symbol and then kept for the accessor's lifetime.
func (a *Accessor) Keys(ctx context.Context) ([]string, error) {
	a.keysMu.Lock()
	keys := a.keys
	a.keysMu.Unlock()
	if keys != nil {
		return keys, nil
	}

	rec, err := a.templateRecord(ctx)
	if err != nil {
		return nil, err
	}
	keys = sortKeys(rec.Keys())
	if len(keys) == 0 {
		return nil, ErrKeysUnavailable
	}

	a.keysMu.Lock()
	defer a.keysMu.Unlock()
	if a.keys == nil {
		a.keys = keys
	}
	return a.keys, nil
}

func sortKeys(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	sort.SliceStable(out, func(i, j int) bool {
		li, lj := strings.ToLower(out[i]), strings.ToLower(out[j])
		if li != lj {
			return li < lj
		}
		return out[i] < out[j]
	})
	return out
}

// KeyCount returns the number of keys in the key sequence.
func (a *Accessor) KeyCount(ctx context.Context) (int, error) {
	keys, err := a.Keys(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// KeyAt returns the index-th key of the sorted key sequence.
func (a *Accessor) KeyAt(ctx context.Context, index int) (string, error) {
	keys, err := a.Keys(ctx)
	if err != nil {
		return "", ErrKeysUnavailable
	}
	if index < 0 || index >= len(keys) {
		return "", ErrIndexOutOfRange
	}
	return keys[index], nil
}

// IsValidKey reports whether key belongs to the category's key sequence.
func (a *Accessor) IsValidKey(ctx context.Context, key string) (bool, error) {
	keys, err := a.Keys(ctx)
	if err != nil {
		return false, err
	}
	i := sort.Search(len(keys), func(i int) bool {
		return strings.ToLower(keys[i]) >= strings.ToLower(key)
	})
	for ; i < len(keys) && strings.EqualFold(keys[i], key); i++ {
		if keys[i] == key {
			return true, nil
		}
	}
	return false, nil
}

// Item returns field key of symbol's record. For periodic categories period
// selects the record (0 is the most recent) and periodRange the window;
// both are ignored otherwise.
func (a *Accessor) Item(ctx context.Context, symbol, key string, period int, periodRange string) (any, error) {
	valid, err := a.IsValidKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if !valid {
		return nil, &InvalidKeyError{Category: a.cat.Name}
	}

	res := a.Fetch(ctx, symbol, periodRange)
	if !res.OK() {
		return nil, resultError(res)
	}

	rec, err := a.record(res.Payload, period)
	if err != nil {
		return nil, err
	}
	v, ok := rec.Field(key)
	if !ok {
		return NotAvailable, nil
	}
	return Shape(v, a.cat.IsTimeKey(key), a.loc), nil
}

// PeriodCount returns the number of period records for symbol in periodRange.
func (a *Accessor) PeriodCount(ctx context.Context, symbol, periodRange string) (int, error) {
	if !a.cat.Periodic() {
		return 0, ErrNoPeriods
	}
	res := a.Fetch(ctx, symbol, periodRange)
	if !res.OK() {
		return 0, resultError(res)
	}
	periods, ok := a.cat.Periods(res.Payload)
	if !ok {
		return 0, ErrNoPeriods
	}
	return periods.Len(), nil
}
