package accessor

import (
	"strings"

	"github.com/dhocker/iex-localc/internal/fetcher"
	"github.com/dhocker/iex-localc/internal/iex"
)

// Category describes one IEX resource served by an Accessor.
type Category struct {
	// Name is used in messages, e.g. "Invalid quote key".
	Name string
	// Resource is the path segment after /stock/{symbol}/.
	Resource string
	// TimeKeys lists fields holding epoch-millisecond timestamps.
	TimeKeys []string
	// UsesRange marks resources addressed by a period range (dividends/1y).
	UsesRange bool
	// DefaultRange is the range used for the template record and for
	// requests that do not name one.
	DefaultRange string
	// Periods extracts the sequence of period records from a payload.
	// Nil for categories whose payload is a single flat record.
	Periods func(p fetcher.Payload) (fetcher.Payload, bool)
}

// Periodic reports whether items are addressed by a period index.
func (c Category) Periodic() bool { return c.Periods != nil }

// IsTimeKey reports whether key holds a timestamp.
func (c Category) IsTimeKey(key string) bool {
	for _, k := range c.TimeKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Path returns the REST path for symbol.
func (c Category) Path(symbol, periodRange string) string {
	if c.UsesRange {
		return iex.StockPath(symbol, c.Resource, periodRange)
	}
	return iex.StockPath(symbol, c.Resource)
}

// CacheKey returns the result cache key: the symbol, or symbol-range for
// range-addressed resources.
func (c Category) CacheKey(symbol, periodRange string) string {
	if c.UsesRange {
		return symbol + "-" + periodRange
	}
	return symbol
}

func (c Category) normalizeRange(periodRange string) string {
	if !c.UsesRange {
		return ""
	}
	periodRange = strings.ToLower(strings.TrimSpace(periodRange))
	if periodRange == "" {
		return c.DefaultRange
	}
	return periodRange
}

func rootArray(p fetcher.Payload) (fetcher.Payload, bool) {
	return p, p.IsArray()
}

func earningsArray(p fetcher.Payload) (fetcher.Payload, bool) {
	e, ok := p.Field("earnings")
	return e, ok && e.IsArray()
}

// The categories exposed as spreadsheet functions.
var (
	Quote = Category{
		Name:     "quote",
		Resource: "quote",
		TimeKeys: []string{
			"closeTime",
			"delayedPriceTime",
			"extendedPriceTime",
			"iexLastUpdated",
			"latestUpdate",
			"openTime",
		},
	}

	Company = Category{
		Name:     "company",
		Resource: "company",
	}

	KeyStats = Category{
		Name:     "stats",
		Resource: "stats",
	}

	Dividends = Category{
		Name:         "dividends",
		Resource:     "dividends",
		UsesRange:    true,
		DefaultRange: "1y",
		Periods:      rootArray,
	}

	Earnings = Category{
		Name:     "earnings",
		Resource: "earnings",
		Periods:  earningsArray,
	}
)
