// Package history answers lookups whose results never change once known:
// the closing price of a symbol on a past date and the trailing twelve
// month dividend total for a calculation date.
package history

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/dhocker/iex-localc/internal/accessor"
	"github.com/dhocker/iex-localc/internal/cache"
	"github.com/dhocker/iex-localc/internal/fetcher"
	"github.com/dhocker/iex-localc/internal/iex"
	"github.com/dhocker/iex-localc/internal/store"
)

// ErrNotFound is returned when the chart window has no entry for the date.
var ErrNotFound = errors.New("Not found")

// ttmPeriods is how many dividend periods make up the trailing total.
const ttmPeriods = 4

// Options configures a Service.
type Options struct {
	Store *store.Store
	// Dividends serves dividend items for TrailingDividends.
	Dividends *accessor.Accessor
	Clock     cache.Clock
	Location  *time.Location
	Log       zerolog.Logger
}

// Service resolves historical lookups through the durable cache.
type Service struct {
	fetcher   fetcher.Fetcher
	store     *store.Store
	dividends *accessor.Accessor
	clock     cache.Clock
	loc       *time.Location
	log       zerolog.Logger
}

// NewService creates a Service fetching chart data through f.
func NewService(f fetcher.Fetcher, opts Options) *Service {
	s := &Service{
		fetcher:   f,
		store:     opts.Store,
		dividends: opts.Dividends,
		clock:     opts.Clock,
		loc:       opts.Location,
		log:       opts.Log.With().Str("component", "history").Logger(),
	}
	if s.store == nil {
		s.store = store.Disabled()
	}
	if s.dividends == nil {
		s.dividends = accessor.New(accessor.Dividends, f, accessor.Options{Log: opts.Log})
	}
	if s.clock == nil {
		s.clock = cache.SystemClock{}
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	return s
}

func (s *Service) now() time.Time {
	return s.clock.Now().In(s.loc)
}

// ClosingPrice returns the closing price of symbol on date (YYYY-MM-DD).
// Cached prices are returned without a request; otherwise the smallest chart
// window holding the date is fetched and scanned, and a match is cached.
func (s *Service) ClosingPrice(ctx context.Context, symbol, date string) (float64, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	if price, ok := s.store.LookupClose(ctx, symbol, date); ok {
		s.log.Debug().Str("symbol", symbol).Str("date", date).Float64("close", price).Msg("closing price cache hit")
		return price, nil
	}

	days, err := DaysSince(date, s.now())
	if err != nil {
		return 0, err
	}
	window := WindowFor(days)

	res := s.fetcher.Fetch(ctx, iex.StockPath(symbol, "chart", window))
	if !res.OK() {
		if res.Err != nil {
			return 0, res.Err
		}
		return 0, fetcher.ClassifyHTTPError(res.StatusCode, "")
	}

	for _, day := range res.Payload.Elements() {
		d, ok := day.Field("date")
		if !ok || d.String() != date {
			continue
		}
		c, ok := day.Field("close")
		if !ok {
			break
		}
		price, ok := c.Float()
		if !ok {
			break
		}
		s.store.InsertClose(ctx, symbol, date, price)
		s.log.Debug().Str("symbol", symbol).Str("date", date).Float64("close", price).Msg("closing price cached")
		return price, nil
	}

	s.log.Error().Str("symbol", symbol).Str("date", date).Str("window", window).Msg("chart data for date was not found")
	return 0, ErrNotFound
}

// TrailingDividends sums the amount of the four most recent dividends in the
// one year window. The window must hold at least four periods; with fewer,
// the period lookup error is returned.
func (s *Service) TrailingDividends(ctx context.Context, symbol string) (float64, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	calcDate := s.now().Format(ISODate)

	if amount, ok := s.store.LookupTTMDividend(ctx, symbol, calcDate); ok {
		return amount, nil
	}

	total := decimal.Zero
	for period := 0; period < ttmPeriods; period++ {
		v, err := s.dividends.Item(ctx, symbol, "amount", period, "1y")
		if err != nil {
			return 0, err
		}
		amount, err := toDecimal(v)
		if err != nil {
			return 0, err
		}
		total = total.Add(amount)
	}

	f, _ := total.Float64()
	s.store.InsertTTMDividend(ctx, symbol, calcDate, f)
	return f, nil
}

func toDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(n))
	}
	return decimal.Zero, errors.New("Invalid dividends amount")
}
