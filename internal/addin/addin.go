// Package addin is the spreadsheet-facing surface: one method per cell
// function. Every method returns a cell value (a number or a string) and
// never panics; failures are reported as their message text.
package addin

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dhocker/iex-localc/internal/accessor"
	"github.com/dhocker/iex-localc/internal/cache"
	"github.com/dhocker/iex-localc/internal/fetcher"
	"github.com/dhocker/iex-localc/internal/history"
	"github.com/dhocker/iex-localc/internal/iex"
	"github.com/dhocker/iex-localc/internal/metrics"
	"github.com/dhocker/iex-localc/internal/store"
)

// ImplementationName identifies the add-in to the spreadsheet host.
const ImplementationName = "com.iex.api.localc.python.IexImpl"

// Options configures an AddIn.
type Options struct {
	// TTL of the per-category result caches; cache.DefaultTTL when zero.
	TTL      time.Duration
	Clock    cache.Clock
	Location *time.Location
	Store    *store.Store
	Metrics  *metrics.Metrics
	Log      zerolog.Logger
}

// AddIn implements the cell functions.
type AddIn struct {
	fetcher fetcher.Fetcher

	quote     *accessor.Accessor
	company   *accessor.Accessor
	stats     *accessor.Accessor
	dividends *accessor.Accessor
	earnings  *accessor.Accessor
	history   *history.Service

	metrics *metrics.Metrics
	log     zerolog.Logger
}

// New creates an AddIn whose upstream requests go through f.
func New(f fetcher.Fetcher, opts Options) *AddIn {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	newAccessor := func(cat accessor.Category) *accessor.Accessor {
		return accessor.New(cat, f, accessor.Options{
			Cache:    cache.New(ttl, opts.Clock),
			Location: opts.Location,
			Metrics:  opts.Metrics,
			Log:      opts.Log,
		})
	}

	a := &AddIn{
		fetcher:   f,
		quote:     newAccessor(accessor.Quote),
		company:   newAccessor(accessor.Company),
		stats:     newAccessor(accessor.KeyStats),
		dividends: newAccessor(accessor.Dividends),
		earnings:  newAccessor(accessor.Earnings),
		metrics:   opts.Metrics,
		log:       opts.Log.With().Str("component", "addin").Logger(),
	}
	a.history = history.NewService(f, history.Options{
		Store:     opts.Store,
		Dividends: a.dividends,
		Clock:     opts.Clock,
		Location:  opts.Location,
		Log:       opts.Log,
	})
	return a
}

// call runs fn and converts its outcome into a cell value. A panic becomes
// its message.
func (a *AddIn) call(name string, fn func() (any, error)) (v any) {
	a.metrics.Call(name)
	a.log.Debug().Str("function", name).Msg("called")

	defer func() {
		if r := recover(); r != nil {
			a.log.Error().Str("function", name).Interface("panic", r).Msg("recovered")
			v = fmt.Sprint(r)
		}
	}()

	v, err := fn()
	if err != nil {
		msg := fetcher.Message(err)
		a.log.Debug().Str("function", name).Str("error", msg).Msg("failed")
		return msg
	}
	return v
}

func keyCount(ctx context.Context, acc *accessor.Accessor) func() (any, error) {
	return func() (any, error) {
		n, err := acc.KeyCount(ctx)
		if err != nil {
			return nil, err
		}
		return n, nil
	}
}

func keyAt(ctx context.Context, acc *accessor.Accessor, index int) func() (any, error) {
	return func() (any, error) {
		k, err := acc.KeyAt(ctx, index)
		if err != nil {
			return nil, err
		}
		return k, nil
	}
}

func item(ctx context.Context, acc *accessor.Accessor, symbol, key string, period int, periodRange string) func() (any, error) {
	return func() (any, error) {
		return acc.Item(ctx, symbol, key, period, periodRange)
	}
}

func periodCount(ctx context.Context, acc *accessor.Accessor, symbol, periodRange string) func() (any, error) {
	return func() (any, error) {
		n, err := acc.PeriodCount(ctx, symbol, periodRange)
		if err != nil {
			return nil, err
		}
		return n, nil
	}
}

// IexPrice returns the current price of symbol. Prices are not cached.
func (a *AddIn) IexPrice(ctx context.Context, symbol string) any {
	return a.call("IexPrice", func() (any, error) {
		res := a.fetcher.Fetch(ctx, iex.StockPath(symbol, "price"))
		if !res.OK() {
			if res.Err != nil {
				return nil, res.Err
			}
			return nil, fetcher.ClassifyHTTPError(res.StatusCode, "")
		}
		price, ok := res.Payload.Float()
		if !ok {
			return nil, fetcher.NewValidationError(fmt.Sprintf("unexpected price %s", res.Payload.Raw()))
		}
		return price, nil
	})
}

func (a *AddIn) IexQuoteKeyCount(ctx context.Context) any {
	return a.call("IexQuoteKeyCount", keyCount(ctx, a.quote))
}

func (a *AddIn) IexQuoteKeyByIndex(ctx context.Context, index int) any {
	return a.call("IexQuoteKeyByIndex", keyAt(ctx, a.quote, index))
}

func (a *AddIn) IexQuoteItem(ctx context.Context, symbol, key string) any {
	return a.call("IexQuoteItem", item(ctx, a.quote, symbol, key, 0, ""))
}

func (a *AddIn) IexCompanyKeyCount(ctx context.Context) any {
	return a.call("IexCompanyKeyCount", keyCount(ctx, a.company))
}

func (a *AddIn) IexCompanyKeyByIndex(ctx context.Context, index int) any {
	return a.call("IexCompanyKeyByIndex", keyAt(ctx, a.company, index))
}

func (a *AddIn) IexCompanyItem(ctx context.Context, symbol, key string) any {
	return a.call("IexCompanyItem", item(ctx, a.company, symbol, key, 0, ""))
}

func (a *AddIn) IexKeyStatsKeyCount(ctx context.Context) any {
	return a.call("IexKeyStatsKeyCount", keyCount(ctx, a.stats))
}

func (a *AddIn) IexKeyStatsKeyByIndex(ctx context.Context, index int) any {
	return a.call("IexKeyStatsKeyByIndex", keyAt(ctx, a.stats, index))
}

func (a *AddIn) IexKeyStatsItem(ctx context.Context, symbol, key string) any {
	return a.call("IexKeyStatsItem", item(ctx, a.stats, symbol, key, 0, ""))
}

func (a *AddIn) IexDividendsKeyCount(ctx context.Context) any {
	return a.call("IexDividendsKeyCount", keyCount(ctx, a.dividends))
}

func (a *AddIn) IexDividendsKeyByIndex(ctx context.Context, index int) any {
	return a.call("IexDividendsKeyByIndex", keyAt(ctx, a.dividends, index))
}

// IexDividendsPeriodCount returns how many dividends symbol paid in
// periodRange ("1y" when empty).
func (a *AddIn) IexDividendsPeriodCount(ctx context.Context, symbol, periodRange string) any {
	return a.call("IexDividendsPeriodCount", periodCount(ctx, a.dividends, symbol, periodRange))
}

// IexDividendsItem returns field key of the period-th most recent dividend.
func (a *AddIn) IexDividendsItem(ctx context.Context, symbol, key string, period int, periodRange string) any {
	return a.call("IexDividendsItem", item(ctx, a.dividends, symbol, key, period, periodRange))
}

// IexDividendsTTM returns the sum of the four most recent dividend amounts.
func (a *AddIn) IexDividendsTTM(ctx context.Context, symbol string) any {
	return a.call("IexDividendsTTM", func() (any, error) {
		v, err := a.history.TrailingDividends(ctx, symbol)
		if err != nil {
			return nil, err
		}
		return v, nil
	})
}

func (a *AddIn) IexEarningsKeyCount(ctx context.Context) any {
	return a.call("IexEarningsKeyCount", keyCount(ctx, a.earnings))
}

func (a *AddIn) IexEarningsKeyByIndex(ctx context.Context, index int) any {
	return a.call("IexEarningsKeyByIndex", keyAt(ctx, a.earnings, index))
}

func (a *AddIn) IexEarningsPeriodCount(ctx context.Context, symbol string) any {
	return a.call("IexEarningsPeriodCount", periodCount(ctx, a.earnings, symbol, ""))
}

func (a *AddIn) IexEarningsItem(ctx context.Context, symbol, key string, period int) any {
	return a.call("IexEarningsItem", item(ctx, a.earnings, symbol, key, period, ""))
}

// IexHistoricalClose returns the closing price of symbol on forDate, which
// may be a date string or a spreadsheet serial date.
func (a *AddIn) IexHistoricalClose(ctx context.Context, symbol string, forDate any) any {
	return a.call("IexHistoricalClose", func() (any, error) {
		date, err := history.NormalizeDate(forDate)
		if err != nil {
			return nil, err
		}
		v, err := a.history.ClosingPrice(ctx, symbol, date)
		if err != nil {
			return nil, err
		}
		return v, nil
	})
}
