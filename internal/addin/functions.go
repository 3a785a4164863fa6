package addin

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Param describes one function argument.
type Param struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Function describes a cell function and how to invoke it with string
// arguments.
type Function struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"params"`

	invoke func(ctx context.Context, a *AddIn, in args) any
}

var (
	pSymbol      = Param{Name: "symbol", Description: "Stock ticker symbol"}
	pKey         = Param{Name: "key", Description: "Field name"}
	pIndex       = Param{Name: "index", Description: "Zero based key index"}
	pPeriod      = Param{Name: "period", Description: "Zero based period, 0 is the most recent"}
	pPeriodRange = Param{Name: "periodrange", Description: "Period range such as 1y, 2y or 5y"}
	pForDate     = Param{Name: "fordate", Description: "Date as YYYY-MM-DD or a date value"}
)

var functions = []Function{
	{
		Name: "IexPrice", Description: "Current price of a stock",
		Params: []Param{pSymbol},
		invoke: func(ctx context.Context, a *AddIn, in args) any { return a.IexPrice(ctx, in.str(0)) },
	},
	{
		Name: "IexQuoteKeyCount", Description: "Number of quote keys",
		invoke: func(ctx context.Context, a *AddIn, in args) any { return a.IexQuoteKeyCount(ctx) },
	},
	{
		Name: "IexQuoteKeyByIndex", Description: "Quote key at an index",
		Params: []Param{pIndex},
		invoke: func(ctx context.Context, a *AddIn, in args) any {
			return withInt(in, 0, pIndex, func(i int) any { return a.IexQuoteKeyByIndex(ctx, i) })
		},
	},
	{
		Name: "IexQuoteItem", Description: "Quote field for a stock",
		Params: []Param{pSymbol, pKey},
		invoke: func(ctx context.Context, a *AddIn, in args) any { return a.IexQuoteItem(ctx, in.str(0), in.str(1)) },
	},
	{
		Name: "IexCompanyKeyCount", Description: "Number of company keys",
		invoke: func(ctx context.Context, a *AddIn, in args) any { return a.IexCompanyKeyCount(ctx) },
	},
	{
		Name: "IexCompanyKeyByIndex", Description: "Company key at an index",
		Params: []Param{pIndex},
		invoke: func(ctx context.Context, a *AddIn, in args) any {
			return withInt(in, 0, pIndex, func(i int) any { return a.IexCompanyKeyByIndex(ctx, i) })
		},
	},
	{
		Name: "IexCompanyItem", Description: "Company field for a stock",
		Params: []Param{pSymbol, pKey},
		invoke: func(ctx context.Context, a *AddIn, in args) any { return a.IexCompanyItem(ctx, in.str(0), in.str(1)) },
	},
	{
		Name: "IexKeyStatsKeyCount", Description: "Number of key stats keys",
		invoke: func(ctx context.Context, a *AddIn, in args) any { return a.IexKeyStatsKeyCount(ctx) },
	},
	{
		Name: "IexKeyStatsKeyByIndex", Description: "Key stats key at an index",
		Params: []Param{pIndex},
		invoke: func(ctx context.Context, a *AddIn, in args) any {
			return withInt(in, 0, pIndex, func(i int) any { return a.IexKeyStatsKeyByIndex(ctx, i) })
		},
	},
	{
		Name: "IexKeyStatsItem", Description: "Key stats field for a stock",
		Params: []Param{pSymbol, pKey},
		invoke: func(ctx context.Context, a *AddIn, in args) any { return a.IexKeyStatsItem(ctx, in.str(0), in.str(1)) },
	},
	{
		Name: "IexDividendsKeyCount", Description: "Number of dividends keys",
		invoke: func(ctx context.Context, a *AddIn, in args) any { return a.IexDividendsKeyCount(ctx) },
	},
	{
		Name: "IexDividendsKeyByIndex", Description: "Dividends key at an index",
		Params: []Param{pIndex},
		invoke: func(ctx context.Context, a *AddIn, in args) any {
			return withInt(in, 0, pIndex, func(i int) any { return a.IexDividendsKeyByIndex(ctx, i) })
		},
	},
	{
		Name: "IexDividendsPeriodCount", Description: "Number of dividends in a period range",
		Params: []Param{pSymbol, pPeriodRange},
		invoke: func(ctx context.Context, a *AddIn, in args) any {
			return a.IexDividendsPeriodCount(ctx, in.str(0), in.str(1))
		},
	},
	{
		Name: "IexDividendsItem", Description: "Dividends field for a stock and period",
		Params: []Param{pSymbol, pKey, pPeriod, pPeriodRange},
		invoke: func(ctx context.Context, a *AddIn, in args) any {
			return withInt(in, 2, pPeriod, func(p int) any {
				return a.IexDividendsItem(ctx, in.str(0), in.str(1), p, in.str(3))
			})
		},
	},
	{
		Name: "IexDividendsTTM", Description: "Sum of the four most recent dividends",
		Params: []Param{pSymbol},
		invoke: func(ctx context.Context, a *AddIn, in args) any { return a.IexDividendsTTM(ctx, in.str(0)) },
	},
	{
		Name: "IexEarningsKeyCount", Description: "Number of earnings keys",
		invoke: func(ctx context.Context, a *AddIn, in args) any { return a.IexEarningsKeyCount(ctx) },
	},
	{
		Name: "IexEarningsKeyByIndex", Description: "Earnings key at an index",
		Params: []Param{pIndex},
		invoke: func(ctx context.Context, a *AddIn, in args) any {
			return withInt(in, 0, pIndex, func(i int) any { return a.IexEarningsKeyByIndex(ctx, i) })
		},
	},
	{
		Name: "IexEarningsPeriodCount", Description: "Number of reported earnings periods",
		Params: []Param{pSymbol},
		invoke: func(ctx context.Context, a *AddIn, in args) any { return a.IexEarningsPeriodCount(ctx, in.str(0)) },
	},
	{
		Name: "IexEarningsItem", Description: "Earnings field for a stock and period",
		Params: []Param{pSymbol, pKey, pPeriod},
		invoke: func(ctx context.Context, a *AddIn, in args) any {
			return withInt(in, 2, pPeriod, func(p int) any {
				return a.IexEarningsItem(ctx, in.str(0), in.str(1), p)
			})
		},
	},
	{
		Name: "IexHistoricalClose", Description: "Closing price of a stock on a date",
		Params: []Param{pSymbol, pForDate},
		invoke: func(ctx context.Context, a *AddIn, in args) any { return a.IexHistoricalClose(ctx, in.str(0), in.str(1)) },
	},
}

// Functions returns the function table in declaration order.
func Functions() []Function {
	out := make([]Function, len(functions))
	copy(out, functions)
	return out
}

// Lookup finds a function by name, ignoring case.
func Lookup(name string) (Function, bool) {
	for _, f := range functions {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return Function{}, false
}

// Evaluate calls the named function with positional string arguments.
// Missing arguments are empty. Like the functions themselves it never
// panics and reports failures as strings.
func (a *AddIn) Evaluate(ctx context.Context, name string, argv []string) (v any) {
	defer func() {
		if r := recover(); r != nil {
			v = fmt.Sprint(r)
		}
	}()

	f, ok := Lookup(name)
	if !ok {
		return fmt.Sprintf("Unknown function %s", name)
	}
	return f.invoke(ctx, a, args(argv))
}

type args []string

func (in args) str(i int) string {
	if i < len(in) {
		return strings.TrimSpace(in[i])
	}
	return ""
}

// num parses a cell number; spreadsheet hosts send integers as floats.
func (in args) num(i int) (int, bool) {
	s := in.str(i)
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

func withInt(in args, i int, p Param, fn func(int) any) any {
	n, ok := in.num(i)
	if !ok {
		return fmt.Sprintf("Invalid %s", p.Name)
	}
	return fn(n)
}
