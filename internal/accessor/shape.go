package accessor

import (
	"math"
	"time"

	"github.com/dhocker/iex-localc/internal/fetcher"
)

// NotAvailable is returned for empty timestamps and absent fields.
const NotAvailable = "NA"

// TimeLayout formats converted timestamps.
const TimeLayout = "2006-01-02 15:04:05 MST"

// FormatEpochMillis renders a Unix time in milliseconds in loc.
func FormatEpochMillis(ms int64, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return time.UnixMilli(ms).In(loc).Format(TimeLayout)
}

// Shape converts a raw field into the value handed to the spreadsheet.
// Timestamps become formatted local time ("NA" when empty) and integers that
// do not fit in 32 bits become float64, which Calc handles reliably.
func Shape(v fetcher.Payload, timeKey bool, loc *time.Location) any {
	if timeKey {
		if !v.Truthy() {
			return NotAvailable
		}
		ms, ok := v.Float()
		if !ok {
			return v.Value()
		}
		return FormatEpochMillis(int64(ms), loc)
	}

	val := v.Value()
	if n, ok := val.(int64); ok && (n > math.MaxInt32 || n < math.MinInt32) {
		return float64(n)
	}
	return val
}
