package fetcher

import "context"

// Fetcher is the core interface for retrieving a resource from the remote
// data API. Implementations never return a Go error directly: the outcome,
// including any failure, is carried by the Result so callers at the
// spreadsheet boundary can always produce a cell value.
type Fetcher interface {
	// Fetch performs a single GET for path (relative to the API base URL)
	// and wraps the response as a Result.
	// Examples of path:
	//   - /stock/IBM/quote
	//   - /stock/SO/dividends/1y
	//   - /stock/SO/chart/3m
	Fetch(ctx context.Context, path string) Result
}
