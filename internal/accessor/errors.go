package accessor

import (
	"errors"
	"fmt"

	"github.com/dhocker/iex-localc/internal/fetcher"
)

// The error texts below are shown verbatim in spreadsheet cells.
var (
	// ErrIndexOutOfRange is returned for a key or period index past the end.
	ErrIndexOutOfRange = errors.New("Index out of range")
	// ErrKeysUnavailable is returned when the key sequence could not be built.
	ErrKeysUnavailable = errors.New("Keys not available")
	// ErrNoPeriods is returned when a payload has no period sequence.
	ErrNoPeriods = errors.New("Periods not available")
)

// InvalidKeyError reports a field name that is not in the category's key sequence.
type InvalidKeyError struct {
	Category string
}

func (e *InvalidKeyError) Error() string {
	return fmt.Sprintf("Invalid %s key", e.Category)
}

// resultError returns the error carried by a failed result.
func resultError(res fetcher.Result) error {
	if res.Err != nil {
		return res.Err
	}
	return fetcher.ClassifyHTTPError(res.StatusCode, "")
}
