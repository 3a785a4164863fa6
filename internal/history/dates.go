package history

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// ISODate is the date layout used for lookups and the durable cache.
const ISODate = "2006-01-02"

// ErrInvalidDate is returned for a date argument that cannot be understood.
var ErrInvalidDate = errors.New("Invalid date format")

// spreadsheetEpoch is day zero of Calc's serial date numbers.
var spreadsheetEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

var dateLayouts = []string{
	ISODate,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
}

// NormalizeDate converts a date argument to YYYY-MM-DD. It accepts date
// strings in a few common layouts and spreadsheet serial day numbers, either
// as numbers or as numeric strings.
func NormalizeDate(v any) (string, error) {
	switch d := v.(type) {
	case string:
		s := strings.TrimSpace(d)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Format(ISODate), nil
			}
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return serialDate(f)
		}
	case float64:
		return serialDate(d)
	case int:
		return serialDate(float64(d))
	case int64:
		return serialDate(float64(d))
	case time.Time:
		return d.Format(ISODate), nil
	}
	return "", ErrInvalidDate
}

func serialDate(days float64) (string, error) {
	if days < 1 || math.IsNaN(days) || math.IsInf(days, 0) {
		return "", ErrInvalidDate
	}
	return spreadsheetEpoch.AddDate(0, 0, int(days)).Format(ISODate), nil
}

// DaysSince returns the whole days elapsed from date (midnight) to now,
// counted on the wall clock of now's location so DST shifts do not matter.
func DaysSince(date string, now time.Time) (int, error) {
	d, err := time.Parse(ISODate, date)
	if err != nil {
		return 0, ErrInvalidDate
	}
	wall := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), time.UTC)
	return int(math.Floor(wall.Sub(d).Hours() / 24)), nil
}

// WindowFor picks the smallest chart range that contains a date the given
// number of days old.
func WindowFor(days int) string {
	switch {
	case days <= 30:
		return "1m"
	case days <= 90:
		return "3m"
	case days <= 180:
		return "6m"
	case days <= 365:
		return "1y"
	case days <= 365*2:
		return "2y"
	}
	return "5y"
}
