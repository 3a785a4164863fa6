package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowFor(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{0, "1m"},
		{30, "1m"},
		{31, "3m"},
		{90, "3m"},
		{91, "6m"},
		{180, "6m"},
		{181, "1y"},
		{365, "1y"},
		{366, "2y"},
		{730, "2y"},
		{731, "5y"},
		{5000, "5y"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, WindowFor(tt.days), "days=%d", tt.days)
	}
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"iso", "2017-09-01", "2017-09-01"},
		{"iso with spaces", " 2017-09-01 ", "2017-09-01"},
		{"slashes", "2017/09/01", "2017-09-01"},
		{"us", "09/01/2017", "2017-09-01"},
		{"us short", "9/1/2017", "2017-09-01"},
		{"serial number", float64(42979), "2017-09-01"},
		{"serial int", 42979, "2017-09-01"},
		{"serial string", "42979", "2017-09-01"},
		{"time", time.Date(2017, 9, 1, 15, 0, 0, 0, time.UTC), "2017-09-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeDate(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeDate_Invalid(t *testing.T) {
	for _, in := range []any{"", "yesterday", "2017-13-45", float64(0), -3, true, nil} {
		_, err := NormalizeDate(in)
		assert.ErrorIs(t, err, ErrInvalidDate, "input %v", in)
	}
	assert.Equal(t, "Invalid date format", ErrInvalidDate.Error())
}

func TestDaysSince(t *testing.T) {
	now := time.Date(2018, 3, 1, 10, 30, 0, 0, time.UTC)

	days, err := DaysSince("2017-09-01", now)
	require.NoError(t, err)
	assert.Equal(t, 181, days)

	days, err = DaysSince("2018-03-01", now)
	require.NoError(t, err)
	assert.Equal(t, 0, days)

	_, err = DaysSince("03/01/2018", now)
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestDaysSince_UsesWallClock(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	// 23:30 local is already the next UTC day; the local date counts.
	now := time.Date(2017, 10, 1, 23, 30, 0, 0, loc)

	days, err := DaysSince("2017-09-01", now)
	require.NoError(t, err)
	assert.Equal(t, 30, days)
	assert.Equal(t, "1m", WindowFor(days))
}
