// Package entity defines the domain models for the timeseries feature.
package entity

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"chart_backend/internal/feature/timeseries/domain"
)

// DateLayout is the zero-padded key format. Keys compare correctly as strings
// only in this form.
const DateLayout = "2006-01-02"

// Quote is one bar of a time series together with its precomputed indicators.
// A zero indicator means "not computed for this bar".
type Quote struct {
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`

	EMA20  float64 `json:"ema20"`
	EMA50  float64 `json:"ema50"`
	EMA100 float64 `json:"ema100"`
	EMA200 float64 `json:"ema200"`
	ATR    float64 `json:"atr"`
	StochK float64 `json:"stoch_K"`
	StochD float64 `json:"stoch_D"`
}

// TimeSeries maps a timestamp key ("2006-01-02" or "2006-01-02 15:04:05")
// to its Quote.
type TimeSeries map[string]Quote

// SortedKeys returns the keys in ascending order.
func (ts TimeSeries) SortedKeys() []string {
	keys := make([]string, 0, len(ts))
	for k := range ts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Since returns a new series holding the entries whose key is >= from.
func (ts TimeSeries) Since(from string) TimeSeries {
	out := make(TimeSeries)
	for k, q := range ts {
		if k >= from {
			out[k] = q
		}
	}
	return out
}

// ParseKey parses a series key into a UTC time.
func ParseKey(key string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04:05", DateLayout, time.RFC3339} {
		if t, err := time.ParseInLocation(layout, key, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse key %q: unsupported layout", key)
}

// Bar is a raw OHLCV candle as delivered by the market API, before
// indicators are attached.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Frequency is the bar width of a series.
type Frequency string

const (
	Daily   Frequency = "D"
	Weekly  Frequency = "W"
	Monthly Frequency = "M"
)

// Frequencies lists every supported frequency, finest first.
var Frequencies = []Frequency{Daily, Weekly, Monthly}

// ParseFrequency accepts D/W/M and the long forms daily/weekly/monthly.
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "d", "daily", "1day":
		return Daily, nil
	case "w", "weekly", "1week":
		return Weekly, nil
	case "m", "monthly", "1month":
		return Monthly, nil
	}
	return "", fmt.Errorf("%w: %q", domain.ErrInvalidFrequency, s)
}

// Interval returns the Twelve Data interval name for the frequency.
func (f Frequency) Interval() string {
	switch f {
	case Weekly:
		return "1week"
	case Monthly:
		return "1month"
	default:
		return "1day"
	}
}

// Range is the coarse display window chosen by the user.
type Range int

const (
	Month Range = iota
	Year
	TenYears
)

// ParseRange accepts month/year/tenyears and 1m/1y/10y, case-insensitively.
func ParseRange(s string) (Range, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "month", "1m":
		return Month, nil
	case "year", "1y":
		return Year, nil
	case "tenyears", "ten_years", "10y":
		return TenYears, nil
	}
	return 0, fmt.Errorf("%w: %q", domain.ErrInvalidRange, s)
}

// DefaultFrequency is the bar width the chart page pairs with each range.
func (r Range) DefaultFrequency() Frequency {
	switch r {
	case Month:
		return Daily
	case Year:
		return Weekly
	default:
		return Monthly
	}
}

// Label is the human readable title suffix for the range.
func (r Range) Label() string {
	switch r {
	case Month:
		return "1 month"
	case Year:
		return "1 year"
	default:
		return "10 years"
	}
}

func (r Range) String() string {
	switch r {
	case Month:
		return "month"
	case Year:
		return "year"
	default:
		return "tenyears"
	}
}
