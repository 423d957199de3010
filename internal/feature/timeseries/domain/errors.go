// Package domain defines domain-level errors for the timeseries feature.
package domain

import "errors"

// Domain errors for time-series operations.
var (
	// ErrInvalidSymbol indicates that an empty or blank symbol was requested.
	ErrInvalidSymbol = errors.New("symbol must not be empty")

	// ErrInvalidFrequency indicates a frequency outside D/W/M.
	ErrInvalidFrequency = errors.New("invalid frequency")

	// ErrInvalidRange indicates a range selector other than month/year/tenyears.
	ErrInvalidRange = errors.New("invalid range")

	// ErrInvalidPayload indicates that the data source answered with a body
	// that is not a JSON object keyed by timestamp.
	ErrInvalidPayload = errors.New("invalid time series payload")

	// ErrNoData wraps every fetch failure surfaced by the range cache.
	// Callers show it as "no data found for symbol".
	ErrNoData = errors.New("no data found for symbol")
)
