// Package twelvedata provides a client for the Twelve Data stock market API.
package twelvedata

import "time"

// DefaultBaseURL is the public Twelve Data endpoint.
const DefaultBaseURL = "https://api.twelvedata.com"

// Config holds configuration for the Twelve Data API client, read from
// TWELVE_DATA_* variables.
type Config struct {
	APIKey  string        `env:"API_KEY"`                                          // API key for authentication
	BaseURL string        `env:"BASE_URL" envDefault:"https://api.twelvedata.com"` // Base URL for the API
	Timeout time.Duration `env:"TIMEOUT" envDefault:"10s"`                         // HTTP request timeout
}
