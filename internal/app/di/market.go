// Package di provides dependency injection factories for creating application components.
package di

import (
	"go.uber.org/zap"

	"chart_backend/internal/platform/externalapi/twelvedata"
	infrahttp "chart_backend/internal/platform/http"
)

// NewMarket creates a fully configured TwelveDataMarket with HTTP client.
func NewMarket(cfg twelvedata.Config, log *zap.Logger) *twelvedata.TwelveDataMarket {
	httpClient := infrahttp.NewHTTPClient(cfg.Timeout)
	return twelvedata.NewTwelveDataMarket(cfg, httpClient, log)
}
