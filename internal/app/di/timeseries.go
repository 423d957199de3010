package di

import (
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"chart_backend/internal/feature/timeseries/adapters/httpsource"
	"chart_backend/internal/feature/timeseries/usecase"
	"chart_backend/internal/platform/cache"
	"chart_backend/internal/platform/config"
	infrahttp "chart_backend/internal/platform/http"
	"chart_backend/internal/platform/logger"
)

// NewSeriesSource は範囲キャッシュのデータソースを組み立てます。
// TIMESERIES_BASE_URL があればリモートの時系列サービスを、なければ store を読みます。
// どちらも Redis のスナップショットでラップされます（rdb が nil ならバイパス）。
func NewSeriesSource(cfg *config.Config, store usecase.SeriesFetcher, rdb *redis.Client, log *zap.Logger) *cache.CachingSeriesSource {
	log = logger.OrNop(log)
	var inner usecase.SeriesFetcher = store
	if cfg.TimeSeries.BaseURL != "" {
		client := infrahttp.NewHTTPClient(cfg.TimeSeries.FetchTimeout)
		inner = httpsource.NewSource(httpsource.Config{BaseURL: cfg.TimeSeries.BaseURL}, client, log)
		log.Info("range cache reads remote time series", zap.String("base_url", cfg.TimeSeries.BaseURL))
	}
	return cache.NewCachingSeriesSource(rdb, cfg.TimeSeries.SnapshotTTL, inner, cache.DefaultNamespace, log)
}

// NewRangeCache creates the process-wide range cache over source.
func NewRangeCache(cfg *config.Config, source usecase.SeriesFetcher, log *zap.Logger) *usecase.RangeCache {
	mode := usecase.KeyBySymbol
	if cfg.RangeCache.KeyByFrequency {
		mode = usecase.KeyBySymbolFrequency
	}
	return usecase.NewRangeCache(source,
		usecase.WithKeyMode(mode),
		usecase.WithFetchTimeout(cfg.TimeSeries.FetchTimeout),
		usecase.WithLogger(log),
	)
}
