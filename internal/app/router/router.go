// Package router はアプリケーションのHTTPルーティングを組み立てます。
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	symbollisthandler "chart_backend/internal/feature/symbollist/transport/handler"
	timeserieshandler "chart_backend/internal/feature/timeseries/transport/handler"
	platformhandler "chart_backend/internal/platform/http/handler"
)

// corsMaxAge はプリフライト結果をブラウザがキャッシュできる時間です。
const corsMaxAge = 12 * time.Hour

// NewRouter はルートを登録した gin.Engine を返します。
// corsOrigins が空でなければ CORS ミドルウェアを適用します（"*" は全許可）。
func NewRouter(corsOrigins []string, health *platformhandler.HealthHandler,
	timeseries *timeserieshandler.TimeSeriesHandler, symbol *symbollisthandler.SymbolHandler) *gin.Engine {
	r := gin.Default()

	if len(corsOrigins) > 0 {
		r.Use(cors.New(corsConfig(corsOrigins)))
	}

	// 導通確認用
	r.GET("/healthz", health.Health)
	r.HEAD("/healthz", health.Health)
	r.OPTIONS("/healthz", health.Health)

	// 範囲キャッシュのデータソース契約（保存済みの全系列）
	r.GET("/timeseries/:symbol/:frequency", timeseries.GetTimeSeries)

	// 範囲キャッシュ経由の読み出し
	r.GET("/series/:symbol", timeseries.GetSeries)
	r.GET("/chart/:symbol", timeseries.GetChart)

	r.GET("/symbols", symbol.List)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       corsMaxAge,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}
