// Package handler はtimeseriesフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"chart_backend/internal/feature/timeseries/domain"
	"chart_backend/internal/feature/timeseries/domain/entity"
	"chart_backend/internal/feature/timeseries/transport/http/dto"
	"chart_backend/internal/feature/timeseries/usecase"
)

// defaultRange はクエリで range が省略されたときの表示期間です。
const defaultRange = "month"

// SeriesStore は保存済みの全系列を返すストアです。
type SeriesStore interface {
	FindSeries(ctx context.Context, symbol string, freq entity.Frequency) (entity.TimeSeries, error)
}

// ChartUsecase は範囲キャッシュ経由で系列とチャートを返します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type ChartUsecase interface {
	GetSeries(ctx context.Context, symbol string, freq entity.Frequency, rng entity.Range) (entity.TimeSeries, error)
	GetChart(ctx context.Context, symbol string, freq entity.Frequency, rng entity.Range) (usecase.ChartView, error)
}

// TimeSeriesHandler は時系列データのHTTPリクエストを処理します。
type TimeSeriesHandler struct {
	store SeriesStore
	uc    ChartUsecase
}

// NewTimeSeriesHandler は新しい TimeSeriesHandler を生成します。
func NewTimeSeriesHandler(store SeriesStore, uc ChartUsecase) *TimeSeriesHandler {
	return &TimeSeriesHandler{store: store, uc: uc}
}

// GetTimeSeries は保存済みの全系列を日付キーのオブジェクトで返します。
// 範囲キャッシュのデータソースとしての契約です。未知の銘柄は {} を返します。
//
// エンドポイント例:
// GET /timeseries/AAPL/D
func (h *TimeSeriesHandler) GetTimeSeries(c *gin.Context) {
	symbol := strings.TrimSpace(c.Param("symbol"))
	if symbol == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: domain.ErrInvalidSymbol.Error()})
		return
	}
	freq, err := entity.ParseFrequency(c.Param("frequency"))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	series, err := h.store.FindSeries(c.Request.Context(), symbol, freq)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.NewSeriesResponse(series))
}

// GetSeries は範囲キャッシュで絞り込んだ系列を返します。
//
// エンドポイント例:
// GET /series/AAPL?freq=D&range=year
func (h *TimeSeriesHandler) GetSeries(c *gin.Context) {
	freq, rng, ok := parseCoordinates(c)
	if !ok {
		return
	}

	series, err := h.uc.GetSeries(c.Request.Context(), c.Param("symbol"), freq, rng)
	if err != nil {
		c.JSON(statusFor(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.NewSeriesResponse(series))
}

// GetChart はチャート描画用に整形した系列を返します。freq 省略時は range から決まります。
//
// エンドポイント例:
// GET /chart/7203.T?range=tenyears
func (h *TimeSeriesHandler) GetChart(c *gin.Context) {
	freq, rng, ok := parseCoordinates(c)
	if !ok {
		return
	}

	view, err := h.uc.GetChart(c.Request.Context(), c.Param("symbol"), freq, rng)
	if err != nil {
		c.JSON(statusFor(err), dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.NewChartResponse(view))
}

// parseCoordinates reads ?freq and ?range. On failure it writes a 400 and
// returns ok=false. An absent freq is returned as "".
func parseCoordinates(c *gin.Context) (entity.Frequency, entity.Range, bool) {
	rng, err := entity.ParseRange(c.DefaultQuery("range", defaultRange))
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return "", 0, false
	}

	var freq entity.Frequency
	if raw := c.Query("freq"); raw != "" {
		freq, err = entity.ParseFrequency(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
			return "", 0, false
		}
	}
	return freq, rng, true
}

// statusFor は入力エラーを400、それ以外（取得失敗）を502に対応付けます。
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidSymbol),
		errors.Is(err, domain.ErrInvalidFrequency),
		errors.Is(err, domain.ErrInvalidRange):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}
