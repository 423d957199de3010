package usecase

import (
	"context"
	"strings"

	"chart_backend/internal/feature/timeseries/domain/entity"
)

// RangeReader はキャッシュ経由でレンジ済みの時系列を返します。
type RangeReader interface {
	GetRange(ctx context.Context, symbol string, freq entity.Frequency, rng entity.Range) (entity.TimeSeries, error)
}

// ChartView is the projected chart together with the coordinates it was built for.
type ChartView struct {
	Symbol    string
	Frequency entity.Frequency
	Range     entity.Range
	Title     string
	Chart     Chart
}

// ChartUsecase は範囲指定の時系列をチャート用の系列に変換します。
type ChartUsecase struct {
	ranges RangeReader
}

// NewChartUsecase は新しいChartUsecaseを生成します。
func NewChartUsecase(ranges RangeReader) *ChartUsecase {
	return &ChartUsecase{ranges: ranges}
}

// GetSeries returns the filtered raw series. An empty freq is derived from rng.
func (u *ChartUsecase) GetSeries(ctx context.Context, symbol string, freq entity.Frequency, rng entity.Range) (entity.TimeSeries, error) {
	if freq == "" {
		freq = rng.DefaultFrequency()
	}
	return u.ranges.GetRange(ctx, symbol, freq, rng)
}

// GetChart returns the projected chart. An empty freq is derived from rng
// (Month→D, Year→W, TenYears→M).
func (u *ChartUsecase) GetChart(ctx context.Context, symbol string, freq entity.Frequency, rng entity.Range) (ChartView, error) {
	if freq == "" {
		freq = rng.DefaultFrequency()
	}
	series, err := u.ranges.GetRange(ctx, symbol, freq, rng)
	if err != nil {
		return ChartView{}, err
	}

	symbol = strings.TrimSpace(symbol)
	return ChartView{
		Symbol:    symbol,
		Frequency: freq,
		Range:     rng,
		Title:     symbol + " (" + rng.Label() + ")",
		Chart:     Project(series),
	}, nil
}
