package usecase_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chart_backend/internal/feature/timeseries/domain/entity"
	"chart_backend/internal/feature/timeseries/usecase"
)

func ms(y int, m time.Month, d int) int64 {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC).UnixMilli()
}

func TestProject_OrderAndSkips(t *testing.T) {
	t.Parallel()

	series := entity.TimeSeries{
		"2024-01-03": {Open: 3, High: 4, Low: 2, Close: 3.5, Volume: 300, EMA20: 3.1, StochK: 80, ATR: 0.5},
		"2024-01-01": {Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100},
		"2024-01-02": {Open: 2, High: 3, Low: 1, Close: 2.5, Volume: 200, EMA20: 2.1, StochD: 40},
		"not-a-date": {Close: 99},
	}

	ch := usecase.Project(series)

	require.Len(t, ch.Bars, 3)
	assert.Equal(t, usecase.OHLCBar{X: ms(2024, 1, 1), Open: 1, High: 2, Low: 0.5, Close: 1.5}, ch.Bars[0])
	assert.Equal(t, ms(2024, 1, 3), ch.Bars[2].X)

	// ゼロ値のインジケーターはスキップされる
	assert.Equal(t, []usecase.Point{{X: ms(2024, 1, 2), Y: 2.1}, {X: ms(2024, 1, 3), Y: 3.1}}, ch.EMA20)
	assert.Equal(t, []usecase.Point{{X: ms(2024, 1, 3), Y: 80}}, ch.StochK)
	assert.Equal(t, []usecase.Point{{X: ms(2024, 1, 2), Y: 40}}, ch.StochD)
	assert.Empty(t, ch.EMA200)

	// ATRはスキップしない
	assert.Len(t, ch.ATR, 3)
}

func TestProject_VolumeSteps(t *testing.T) {
	t.Parallel()

	series := entity.TimeSeries{
		"2024-01-01": {Volume: 100},
		"2024-01-02": {Volume: 200},
		"2024-01-03": {Volume: 300},
	}

	ch := usecase.Project(series)

	want := []usecase.Point{
		{X: ms(2024, 1, 1), Y: 100},
		{X: ms(2024, 1, 1), Y: 200},
		{X: ms(2024, 1, 2), Y: 200},
		{X: ms(2024, 1, 2), Y: 300},
		{X: ms(2024, 1, 3), Y: 300},
	}
	assert.Equal(t, want, ch.Volume)
}

func TestProject_Bollinger(t *testing.T) {
	t.Parallel()

	series := make(entity.TimeSeries)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		series[start.AddDate(0, 0, i).Format(entity.DateLayout)] = entity.Quote{Close: 10}
	}

	ch := usecase.Project(series)

	// 期間14のため最初の13本はバンドなし
	require.Len(t, ch.BollingerMid, 7)
	assert.Equal(t, start.AddDate(0, 0, 13).UnixMilli(), ch.BollingerMid[0].X)
	assert.InDelta(t, 10.0, ch.BollingerUpper[6].Y, 1e-9)
	assert.InDelta(t, 10.0, ch.BollingerLower[6].Y, 1e-9)
}

func TestProject_Empty(t *testing.T) {
	t.Parallel()

	ch := usecase.Project(entity.TimeSeries{})

	assert.NotNil(t, ch.Bars)
	assert.Empty(t, ch.Bars)
	assert.Empty(t, ch.Volume)
	assert.Empty(t, ch.BollingerMid)
}
