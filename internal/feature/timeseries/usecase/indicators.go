package usecase

import (
	"math"
	"sort"

	"github.com/markcheno/go-talib"

	"chart_backend/internal/feature/timeseries/domain/entity"
)

// インジケーターのパラメータ
const (
	atrPeriod       = 14
	stochFastK      = 14
	stochSlowK      = 3
	stochSlowD      = 3
	bollingerPeriod = 14
	bollingerDev    = 2.0
)

var emaPeriods = []int{20, 50, 100, 200}

// BuildSeries sorts bars ascending and attaches EMA 20/50/100/200, ATR(14)
// and Stoch(14,3,3). Bars inside an indicator's warm-up keep it at 0.
func BuildSeries(bars []entity.Bar) entity.TimeSeries {
	sorted := make([]entity.Bar, len(bars))
	copy(sorted, bars)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	n := len(sorted)
	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	for i, b := range sorted {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
	}

	emas := make(map[int][]float64, len(emaPeriods))
	for _, p := range emaPeriods {
		if n > p {
			emas[p] = talib.Ema(closes, p)
		}
	}
	var atr, stochK, stochD []float64
	if n > atrPeriod {
		atr = talib.Atr(highs, lows, closes, atrPeriod)
	}
	if n > stochFastK+stochSlowK+stochSlowD {
		stochK, stochD = talib.Stoch(highs, lows, closes, stochFastK, stochSlowK, talib.SMA, stochSlowD, talib.SMA)
	}

	ts := make(entity.TimeSeries, n)
	for i, b := range sorted {
		ts[barKey(b)] = entity.Quote{
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
			EMA20:  at(emas[20], i),
			EMA50:  at(emas[50], i),
			EMA100: at(emas[100], i),
			EMA200: at(emas[200], i),
			ATR:    at(atr, i),
			StochK: at(stochK, i),
			StochD: at(stochD, i),
		}
	}
	return ts
}

// Bollinger returns upper, middle and lower bands over closes, aligned with
// closes. All three are nil when there is not enough history.
func Bollinger(closes []float64) (upper, middle, lower []float64) {
	if len(closes) <= bollingerPeriod {
		return nil, nil, nil
	}
	return talib.BBands(closes, bollingerPeriod, bollingerDev, bollingerDev, talib.SMA)
}

// barKey は日付のみのバーを "2006-01-02"、時刻付きを "2006-01-02 15:04:05" で表します。
func barKey(b entity.Bar) string {
	t := b.Time.UTC()
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format(entity.DateLayout)
	}
	return t.Format("2006-01-02 15:04:05")
}

// at returns series[i] rounded to 4 decimals, or 0 when missing or not finite.
func at(series []float64, i int) float64 {
	if i >= len(series) {
		return 0
	}
	v := series[i]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Round(v*10000) / 10000
}
