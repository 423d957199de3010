// Package dto defines the HTTP payloads of the timeseries feature.
package dto

import (
	"chart_backend/internal/feature/timeseries/domain/entity"
	"chart_backend/internal/feature/timeseries/usecase"
)

// QuoteResponse は1本分のバーと指標値です。キーは日付文字列で SeriesResponse に入ります。
type QuoteResponse struct {
	Open   float64 `json:"open"`    // 始値
	High   float64 `json:"high"`    // 高値
	Low    float64 `json:"low"`     // 安値
	Close  float64 `json:"close"`   // 終値
	Volume float64 `json:"volume"`  // 出来高
	EMA20  float64 `json:"ema20"`   // 指数移動平均(20)
	EMA50  float64 `json:"ema50"`   // 指数移動平均(50)
	EMA100 float64 `json:"ema100"`  // 指数移動平均(100)
	EMA200 float64 `json:"ema200"`  // 指数移動平均(200)
	ATR    float64 `json:"atr"`     // ATR(14)
	StochK float64 `json:"stoch_K"` // ストキャスティクス %K
	StochD float64 `json:"stoch_D"` // ストキャスティクス %D
}

// SeriesResponse is the wire form of a TimeSeries: an object keyed by date.
type SeriesResponse map[string]QuoteResponse

// NewSeriesResponse converts a domain series into its wire form.
func NewSeriesResponse(ts entity.TimeSeries) SeriesResponse {
	out := make(SeriesResponse, len(ts))
	for k, q := range ts {
		out[k] = QuoteResponse{
			Open:   q.Open,
			High:   q.High,
			Low:    q.Low,
			Close:  q.Close,
			Volume: q.Volume,
			EMA20:  q.EMA20,
			EMA50:  q.EMA50,
			EMA100: q.EMA100,
			EMA200: q.EMA200,
			ATR:    q.ATR,
			StochK: q.StochK,
			StochD: q.StochD,
		}
	}
	return out
}

// ChartResponse はチャート画面1枚分のレスポンスです。
type ChartResponse struct {
	Symbol    string        `json:"symbol"`
	Frequency string        `json:"frequency"`
	Range     string        `json:"range"`
	Title     string        `json:"title"`
	Chart     usecase.Chart `json:"chart"`
}

// NewChartResponse converts a ChartView into its wire form.
func NewChartResponse(v usecase.ChartView) ChartResponse {
	return ChartResponse{
		Symbol:    v.Symbol,
		Frequency: string(v.Frequency),
		Range:     v.Range.String(),
		Title:     v.Title,
		Chart:     v.Chart,
	}
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
}
