package usecase

import (
	"chart_backend/internal/feature/timeseries/domain/entity"
)

// Point is one (x, y) sample of a line or histogram; x is Unix milliseconds.
type Point struct {
	X int64   `json:"x"`
	Y float64 `json:"y"`
}

// OHLCBar is one price bar; X is Unix milliseconds.
type OHLCBar struct {
	X     int64   `json:"x"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
}

// Chart はチャート描画ライブラリにそのまま渡せる系列ごとの数値配列です。
type Chart struct {
	Bars           []OHLCBar `json:"bars"`
	Volume         []Point   `json:"volume"`
	ATR            []Point   `json:"atr"`
	EMA20          []Point   `json:"ema20"`
	EMA50          []Point   `json:"ema50"`
	EMA100         []Point   `json:"ema100"`
	EMA200         []Point   `json:"ema200"`
	StochK         []Point   `json:"stochK"`
	StochD         []Point   `json:"stochD"`
	BollingerUpper []Point   `json:"bollingerUpper"`
	BollingerMid   []Point   `json:"bollingerMiddle"`
	BollingerLower []Point   `json:"bollingerLower"`
}

// Project reshapes a series into per-series arrays ordered by time.
// Indicator points whose value is 0 are skipped, volume is expanded into
// histogram steps, and keys that do not parse as dates are dropped.
func Project(series entity.TimeSeries) Chart {
	keys := series.SortedKeys()
	ch := Chart{
		Bars:   make([]OHLCBar, 0, len(keys)),
		Volume: make([]Point, 0, 2*len(keys)),
		ATR:    make([]Point, 0, len(keys)),
		EMA20:  []Point{},
		EMA50:  []Point{},
		EMA100: []Point{},
		EMA200: []Point{},
		StochK: []Point{},
		StochD: []Point{},

		BollingerUpper: []Point{},
		BollingerMid:   []Point{},
		BollingerLower: []Point{},
	}

	xs := make([]int64, 0, len(keys))
	closes := make([]float64, 0, len(keys))
	var prev *Point

	for _, k := range keys {
		t, err := entity.ParseKey(k)
		if err != nil {
			continue
		}
		x := t.UnixMilli()
		q := series[k]

		ch.Bars = append(ch.Bars, OHLCBar{X: x, Open: q.Open, High: q.High, Low: q.Low, Close: q.Close})
		ch.ATR = append(ch.ATR, Point{X: x, Y: q.ATR})

		// 出来高はヒストグラム表示のため前の点との間に段差を挿入する
		cur := Point{X: x, Y: q.Volume}
		if prev != nil {
			ch.Volume = append(ch.Volume, Point{X: prev.X, Y: cur.Y})
		}
		ch.Volume = append(ch.Volume, cur)
		prev = &cur

		ch.EMA20 = appendNonZero(ch.EMA20, x, q.EMA20)
		ch.EMA50 = appendNonZero(ch.EMA50, x, q.EMA50)
		ch.EMA100 = appendNonZero(ch.EMA100, x, q.EMA100)
		ch.EMA200 = appendNonZero(ch.EMA200, x, q.EMA200)
		ch.StochK = appendNonZero(ch.StochK, x, q.StochK)
		ch.StochD = appendNonZero(ch.StochD, x, q.StochD)

		xs = append(xs, x)
		closes = append(closes, q.Close)
	}

	upper, middle, lower := Bollinger(closes)
	for i := range upper {
		if middle[i] == 0 {
			continue
		}
		ch.BollingerUpper = append(ch.BollingerUpper, Point{X: xs[i], Y: at(upper, i)})
		ch.BollingerMid = append(ch.BollingerMid, Point{X: xs[i], Y: at(middle, i)})
		ch.BollingerLower = append(ch.BollingerLower, Point{X: xs[i], Y: at(lower, i)})
	}

	return ch
}

func appendNonZero(dst []Point, x int64, y float64) []Point {
	if y == 0 {
		return dst
	}
	return append(dst, Point{X: x, Y: y})
}
