// Package httpsource は外部の時系列APIから TimeSeries を取得する SeriesFetcher 実装です。
package httpsource

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"chart_backend/internal/feature/timeseries/domain"
	"chart_backend/internal/feature/timeseries/domain/entity"
	"chart_backend/internal/feature/timeseries/usecase"
	"chart_backend/internal/platform/logger"
)

// maxBodyBytes はレスポンスボディの読み込み上限です。
const maxBodyBytes = 64 << 20

// Config holds the upstream endpoint settings.
type Config struct {
	BaseURL string // e.g. "http://localhost:5000"
}

// Source は GET {BaseURL}/timeseries/{symbol}/{frequency} を1回呼び出して系列を返します。
type Source struct {
	cfg    Config
	client *http.Client
	log    *zap.Logger
}

var _ usecase.SeriesFetcher = (*Source)(nil)

// NewSource は指定された設定とHTTPクライアントで Source を生成します。
func NewSource(cfg Config, client *http.Client, log *zap.Logger) *Source {
	if client == nil {
		client = http.DefaultClient
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Source{cfg: cfg, client: client, log: logger.OrNop(log)}
}

// FetchSeries retrieves the full series for (symbol, freq). An empty JSON
// object is a successful, empty result.
func (s *Source) FetchSeries(ctx context.Context, symbol string, freq entity.Frequency) (entity.TimeSeries, error) {
	u := fmt.Sprintf("%s/timeseries/%s/%s", s.cfg.BaseURL, url.PathEscape(symbol), url.PathEscape(string(freq)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	res, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			s.log.Warn("failed to close response body", zap.Error(err))
		}
	}()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, fmt.Errorf("timeseries http %d", res.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return Decode(body)
}

// Decode converts a wire payload (a JSON object keyed by timestamp) into a
// TimeSeries. Numeric strings are accepted wherever a number is expected.
func Decode(body []byte) (entity.TimeSeries, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: malformed json", domain.ErrInvalidPayload)
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: expected object, got %s", domain.ErrInvalidPayload, root.Type)
	}

	out := make(entity.TimeSeries)
	var decodeErr error
	root.ForEach(func(key, value gjson.Result) bool {
		q, err := decodeQuote(value)
		if err != nil {
			decodeErr = fmt.Errorf("%w: entry %q: %w", domain.ErrInvalidPayload, key.String(), err)
			return false
		}
		out[key.String()] = q
		return true
	})
	if decodeErr != nil {
		return nil, decodeErr
	}
	return out, nil
}

func decodeQuote(v gjson.Result) (entity.Quote, error) {
	if !v.IsObject() {
		return entity.Quote{}, fmt.Errorf("expected object, got %s", v.Type)
	}

	var q entity.Quote
	var err error
	// OHLC は必須
	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"open", &q.Open},
		{"high", &q.High},
		{"low", &q.Low},
		{"close", &q.Close},
	} {
		if *f.dst, err = required(v, f.name); err != nil {
			return entity.Quote{}, err
		}
	}

	// それ以外は欠損・null・非数値なら 0（未計算）
	q.Volume = optional(v, "volume")
	q.EMA20 = optional(v, "ema20")
	q.EMA50 = optional(v, "ema50")
	q.EMA100 = optional(v, "ema100")
	q.EMA200 = optional(v, "ema200")
	q.ATR = optional(v, "atr")
	q.StochK = optional(v, "stoch_K")
	q.StochD = optional(v, "stoch_D")
	return q, nil
}

func required(v gjson.Result, field string) (float64, error) {
	r := v.Get(field)
	f, ok := number(r)
	if !ok {
		return 0, fmt.Errorf("field %s: not a number: %s", field, r.Raw)
	}
	return f, nil
}

func optional(v gjson.Result, field string) float64 {
	f, _ := number(v.Get(field))
	return f
}

// number coerces a JSON number or a numeric string.
func number(r gjson.Result) (float64, bool) {
	switch r.Type {
	case gjson.Number:
		return r.Num, true
	case gjson.String:
		s := strings.TrimSpace(r.Str)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
