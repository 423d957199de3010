// Package usecase はOHLC時系列データの取得・範囲フィルタ・チャート用射影のビジネスロジックを実装します。
package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"chart_backend/internal/feature/timeseries/domain"
	"chart_backend/internal/feature/timeseries/domain/entity"
	"chart_backend/internal/platform/logger"
)

const (
	// DailyWindow は日足リクエストのカットオフ幅です（365日×2）。
	DailyWindow = 2 * 365 * 24 * time.Hour
	// LongWindow は週足・月足リクエストのカットオフ幅です（365日×10）。
	LongWindow = 10 * 365 * 24 * time.Hour
	// DefaultFetchTimeout は1回の上流フェッチに許される最大時間です。
	DefaultFetchTimeout = 15 * time.Second
)

// SeriesFetcher はシンボルと時間足から完全な時系列を取得するデータソースです。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type SeriesFetcher interface {
	FetchSeries(ctx context.Context, symbol string, freq entity.Frequency) (entity.TimeSeries, error)
}

// KeyMode selects what a cache entry is keyed by.
type KeyMode int

const (
	// KeyBySymbol keys entries by symbol alone. A later request with another
	// frequency re-filters the data fetched for the first one.
	KeyBySymbol KeyMode = iota
	// KeyBySymbolFrequency keys entries by (symbol, frequency).
	KeyBySymbolFrequency
)

// cacheEntry は1キー分の取得済みデータです。一度書き込まれたら更新されません。
type cacheEntry struct {
	freq   entity.Frequency // 実際に取得したときの時間足
	series entity.TimeSeries
}

// RangeCache holds the full series fetched per key and serves cutoff-filtered
// subsets of it. Each key is fetched successfully at most once per cache
// lifetime; concurrent first requests share one in-flight fetch.
type RangeCache struct {
	source  SeriesFetcher
	keyMode KeyMode
	timeout time.Duration
	now     func() time.Time
	log     *zap.Logger

	mu      sync.RWMutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

// RangeCacheOption は RangeCache の生成オプションです。
type RangeCacheOption func(*RangeCache)

// WithKeyMode sets the cache key mode. The default is KeyBySymbol.
func WithKeyMode(m KeyMode) RangeCacheOption {
	return func(c *RangeCache) { c.keyMode = m }
}

// WithFetchTimeout は上流フェッチのタイムアウトを設定します。0以下は既定値のままです。
func WithFetchTimeout(d time.Duration) RangeCacheOption {
	return func(c *RangeCache) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) RangeCacheOption {
	return func(c *RangeCache) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) RangeCacheOption {
	return func(c *RangeCache) { c.log = logger.OrNop(l) }
}

// NewRangeCache は空のキャッシュを生成します。
func NewRangeCache(source SeriesFetcher, opts ...RangeCacheOption) *RangeCache {
	c := &RangeCache{
		source:  source,
		keyMode: KeyBySymbol,
		timeout: DefaultFetchTimeout,
		now:     time.Now,
		log:     zap.NewNop(),
		entries: make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetRange returns the cached series for symbol filtered to keys >= Cutoff(now, freq).
// The first call for a key fetches from the source; later calls only filter.
// rng is accepted for the caller's bookkeeping but does not affect the window.
func (c *RangeCache) GetRange(ctx context.Context, symbol string, freq entity.Frequency, rng entity.Range) (entity.TimeSeries, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, domain.ErrInvalidSymbol
	}
	freq, err := entity.ParseFrequency(string(freq))
	if err != nil {
		return nil, err
	}

	e, err := c.load(ctx, symbol, freq)
	if err != nil {
		return nil, err
	}
	if e.freq != freq {
		c.log.Debug("serving series fetched for another frequency",
			zap.String("symbol", symbol),
			zap.String("fetched", string(e.freq)),
			zap.String("requested", string(freq)),
			zap.Stringer("range", rng),
		)
	}

	return e.series.Since(Cutoff(c.now(), freq)), nil
}

// Cutoff formats now minus the frequency's window as a UTC YYYY-MM-DD key.
func Cutoff(now time.Time, freq entity.Frequency) string {
	w := LongWindow
	if freq == entity.Daily {
		w = DailyWindow
	}
	return now.Add(-w).UTC().Format(entity.DateLayout)
}

// Len は保持しているエントリ数を返します。
func (c *RangeCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Cached reports whether data for the key of (symbol, freq) is held.
func (c *RangeCache) Cached(symbol string, freq entity.Frequency) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[c.key(strings.TrimSpace(symbol), freq)]
	return ok
}

func (c *RangeCache) key(symbol string, freq entity.Frequency) string {
	if c.keyMode == KeyBySymbolFrequency {
		return symbol + "|" + string(freq)
	}
	return symbol
}

func (c *RangeCache) lookup(key string) (cacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok
}

// load returns the entry for the key, fetching it once if absent.
// A cancelled ctx only stops this caller from waiting.
func (c *RangeCache) load(ctx context.Context, symbol string, freq entity.Frequency) (cacheEntry, error) {
	key := c.key(symbol, freq)
	if e, ok := c.lookup(key); ok {
		return e, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		// 待機中に別のフライトが書き込んでいる可能性がある
		if e, ok := c.lookup(key); ok {
			return e, nil
		}

		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()

		start := time.Now()
		series, err := c.source.FetchSeries(fctx, symbol, freq)
		if err != nil {
			c.log.Warn("series fetch failed",
				zap.String("symbol", symbol),
				zap.String("frequency", string(freq)),
				zap.Error(err),
			)
			return nil, err
		}
		if series == nil {
			series = entity.TimeSeries{}
		}

		e := cacheEntry{freq: freq, series: series}
		c.mu.Lock()
		c.entries[key] = e
		c.mu.Unlock()

		c.log.Info("series cached",
			zap.String("symbol", symbol),
			zap.String("frequency", string(freq)),
			zap.Int("entries", len(series)),
			zap.Duration("elapsed", time.Since(start)),
		)
		return e, nil
	})

	select {
	case <-ctx.Done():
		return cacheEntry{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return cacheEntry{}, fmt.Errorf("%w %q: %w", domain.ErrNoData, symbol, res.Err)
		}
		return res.Val.(cacheEntry), nil
	}
}
