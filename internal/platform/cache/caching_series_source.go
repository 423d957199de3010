// Package cache provides Redis caching decorators for the series fetchers.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"chart_backend/internal/feature/timeseries/domain/entity"
	"chart_backend/internal/feature/timeseries/usecase"
	"chart_backend/internal/platform/logger"
)

// DefaultNamespace is the key prefix used when none is given.
const DefaultNamespace = "timeseries"

// scanCount は SCAN 1回あたりのヒント件数です。
const scanCount = 200

// CachingSeriesSource decorates a SeriesFetcher with a Redis snapshot shared
// across processes. A nil client bypasses the cache entirely.
type CachingSeriesSource struct {
	inner     usecase.SeriesFetcher
	rdb       *redis.Client
	ttl       func() time.Duration
	namespace string
	log       *zap.Logger
}

var (
	_ usecase.SeriesFetcher       = (*CachingSeriesSource)(nil)
	_ usecase.SnapshotInvalidator = (*CachingSeriesSource)(nil)
)

// NewCachingSeriesSource wraps inner with Redis. If ttl is 0 the entries
// live until the next 08:00 JST, after the daily ingest has run. If
// namespace is empty, it uses "timeseries".
func NewCachingSeriesSource(rdb *redis.Client, ttl time.Duration, inner usecase.SeriesFetcher, namespace string, log *zap.Logger) *CachingSeriesSource {
	ttlFn := TimeUntilNext8AM
	if ttl > 0 {
		ttlFn = func() time.Duration { return ttl }
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &CachingSeriesSource{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttlFn,
		namespace: namespace,
		log:       logger.OrNop(log),
	}
}

// FetchSeries returns the cached snapshot for (symbol, freq), falling back to
// the inner source on a miss.
func (c *CachingSeriesSource) FetchSeries(ctx context.Context, symbol string, freq entity.Frequency) (entity.TimeSeries, error) {
	if c.rdb == nil {
		return c.inner.FetchSeries(ctx, symbol, freq)
	}

	key := c.cacheKey(symbol, freq)

	// 1) キャッシュを確認
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out entity.TimeSeries
		if err := json.Unmarshal(b, &out); err == nil && out != nil {
			return out, nil
		}
		// 壊れたエントリは削除
		c.log.Warn("dropping corrupted snapshot", zap.String("key", key))
		_ = c.rdb.Del(ctx, key).Err()
	} else if err != nil && !errors.Is(err, redis.Nil) {
		c.log.Warn("snapshot cache read failed", zap.String("key", key), zap.Error(err))
	}

	// 2) 元のデータソースから取得
	out, err := c.inner.FetchSeries(ctx, symbol, freq)
	if err != nil {
		return nil, err
	}

	// 3) キャッシュに保存（ベストエフォート）
	if b, err := json.Marshal(out); err == nil {
		if err := c.rdb.Set(ctx, key, b, c.ttl()).Err(); err != nil {
			c.log.Warn("snapshot cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return out, nil
}

// Invalidate drops every frequency cached for symbol.
func (c *CachingSeriesSource) Invalidate(ctx context.Context, symbol string) error {
	if c.rdb == nil {
		return nil
	}
	return c.deleteByPattern(ctx, c.cacheKeyPrefix(symbol)+"*")
}

func (c *CachingSeriesSource) cacheKey(symbol string, freq entity.Frequency) string {
	return fmt.Sprintf("%s:%s:%s", c.namespace, safe(symbol), safe(string(freq)))
}

func (c *CachingSeriesSource) cacheKeyPrefix(symbol string) string {
	return fmt.Sprintf("%s:%s:", c.namespace, safe(symbol))
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingSeriesSource) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, scanCount).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			return nil
		}
	}
}

// keyReplacer は Redis キーの区切り文字と SCAN のグロブ文字を潰します。
var keyReplacer = strings.NewReplacer(
	" ", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"[", "_",
	"]", "_",
)

// safe escapes characters that are problematic for Redis keys and patterns.
func safe(s string) string {
	return keyReplacer.Replace(s)
}
