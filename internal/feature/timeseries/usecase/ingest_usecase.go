package usecase

import (
	"context"

	"go.uber.org/zap"

	"chart_backend/internal/feature/timeseries/domain/entity"
	"chart_backend/internal/platform/logger"
	"chart_backend/internal/shared/ratelimiter"
)

// DefaultIngestOutputSize は1回のリクエストで取得するバー数です。
// EMA200 のウォームアップを越える件数を確保します。
const DefaultIngestOutputSize = 5000

// MarketRepository は株価データを取得するリポジトリのインターフェイスです。
// 外部 API の実装を抽象化します。
type MarketRepository interface {
	GetTimeSeries(ctx context.Context, symbol, interval string, outputsize int) ([]entity.Bar, error)
}

// QuoteRepository persists indicator-enriched series.
type QuoteRepository interface {
	UpsertSeries(ctx context.Context, symbol string, freq entity.Frequency, series entity.TimeSeries) error
}

// SnapshotInvalidator drops shared cached snapshots for a symbol after new data lands.
type SnapshotInvalidator interface {
	Invalidate(ctx context.Context, symbol string) error
}

// IngestResult は1回の取り込みの集計です。
type IngestResult struct {
	Succeeded int
	Failed    int
}

// IngestUsecase は外部APIからデータを取得し、インジケーターを付与してデータベースに永続化します。
type IngestUsecase struct {
	market      MarketRepository
	quotes      QuoteRepository
	invalidator SnapshotInvalidator
	rateLimiter ratelimiter.RateLimiterInterface
	outputSize  int
	log         *zap.Logger
}

// NewIngestUsecase は新しい IngestUsecase を作成します。invalidator は nil でも構いません。
func NewIngestUsecase(market MarketRepository, quotes QuoteRepository, invalidator SnapshotInvalidator,
	rateLimiter ratelimiter.RateLimiterInterface, outputSize int, log *zap.Logger) *IngestUsecase {
	if outputSize <= 0 {
		outputSize = DefaultIngestOutputSize
	}
	return &IngestUsecase{
		market:      market,
		quotes:      quotes,
		invalidator: invalidator,
		rateLimiter: rateLimiter,
		outputSize:  outputSize,
		log:         logger.OrNop(log),
	}
}

// ingestOne は1銘柄・1時間足を取得し、インジケーターを計算して保存します。
func (iu *IngestUsecase) ingestOne(ctx context.Context, symbol string, freq entity.Frequency) (int, error) {
	bars, err := iu.market.GetTimeSeries(ctx, symbol, freq.Interval(), iu.outputSize)
	if err != nil {
		return 0, err
	}
	series := BuildSeries(bars)
	if err := iu.quotes.UpsertSeries(ctx, symbol, freq, series); err != nil {
		return 0, err
	}
	return len(series), nil
}

// IngestAll は全銘柄を日足・週足・月足で取り込みます。
// 1つの銘柄でエラーが発生しても処理を止めずにログに出力し、次の処理を続けます。
// ctx がキャンセルされた場合のみエラーを返します。
func (iu *IngestUsecase) IngestAll(ctx context.Context, symbols []string) (IngestResult, error) {
	var res IngestResult
	for _, s := range symbols {
		touched := false
		for _, freq := range entity.Frequencies {
			if err := iu.rateLimiter.Wait(ctx); err != nil {
				return res, err
			}
			n, err := iu.ingestOne(ctx, s, freq)
			if err != nil {
				if ctx.Err() != nil {
					return res, ctx.Err()
				}
				res.Failed++
				iu.log.Error("failed to ingest data",
					zap.String("symbol", s),
					zap.String("frequency", string(freq)),
					zap.Error(err),
				)
				continue
			}
			res.Succeeded++
			touched = true
			iu.log.Info("ingested series",
				zap.String("symbol", s),
				zap.String("frequency", string(freq)),
				zap.Int("bars", n),
			)
		}

		if touched && iu.invalidator != nil {
			// ベストエフォート: キャッシュ削除の失敗は取り込み失敗にしない
			if err := iu.invalidator.Invalidate(ctx, s); err != nil {
				iu.log.Warn("failed to invalidate snapshot cache", zap.String("symbol", s), zap.Error(err))
			}
		}
	}
	return res, nil
}
