package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"chart_backend/internal/app/di"
	symbollistadapters "chart_backend/internal/feature/symbollist/adapters"
	symbolentity "chart_backend/internal/feature/symbollist/domain/entity"
	symbollistusecase "chart_backend/internal/feature/symbollist/usecase"
	timeseriesadapters "chart_backend/internal/feature/timeseries/adapters"
	timeseriesusecase "chart_backend/internal/feature/timeseries/usecase"
	"chart_backend/internal/platform/cache"
	"chart_backend/internal/platform/config"
	infradb "chart_backend/internal/platform/db"
	"chart_backend/internal/platform/logger"
	infraredis "chart_backend/internal/platform/redis"
	"chart_backend/internal/shared/ratelimiter"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.App.LogLevel, cfg.App.Development())
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := infradb.Open(cfg.DB, log)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.RunMigrations {
		if err := infradb.Migrate(db, &timeseriesadapters.QuoteModel{}, &symbolentity.Symbol{}); err != nil {
			return err
		}
	}

	// 取り込み後にスナップショットを消すためだけに使う
	rdb, err := infraredis.NewRedisClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Warn("Redis unavailable. Snapshots will expire by TTL only.", zap.Error(err))
		rdb = nil
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	marketRepo := di.NewMarket(cfg.TwelveData, log)
	quoteRepo := timeseriesadapters.NewQuoteRepository(db)
	snapshots := cache.NewCachingSeriesSource(rdb, cfg.TimeSeries.SnapshotTTL, quoteRepo, cache.DefaultNamespace, log)
	symbolUC := symbollistusecase.NewSymbolUsecase(symbollistadapters.NewSymbolRepository(db))

	limiter := ratelimiter.NewRateLimiter(cfg.Ingest.RateLimit, cfg.Ingest.RateWindow)
	limiter.OnWait(func(d time.Duration) {
		log.Info("rate limit reached, waiting", zap.Duration("wait", d))
	})
	uc := timeseriesusecase.NewIngestUsecase(marketRepo, quoteRepo, snapshots, limiter, cfg.Ingest.OutputSize, log)

	if len(cfg.Ingest.Symbols) > 0 {
		if err := symbolUC.Register(ctx, cfg.Ingest.Symbols); err != nil {
			return fmt.Errorf("failed to register symbols: %w", err)
		}
	}

	job := func(ctx context.Context) error {
		symbols, err := symbolUC.ActiveCodes(ctx)
		if err != nil {
			return fmt.Errorf("failed to load symbols: %w", err)
		}
		start := time.Now()
		res, err := uc.IngestAll(ctx, symbols)
		log.Info("ingest finished",
			zap.Int("symbols", len(symbols)),
			zap.Int("succeeded", res.Succeeded),
			zap.Int("failed", res.Failed),
			zap.Duration("elapsed", time.Since(start)),
		)
		return err
	}

	if cfg.Ingest.Schedule == "" {
		return job(ctx)
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(zap.NewStdLog(log)))))
	if _, err := c.AddFunc(cfg.Ingest.Schedule, func() {
		if err := job(ctx); err != nil {
			log.Error("ingest failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("invalid INGEST_SCHEDULE %q: %w", cfg.Ingest.Schedule, err)
	}
	c.Start()
	log.Info("ingest scheduler started", zap.String("schedule", cfg.Ingest.Schedule))

	<-ctx.Done()
	// 実行中のジョブは ctx のキャンセルで止まる
	<-c.Stop().Done()
	log.Info("ingest scheduler stopped")
	return nil
}
