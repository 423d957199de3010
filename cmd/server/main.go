package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"chart_backend/internal/app/di"
	"chart_backend/internal/app/router"
	symbollistadapters "chart_backend/internal/feature/symbollist/adapters"
	symbolentity "chart_backend/internal/feature/symbollist/domain/entity"
	symbollisthandler "chart_backend/internal/feature/symbollist/transport/handler"
	symbollistusecase "chart_backend/internal/feature/symbollist/usecase"
	timeseriesadapters "chart_backend/internal/feature/timeseries/adapters"
	timeserieshandler "chart_backend/internal/feature/timeseries/transport/handler"
	timeseriesusecase "chart_backend/internal/feature/timeseries/usecase"
	"chart_backend/internal/platform/config"
	infradb "chart_backend/internal/platform/db"
	platformhandler "chart_backend/internal/platform/http/handler"
	"chart_backend/internal/platform/logger"
	infraredis "chart_backend/internal/platform/redis"
)

const shutdownTimeout = 10 * time.Second

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

	// db
	db, err := infradb.Open(cfg.DB, log)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.RunMigrations {
		if err := infradb.Migrate(db, &timeseriesadapters.QuoteModel{}, &symbolentity.Symbol{}); err != nil {
			return err
		}
	}

	// Redis（なくても動作する）
	rdb, err := infraredis.NewRedisClient(ctx, cfg.Redis, log)
	if err != nil {
		log.Warn("Redis unavailable. Running without snapshot cache.", zap.Error(err))
		rdb = nil
	}
	if rdb != nil {
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Error("failed to close Redis client", zap.Error(err))
			}
		}()
	}

	// Repository
	quoteRepo := timeseriesadapters.NewQuoteRepository(db)
	symbolRepo := symbollistadapters.NewSymbolRepository(db)

	// 範囲キャッシュ（Redisスナップショットでラップしたデータソースの上に載る）
	source := di.NewSeriesSource(cfg, quoteRepo, rdb, log)
	rangeCache := di.NewRangeCache(cfg, source, log)

	// Usecase
	chartUC := timeseriesusecase.NewChartUsecase(rangeCache)
	symbolUC := symbollistusecase.NewSymbolUsecase(symbolRepo)

	// Handler
	checks := map[string]platformhandler.Check{
		"database": func(ctx context.Context) error { return infradb.Ping(ctx, db) },
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	healthH := platformhandler.NewHealthHandler(checks)
	timeseriesH := timeserieshandler.NewTimeSeriesHandler(quoteRepo, chartUC)
	symbolH := symbollisthandler.NewSymbolHandler(symbolUC)

	// ルータ生成
	r := router.NewRouter(cfg.App.CORSOrigins, healthH, timeseriesH, symbolH)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		shCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shCtx)
	case err := <-errCh:
		return err
	}
}
