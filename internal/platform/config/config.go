// Package config は環境変数（と任意の .env）からアプリケーション設定を読み込みます。
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"chart_backend/internal/platform/db"
	"chart_backend/internal/platform/externalapi/twelvedata"
	"chart_backend/internal/platform/redis"
)

// Config represents the application configuration.
type Config struct {
	App        AppConfig         `envPrefix:"APP_"`
	DB         db.Config         `envPrefix:"DB_"`
	Redis      redis.Config      `envPrefix:"REDIS_"`
	TimeSeries TimeSeriesConfig  `envPrefix:"TIMESERIES_"`
	RangeCache RangeCacheConfig  `envPrefix:"RANGE_CACHE_"`
	TwelveData twelvedata.Config `envPrefix:"TWELVE_DATA_"`
	Ingest     IngestConfig      `envPrefix:"INGEST_"`

	RunMigrations bool `env:"RUN_MIGRATIONS" envDefault:"false"`
}

// AppConfig represents the HTTP server settings.
type AppConfig struct {
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	Environment string `env:"ENV" envDefault:"production"`
	// ブラウザのチャート画面から呼ぶときの許可オリジン。空なら CORS ヘッダーを付けない
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:","`
}

// Development reports whether console logging should be used.
func (a AppConfig) Development() bool {
	return a.Environment == "development"
}

// TimeSeriesConfig は範囲キャッシュのデータソース設定です。
// BaseURL が空なら自身のクオートストアを直接読みます。
type TimeSeriesConfig struct {
	BaseURL      string        `env:"BASE_URL"`
	FetchTimeout time.Duration `env:"FETCH_TIMEOUT" envDefault:"15s"`
	SnapshotTTL  time.Duration `env:"SNAPSHOT_TTL" envDefault:"0s"` // 0 なら次の 08:00 JST まで
}

// RangeCacheConfig selects how the in-process range cache is keyed.
type RangeCacheConfig struct {
	KeyByFrequency bool `env:"KEY_BY_FREQUENCY" envDefault:"false"`
}

// IngestConfig は取り込みジョブの設定です。
type IngestConfig struct {
	Schedule   string        `env:"SCHEDULE"` // cron式。空なら1回だけ実行
	OutputSize int           `env:"OUTPUT_SIZE" envDefault:"5000"`
	RateLimit  int           `env:"RATE_LIMIT" envDefault:"8"` // RateWindow あたりのAPI呼び出し数
	RateWindow time.Duration `env:"RATE_WINDOW" envDefault:"1m"`
	Symbols    []string      `env:"SYMBOLS" envSeparator:","` // 起動時に登録する銘柄コード
}

// Load loads the configuration from the environment.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DB.Driver {
	case db.DriverPostgres, db.DriverSQLite:
	default:
		return fmt.Errorf("%w: %q", db.ErrUnsupportedDriver, c.DB.Driver)
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("invalid APP_PORT %d", c.App.Port)
	}
	if c.TimeSeries.FetchTimeout <= 0 {
		return fmt.Errorf("invalid TIMESERIES_FETCH_TIMEOUT %s", c.TimeSeries.FetchTimeout)
	}
	return nil
}
