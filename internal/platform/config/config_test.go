package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chart_backend/internal/platform/db"
)

// 環境変数を書き換えるため、このパッケージのテストは並列実行しない。

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Empty(t, cfg.App.CORSOrigins)
	assert.Equal(t, db.DriverPostgres, cfg.DB.Driver)
	assert.Equal(t, "5432", cfg.DB.Port)
	assert.Equal(t, 60*time.Second, cfg.DB.ConnectTimeout)
	assert.Equal(t, "6379", cfg.Redis.Port)
	assert.Equal(t, 15*time.Second, cfg.TimeSeries.FetchTimeout)
	assert.Zero(t, cfg.TimeSeries.SnapshotTTL)
	assert.False(t, cfg.RangeCache.KeyByFrequency)
	assert.Equal(t, "https://api.twelvedata.com", cfg.TwelveData.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.TwelveData.Timeout)
	assert.Equal(t, 5000, cfg.Ingest.OutputSize)
	assert.Equal(t, 8, cfg.Ingest.RateLimit)
	assert.Equal(t, time.Minute, cfg.Ingest.RateWindow)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_LOG_LEVEL", "debug")
	t.Setenv("APP_ENV", "development")
	t.Setenv("APP_CORS_ORIGINS", "http://localhost:3000,https://chart.example.com")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", "file::memory:")
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("TIMESERIES_BASE_URL", "http://upstream:5000")
	t.Setenv("TIMESERIES_FETCH_TIMEOUT", "3s")
	t.Setenv("RANGE_CACHE_KEY_BY_FREQUENCY", "true")
	t.Setenv("TWELVE_DATA_API_KEY", "secret")
	t.Setenv("INGEST_SCHEDULE", "0 7 * * 1-5")
	t.Setenv("INGEST_SYMBOLS", "AAPL,MSFT,7203.T")
	t.Setenv("RUN_MIGRATIONS", "true")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.True(t, cfg.App.Development())
	assert.Equal(t, []string{"http://localhost:3000", "https://chart.example.com"}, cfg.App.CORSOrigins)
	assert.Equal(t, db.DriverSQLite, cfg.DB.Driver)
	assert.Equal(t, "file::memory:", cfg.DB.DSN)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, "http://upstream:5000", cfg.TimeSeries.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.TimeSeries.FetchTimeout)
	assert.True(t, cfg.RangeCache.KeyByFrequency)
	assert.Equal(t, "secret", cfg.TwelveData.APIKey)
	assert.Equal(t, "0 7 * * 1-5", cfg.Ingest.Schedule)
	assert.Equal(t, []string{"AAPL", "MSFT", "7203.T"}, cfg.Ingest.Symbols)
	assert.True(t, cfg.RunMigrations)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "unsupported driver", key: "DB_DRIVER", val: "mysql"},
		{name: "port out of range", key: "APP_PORT", val: "70000"},
		{name: "port not a number", key: "APP_PORT", val: "http"},
		{name: "bad duration", key: "TIMESERIES_FETCH_TIMEOUT", val: "soon"},
		{name: "zero fetch timeout", key: "TIMESERIES_FETCH_TIMEOUT", val: "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)

			_, err := Load()

			assert.Error(t, err)
		})
	}
}
