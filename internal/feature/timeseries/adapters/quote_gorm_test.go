package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"chart_backend/internal/feature/timeseries/domain"
	"chart_backend/internal/feature/timeseries/domain/entity"
)

// setupTestDB prepares an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to initialize test database")

	// :memory: は接続ごとに別DBになるため1接続に固定する
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&QuoteModel{})
	require.NoError(t, err, "failed to migrate table")

	return db
}

func TestNewQuoteRepository(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewQuoteRepository(db)

	assert.NotNil(t, repo)
	assert.NotNil(t, repo.db)
}

func TestQuoteGorm_UpsertAndFind(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewQuoteRepository(db)
	ctx := context.Background()

	series := entity.TimeSeries{
		"2024-01-02": {Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 100, EMA20: 1.4, StochK: 55.5},
		"2024-01-03": {Open: 2, High: 3, Low: 1, Close: 2.5, Volume: 200, ATR: 0.7, StochD: 44.4},
	}
	require.NoError(t, repo.UpsertSeries(ctx, "AAPL", entity.Daily, series))

	got, err := repo.FindSeries(ctx, "AAPL", entity.Daily)
	require.NoError(t, err)
	assert.Equal(t, series, got)

	// 別の時間足・別の銘柄は混ざらない
	weekly, err := repo.FindSeries(ctx, "AAPL", entity.Weekly)
	require.NoError(t, err)
	assert.Empty(t, weekly)

	other, err := repo.FindSeries(ctx, "MSFT", entity.Daily)
	require.NoError(t, err)
	assert.NotNil(t, other)
	assert.Empty(t, other)
}

func TestQuoteGorm_UpsertUpdatesOnConflict(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewQuoteRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.UpsertSeries(ctx, "AAPL", entity.Daily, entity.TimeSeries{
		"2024-01-02": {Open: 1, Close: 1.5},
	}))
	require.NoError(t, repo.UpsertSeries(ctx, "AAPL", entity.Daily, entity.TimeSeries{
		"2024-01-02": {Open: 1, Close: 9.9, EMA20: 3.3},
		"2024-01-03": {Open: 2, Close: 2.5},
	}))

	var count int64
	require.NoError(t, db.Model(&QuoteModel{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)

	got, err := repo.FindSeries(ctx, "AAPL", entity.Daily)
	require.NoError(t, err)
	assert.Equal(t, 9.9, got["2024-01-02"].Close)
	assert.Equal(t, 3.3, got["2024-01-02"].EMA20)
}

func TestQuoteGorm_UpsertEmpty(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewQuoteRepository(db)

	assert.NoError(t, repo.UpsertSeries(context.Background(), "AAPL", entity.Daily, entity.TimeSeries{}))
}

func TestQuoteGorm_FetchSeries(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewQuoteRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.UpsertSeries(ctx, "7203.T", entity.Monthly, entity.TimeSeries{
		"2024-01-01": {Close: 2500},
	}))

	got, err := repo.FetchSeries(ctx, "7203.T", entity.Monthly)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = repo.FetchSeries(ctx, " ", entity.Monthly)
	assert.ErrorIs(t, err, domain.ErrInvalidSymbol)
}

func TestQuoteGorm_FindSeries_DBError(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	repo := NewQuoteRepository(db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = repo.FindSeries(context.Background(), "AAPL", entity.Daily)
	assert.Error(t, err)
}
