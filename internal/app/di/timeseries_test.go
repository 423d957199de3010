package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chart_backend/internal/feature/timeseries/domain/entity"
	"chart_backend/internal/feature/timeseries/usecase"
	"chart_backend/internal/platform/config"
	"chart_backend/internal/platform/externalapi/twelvedata"
)

type stubFetcher struct {
	calls int
}

func (s *stubFetcher) FetchSeries(ctx context.Context, symbol string, freq entity.Frequency) (entity.TimeSeries, error) {
	s.calls++
	return entity.TimeSeries{"2024-01-02": {Close: 1}}, nil
}

func TestNewSeriesSource_UsesStoreWithoutBaseURL(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{TimeSeries: config.TimeSeriesConfig{FetchTimeout: time.Second}}
	store := &stubFetcher{}

	src := NewSeriesSource(cfg, store, nil, nil)
	got, err := src.FetchSeries(context.Background(), "AAPL", entity.Daily)

	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 1, store.calls)
}

func TestNewSeriesSource_UsesRemoteWithBaseURL(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/timeseries/AAPL/W", r.URL.Path)
		_, _ = w.Write([]byte(`{"2024-01-05":{"open":1,"high":2,"low":1,"close":2},"2024-01-12":{"open":2,"high":3,"low":2,"close":3}}`))
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{TimeSeries: config.TimeSeriesConfig{BaseURL: srv.URL, FetchTimeout: time.Second}}
	store := &stubFetcher{}

	src := NewSeriesSource(cfg, store, nil, nil)
	got, err := src.FetchSeries(context.Background(), "AAPL", entity.Weekly)

	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Zero(t, store.calls)
}

func TestNewRangeCache_KeyMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		keyByFrequency bool
		wantFetches    int
	}{
		{name: "keyed by symbol", keyByFrequency: false, wantFetches: 1},
		{name: "keyed by symbol and frequency", keyByFrequency: true, wantFetches: 2},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := &config.Config{
				TimeSeries: config.TimeSeriesConfig{FetchTimeout: time.Second},
				RangeCache: config.RangeCacheConfig{KeyByFrequency: tt.keyByFrequency},
			}
			store := &stubFetcher{}
			rc := NewRangeCache(cfg, store, nil)

			_, err := rc.GetRange(context.Background(), "AAPL", entity.Daily, entity.Month)
			require.NoError(t, err)
			_, err = rc.GetRange(context.Background(), "AAPL", entity.Weekly, entity.Month)
			require.NoError(t, err)

			assert.Equal(t, tt.wantFetches, store.calls)
		})
	}
}

func TestNewMarket(t *testing.T) {
	t.Parallel()

	m := NewMarket(twelvedata.Config{APIKey: "k", BaseURL: twelvedata.DefaultBaseURL, Timeout: time.Second}, nil)
	assert.NotNil(t, m)

	var _ usecase.MarketRepository = m
}
