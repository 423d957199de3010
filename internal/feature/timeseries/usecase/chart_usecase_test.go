package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chart_backend/internal/feature/timeseries/domain/entity"
	"chart_backend/internal/feature/timeseries/usecase"
)

// mockRangeReader はRangeReaderのモック実装です。
type mockRangeReader struct {
	GetRangeFunc func(ctx context.Context, symbol string, freq entity.Frequency, rng entity.Range) (entity.TimeSeries, error)
}

func (m *mockRangeReader) GetRange(ctx context.Context, symbol string, freq entity.Frequency, rng entity.Range) (entity.TimeSeries, error) {
	return m.GetRangeFunc(ctx, symbol, freq, rng)
}

func TestChartUsecase_GetChart(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		freq     entity.Frequency
		rng      entity.Range
		wantFreq entity.Frequency
	}{
		{"month derives daily", "", entity.Month, entity.Daily},
		{"year derives weekly", "", entity.Year, entity.Weekly},
		{"ten years derives monthly", "", entity.TenYears, entity.Monthly},
		{"explicit frequency wins", entity.Daily, entity.TenYears, entity.Daily},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			reader := &mockRangeReader{
				GetRangeFunc: func(ctx context.Context, symbol string, freq entity.Frequency, rng entity.Range) (entity.TimeSeries, error) {
					assert.Equal(t, "AAPL", symbol)
					assert.Equal(t, tt.wantFreq, freq)
					assert.Equal(t, tt.rng, rng)
					return entity.TimeSeries{"2024-01-01": {Open: 1, High: 2, Low: 0.5, Close: 1.5, Volume: 10}}, nil
				},
			}
			uc := usecase.NewChartUsecase(reader)

			view, err := uc.GetChart(context.Background(), "AAPL", tt.freq, tt.rng)
			require.NoError(t, err)

			assert.Equal(t, tt.wantFreq, view.Frequency)
			assert.Equal(t, "AAPL ("+tt.rng.Label()+")", view.Title)
			assert.Len(t, view.Chart.Bars, 1)
		})
	}
}

func TestChartUsecase_GetChart_Error(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("upstream down")
	reader := &mockRangeReader{
		GetRangeFunc: func(ctx context.Context, symbol string, freq entity.Frequency, rng entity.Range) (entity.TimeSeries, error) {
			return nil, wantErr
		},
	}
	uc := usecase.NewChartUsecase(reader)

	_, err := uc.GetChart(context.Background(), "AAPL", "", entity.Year)

	assert.ErrorIs(t, err, wantErr)
}

func TestChartUsecase_GetSeries(t *testing.T) {
	t.Parallel()

	want := entity.TimeSeries{"2024-01-01": {Close: 1}}
	reader := &mockRangeReader{
		GetRangeFunc: func(ctx context.Context, symbol string, freq entity.Frequency, rng entity.Range) (entity.TimeSeries, error) {
			assert.Equal(t, entity.Weekly, freq)
			return want, nil
		},
	}
	uc := usecase.NewChartUsecase(reader)

	got, err := uc.GetSeries(context.Background(), "AAPL", "", entity.Year)

	require.NoError(t, err)
	assert.Equal(t, want, got)
}
