package httpsource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chart_backend/internal/feature/timeseries/domain"
	"chart_backend/internal/feature/timeseries/domain/entity"
)

func newTestServer(t *testing.T, status int, body string, check func(r *http.Request)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSource_FetchSeries_Success(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, http.StatusOK, `{
		"2024-01-02": {"open": 1, "high": "2.5", "low": 0.5, "close": "1.5", "volume": 1000,
			"ema20": 1.4, "ema50": null, "atr": "0.3", "stoch_K": 55.5, "stoch_D": "x"},
		"2024-01-03": {"open": "2", "high": 3, "low": 1, "close": 2.5}
	}`, func(r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/timeseries/AAPL/D", r.URL.Path)
	})

	src := NewSource(Config{BaseURL: srv.URL + "/"}, srv.Client(), nil)
	got, err := src.FetchSeries(context.Background(), "AAPL", entity.Daily)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, entity.Quote{
		Open: 1, High: 2.5, Low: 0.5, Close: 1.5, Volume: 1000,
		EMA20: 1.4, ATR: 0.3, StochK: 55.5,
	}, got["2024-01-02"])
	assert.Equal(t, entity.Quote{Open: 2, High: 3, Low: 1, Close: 2.5}, got["2024-01-03"])
}

func TestSource_FetchSeries_EscapesSymbol(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, http.StatusOK, `{}`, func(r *http.Request) {
		assert.Equal(t, "/timeseries/BRK%2FB/W", r.URL.EscapedPath())
	})

	src := NewSource(Config{BaseURL: srv.URL}, srv.Client(), nil)
	got, err := src.FetchSeries(context.Background(), "BRK/B", entity.Weekly)

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSource_FetchSeries_HTTPError(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, http.StatusInternalServerError, `{"error":"boom"}`, nil)

	src := NewSource(Config{BaseURL: srv.URL}, srv.Client(), nil)
	_, err := src.FetchSeries(context.Background(), "AAPL", entity.Daily)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeseries http 500")
}

func TestSource_FetchSeries_ContextCancelled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	src := NewSource(Config{BaseURL: srv.URL}, srv.Client(), nil)
	_, err := src.FetchSeries(ctx, "AAPL", entity.Daily)

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSource_FetchSeries_NetworkError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	src := NewSource(Config{BaseURL: url}, nil, nil)
	_, err := src.FetchSeries(context.Background(), "AAPL", entity.Daily)

	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantLen int
		wantErr bool
	}{
		{name: "empty object", body: `{}`, wantLen: 0},
		{name: "intraday key", body: `{"2024-01-02 09:30:00": {"open":1,"high":1,"low":1,"close":1}}`, wantLen: 1},
		{name: "null body", body: `null`, wantErr: true},
		{name: "array body", body: `[]`, wantErr: true},
		{name: "malformed", body: `{"2024-01-02":`, wantErr: true},
		{name: "empty body", body: ``, wantErr: true},
		{name: "entry not object", body: `{"2024-01-02": 5}`, wantErr: true},
		{name: "missing close", body: `{"2024-01-02": {"open":1,"high":1,"low":1}}`, wantErr: true},
		{name: "non numeric open", body: `{"2024-01-02": {"open":"abc","high":1,"low":1,"close":1}}`, wantErr: true},
		{name: "partially numeric string", body: `{"2024-01-02": {"open":"12abc","high":1,"low":1,"close":1}}`, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Decode([]byte(tt.body))
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidPayload)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.wantLen)
		})
	}
}
