// Package adapters はtimeseriesフィーチャーの永続化実装を提供します。
package adapters

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chart_backend/internal/feature/timeseries/domain"
	"chart_backend/internal/feature/timeseries/domain/entity"
	"chart_backend/internal/feature/timeseries/usecase"
)

// upsertBatchSize は1回のINSERTに含める最大行数です。
const upsertBatchSize = 500

type quoteGorm struct {
	db *gorm.DB
}

var (
	_ usecase.QuoteRepository = (*quoteGorm)(nil)
	_ usecase.SeriesFetcher   = (*quoteGorm)(nil)
)

// NewQuoteRepository は指定されたDB接続でクオートリポジトリを生成します。
func NewQuoteRepository(db *gorm.DB) *quoteGorm {
	return &quoteGorm{db: db}
}

// QuoteModel は quotes テーブルの1行です。
type QuoteModel struct {
	ID        uint   `gorm:"primaryKey"`
	Symbol    string `gorm:"size:32;not null;uniqueIndex:quote_sym_freq_date,priority:1"`
	Frequency string `gorm:"size:1;not null;uniqueIndex:quote_sym_freq_date,priority:2"`
	Date      string `gorm:"column:bar_date;size:19;not null;uniqueIndex:quote_sym_freq_date,priority:3"`

	Open   float64 `gorm:"not null"`
	High   float64 `gorm:"not null"`
	Low    float64 `gorm:"not null"`
	Close  float64 `gorm:"not null"`
	Volume float64 `gorm:"not null;default:0"`

	EMA20  float64 `gorm:"column:ema20;not null;default:0"`
	EMA50  float64 `gorm:"column:ema50;not null;default:0"`
	EMA100 float64 `gorm:"column:ema100;not null;default:0"`
	EMA200 float64 `gorm:"column:ema200;not null;default:0"`
	ATR    float64 `gorm:"column:atr;not null;default:0"`
	StochK float64 `gorm:"column:stoch_k;not null;default:0"`
	StochD float64 `gorm:"column:stoch_d;not null;default:0"`
}

func (QuoteModel) TableName() string {
	return "quotes"
}

func toModel(symbol string, freq entity.Frequency, date string, q entity.Quote) QuoteModel {
	return QuoteModel{
		Symbol:    symbol,
		Frequency: string(freq),
		Date:      date,
		Open:      q.Open,
		High:      q.High,
		Low:       q.Low,
		Close:     q.Close,
		Volume:    q.Volume,
		EMA20:     q.EMA20,
		EMA50:     q.EMA50,
		EMA100:    q.EMA100,
		EMA200:    q.EMA200,
		ATR:       q.ATR,
		StochK:    q.StochK,
		StochD:    q.StochD,
	}
}

func toQuote(m QuoteModel) entity.Quote {
	return entity.Quote{
		Open:   m.Open,
		High:   m.High,
		Low:    m.Low,
		Close:  m.Close,
		Volume: m.Volume,
		EMA20:  m.EMA20,
		EMA50:  m.EMA50,
		EMA100: m.EMA100,
		EMA200: m.EMA200,
		ATR:    m.ATR,
		StochK: m.StochK,
		StochD: m.StochD,
	}
}

// UpsertSeries inserts every entry of series, updating value columns on
// (symbol, frequency, date) conflicts.
func (r *quoteGorm) UpsertSeries(ctx context.Context, symbol string, freq entity.Frequency, series entity.TimeSeries) error {
	if len(series) == 0 {
		return nil
	}
	ms := make([]QuoteModel, 0, len(series))
	for _, date := range series.SortedKeys() {
		ms = append(ms, toModel(symbol, freq, date, series[date]))
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "symbol"}, {Name: "frequency"}, {Name: "bar_date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"open", "high", "low", "close", "volume",
			"ema20", "ema50", "ema100", "ema200", "atr", "stoch_k", "stoch_d",
		}),
	}).CreateInBatches(&ms, upsertBatchSize).Error
}

// FindSeries returns every stored bar for (symbol, freq). An unknown symbol
// yields an empty series.
func (r *quoteGorm) FindSeries(ctx context.Context, symbol string, freq entity.Frequency) (entity.TimeSeries, error) {
	var rows []QuoteModel
	if err := r.db.WithContext(ctx).
		Where("symbol = ? AND frequency = ?", symbol, string(freq)).
		Order("bar_date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(entity.TimeSeries, len(rows))
	for _, m := range rows {
		out[m.Date] = toQuote(m)
	}
	return out, nil
}

// FetchSeries lets the store act as the range cache's data source in-process.
func (r *quoteGorm) FetchSeries(ctx context.Context, symbol string, freq entity.Frequency) (entity.TimeSeries, error) {
	if strings.TrimSpace(symbol) == "" {
		return nil, domain.ErrInvalidSymbol
	}
	return r.FindSeries(ctx, symbol, freq)
}
