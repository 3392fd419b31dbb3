package models

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Kline row layout as returned by /api/v3/klines
const (
	RowOpenTime = iota
	RowOpen
	RowHigh
	RowLow
	RowClose
	RowVolume
	RowCloseTime
)

// CandleRow is one raw OHLCV kline: [openTime, open, high, low, close, volume, closeTime, ...].
// Values are kept undecoded; only the close price is read.
type CandleRow []json.RawMessage

// TrendSeries is an ordered (oldest first) sequence of candle rows for one pair.
type TrendSeries []CandleRow

// ClosePrice parses index 4 of the row. Missing or malformed values yield NaN.
func (r CandleRow) ClosePrice() float64 {
	if len(r) <= RowClose {
		return math.NaN()
	}
	raw := strings.TrimSpace(string(r[RowClose]))
	raw = strings.Trim(raw, `"`)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return math.NaN()
	}
	return d.InexactFloat64()
}

// ClosePrices returns the close of every row, preserving order
func (s TrendSeries) ClosePrices() []float64 {
	prices := make([]float64, len(s))
	for i, row := range s {
		prices[i] = row.ClosePrice()
	}
	return prices
}

// PriceMetrics is derived from a TrendSeries and never stored.
type PriceMetrics struct {
	CurrentPrice  float64   `json:"current_price"`
	ChangePercent float64   `json:"change_percent"`
	ClosePrices   []float64 `json:"close_prices"`
	IsPositive    bool      `json:"is_positive"`
}
