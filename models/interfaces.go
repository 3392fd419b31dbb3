package models

import "context"

// TrendClient fetches the recent candle window for a trading pair.
type TrendClient interface {
	GetTrend(ctx context.Context, pair string) (TrendSeries, error)
}
