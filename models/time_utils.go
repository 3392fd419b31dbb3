package models

import (
	"encoding/json"
	"time"
)

// OpenTime returns the candle open time (index 0, unix millis).
// The zero time is returned when the field is missing or not a number.
func (r CandleRow) OpenTime() time.Time {
	return r.millisAt(RowOpenTime)
}

// CloseTime returns the candle close time (index 6, unix millis).
func (r CandleRow) CloseTime() time.Time {
	return r.millisAt(RowCloseTime)
}

func (r CandleRow) millisAt(idx int) time.Time {
	if len(r) <= idx {
		return time.Time{}
	}
	var ms int64
	if err := json.Unmarshal(r[idx], &ms); err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// Window returns the open time of the first candle and the close time of the last one.
func (s TrendSeries) Window() (from, to time.Time) {
	if len(s) == 0 {
		return time.Time{}, time.Time{}
	}
	return s[0].OpenTime(), s[len(s)-1].CloseTime()
}
