package trend

import (
	"math"
	"strconv"
	"strings"

	"github.com/Alias1177/TokenTrend/models"
)

// Sparkline viewport
const (
	SparklineWidth  = 40
	SparklineHeight = 12
)

// Calculate derives price metrics from a series. It reports false when
// there are fewer than two candles to compare.
//
// A first close of 0 is not guarded: ChangePercent becomes ±Inf, or NaN
// when the last close is 0 as well.
func Calculate(series models.TrendSeries) (models.PriceMetrics, bool) {
	if len(series) < 2 {
		return models.PriceMetrics{}, false
	}

	closePrices := series.ClosePrices()
	firstClose := closePrices[0]
	currentPrice := closePrices[len(closePrices)-1]
	changePercent := (currentPrice - firstClose) / firstClose * 100

	return models.PriceMetrics{
		CurrentPrice:  currentPrice,
		ChangePercent: changePercent,
		ClosePrices:   closePrices,
		IsPositive:    changePercent >= 0,
	}, true
}

// SparklinePath maps prices into the 40x12 viewport and returns an SVG path
// of the form "M x0,y0 L x1,y1 ...". Higher prices sit closer to y=0; a flat
// series is drawn on the midline.
func SparklinePath(closePrices []float64) string {
	if len(closePrices) == 0 {
		return ""
	}

	lo, hi := closePrices[0], closePrices[0]
	for _, p := range closePrices[1:] {
		lo = math.Min(lo, p)
		hi = math.Max(hi, p)
	}
	span := hi - lo

	points := make([]string, len(closePrices))
	for i, p := range closePrices {
		y := SparklineHeight / 2.0
		if span != 0 {
			y = SparklineHeight - (p-lo)/span*SparklineHeight
		}
		x := 0.0
		if len(closePrices) > 1 {
			x = float64(i) / float64(len(closePrices)-1) * SparklineWidth
		}
		points[i] = formatCoord(x) + "," + formatCoord(y)
	}

	return "M" + strings.Join(points, " L")
}

func formatCoord(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
