package trend

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Alias1177/TokenTrend/models"
)

var printer = message.NewPrinter(language.English)

// FormatPrice rounds half up to a whole unit and groups thousands ("67,432").
func FormatPrice(price float64) string {
	switch {
	case math.IsNaN(price):
		return "NaN"
	case math.IsInf(price, 1):
		return "∞"
	case math.IsInf(price, -1):
		return "-∞"
	}
	rounded := math.Floor(price + 0.5)
	if math.Abs(rounded) < 1<<63 {
		return printer.Sprintf("%d", int64(rounded))
	}
	n, _ := big.NewFloat(rounded).Int(nil)
	return groupThousands(n.String())
}

// groupThousands inserts commas into a plain integer string. The message
// printer only groups machine-sized integers.
func groupThousands(digits string) string {
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	return sign + b.String()
}

// FormatFixed2 renders v with two decimals; non-finite values are spelled out.
// Rounding works on the exact binary value and ties go away from zero, so
// 0.125 gives "0.13" while 1.005 (really 1.00499...) gives "1.00".
func FormatFixed2(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	cents := new(big.Rat).SetFloat64(math.Abs(v))
	cents.Mul(cents, big.NewRat(100, 1))
	cents.Add(cents, big.NewRat(1, 2))
	n := new(big.Int).Quo(cents.Num(), cents.Denom())

	out := decimal.NewFromBigInt(n, -2).StringFixed(2)
	if v < 0 {
		out = "-" + out
	}
	return out
}

// FormatChange is the signed percentage shown next to the price, e.g. "+10.00%".
func FormatChange(m models.PriceMetrics) string {
	sign := ""
	if m.IsPositive {
		sign = "+"
	}
	return sign + FormatFixed2(m.ChangePercent) + "%"
}

// Direction is "up" for positive or unchanged prices and "down" otherwise.
func Direction(m models.PriceMetrics) string {
	if m.IsPositive {
		return "up"
	}
	return "down"
}

// AriaLabel describes the loaded widget for screen readers.
func AriaLabel(pair string, m models.PriceMetrics) string {
	p := ParsePair(pair)
	price := FormatPrice(m.CurrentPrice)
	if quote := p.QuoteName(); quote != "" {
		price += " " + quote
	}
	return fmt.Sprintf("%s price: %s, %s %s percent in the last 24 hours",
		p.BaseName(), price, Direction(m), FormatFixed2(math.Abs(m.ChangePercent)))
}

// LoadingLabel is announced while no metrics are available.
func LoadingLabel(pair string) string {
	return fmt.Sprintf("Loading %s price data", ParsePair(pair).BaseName())
}

// UnavailableLabel is announced when the data could not be fetched.
func UnavailableLabel(pair string) string {
	return fmt.Sprintf("%s price data unavailable", ParsePair(pair).BaseName())
}
