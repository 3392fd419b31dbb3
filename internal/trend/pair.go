package trend

import "strings"

// longest first so FDUSD wins over USD-suffixed lookalikes
var quoteAssets = []string{"FDUSD", "USDT", "USDC", "BUSD", "TUSD", "BTC", "ETH", "BNB", "EUR", "TRY"}

var assetNames = map[string]string{
	"BTC":  "Bitcoin",
	"ETH":  "Ethereum",
	"BNB":  "BNB",
	"SOL":  "Solana",
	"XRP":  "XRP",
	"ADA":  "Cardano",
	"DOGE": "Dogecoin",
	"DOT":  "Polkadot",
	"LTC":  "Litecoin",
	"TRX":  "TRON",
}

var quoteNames = map[string]string{
	"USDT":  "US Dollars",
	"USDC":  "US Dollars",
	"BUSD":  "US Dollars",
	"TUSD":  "US Dollars",
	"FDUSD": "US Dollars",
	"EUR":   "Euros",
	"TRY":   "Turkish Lira",
	"BTC":   "Bitcoin",
	"ETH":   "Ether",
	"BNB":   "BNB",
}

// Pair is an exchange symbol split into its base and quote assets.
// Quote is empty when the symbol does not end in a known quote asset.
type Pair struct {
	Symbol string
	Base   string
	Quote  string
}

func ParsePair(symbol string) Pair {
	upper := strings.ToUpper(symbol)
	for _, q := range quoteAssets {
		if len(upper) > len(q) && strings.HasSuffix(upper, q) {
			return Pair{Symbol: symbol, Base: upper[:len(upper)-len(q)], Quote: q}
		}
	}
	return Pair{Symbol: symbol, Base: upper}
}

// Label is the short heading shown on the widget, e.g. "BTC/USDT".
func (p Pair) Label() string {
	if p.Quote == "" {
		return p.Base
	}
	return p.Base + "/" + p.Quote
}

func (p Pair) BaseName() string {
	if name, ok := assetNames[p.Base]; ok {
		return name
	}
	return p.Base
}

func (p Pair) QuoteName() string {
	if name, ok := quoteNames[p.Quote]; ok {
		return name
	}
	return p.Quote
}
