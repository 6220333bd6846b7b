package fumble

import (
	"strings"

	"github.com/fumbled/fumble/date"
	"github.com/shopspring/decimal"
)

// Query is a single price-resolution request: what was bought, when, and
// optionally for how much (a zero ManualPrice means absent).
type Query struct {
	Symbol      string
	Date        date.Date
	ManualPrice decimal.Decimal
}

// normalize returns a copy of the query with the symbol in its canonical
// upper-case trimmed form.
func (q Query) normalize() Query {
	q.Symbol = Normalize(q.Symbol)
	return q
}

// Normalize returns the canonical form of a ticker symbol.
func Normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Source identifies where a resolved price came from.
type Source string

const (
	SourceCache    Source = "cache"
	SourceCrypto   Source = "crypto_api"
	SourcePrimary  Source = "primary_api"
	SourceScrape   Source = "scrape_estimate"
	SourceManual   Source = "manual"
	SourceSynthetic Source = "synthetic"
)

// Resolved is the answer to a Query: the price on (or near) the purchase
// date and the price today, in the asset's own trading currency.
//
// ActualDate may differ from the requested date when the market was closed
// on that day; it is the nearest trading day that had data.
type Resolved struct {
	Symbol     string          `json:"symbol"`
	Historical decimal.Decimal `json:"historicalPrice"`
	Current    decimal.Decimal `json:"currentPrice"`
	ActualDate date.Date       `json:"actualDate"`
	Currency   string          `json:"stockCurrency"`
	Source     Source          `json:"source,omitempty"`
	Estimate   bool            `json:"isEstimate,omitempty"`
}

// AssetClass partitions symbols by the kind of market they trade on.
type AssetClass int

const (
	Equity AssetClass = iota
	Crypto
	Index
)

func (c AssetClass) String() string {
	switch c {
	case Crypto:
		return "crypto"
	case Index:
		return "index"
	default:
		return "equity"
	}
}

// Class derives the asset class from the symbol shape alone: crypto pairs
// are quoted as "XXX-USD", indices carry a caret prefix, everything else is
// treated as an equity or ETF. Whether a crypto pair is actually supported
// is the crypto source's business (it refuses unknown coins locally).
func Class(symbol string) AssetClass {
	symbol = Normalize(symbol)
	switch {
	case strings.HasSuffix(symbol, "-USD"):
		return Crypto
	case strings.HasPrefix(symbol, "^"):
		return Index
	default:
		return Equity
	}
}

// CurrencyFor guesses the trading currency of a symbol from its suffix.
// Only used when the provider gave no currency metadata (the scrape path).
func CurrencyFor(symbol string) string {
	symbol = Normalize(symbol)
	switch {
	case strings.HasSuffix(symbol, ".NS"), strings.HasSuffix(symbol, ".BO"),
		symbol == "^NSEI", symbol == "^BSESN":
		return "INR"
	default:
		return DefaultCurrency
	}
}
