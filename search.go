package fumble

import (
	"context"
	"strings"
)

// Ticker is one searchable asset.
type Ticker struct {
	Symbol string `json:"symbol"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Region string `json:"region,omitempty"`
}

// SymbolSearcher is a live symbol search, typically the primary provider.
type SymbolSearcher interface {
	Search(ctx context.Context, query string) ([]Ticker, error)
}

// popularTickers is a manual selection of popular global assets so search
// works offline and stays fast for the symbols people actually ask about.
var popularTickers = []Ticker{
	// US tech
	{"AAPL", "Apple Inc.", "EQUITY", "US"},
	{"MSFT", "Microsoft Corporation", "EQUITY", "US"},
	{"NVDA", "NVIDIA Corporation", "EQUITY", "US"},
	{"GOOGL", "Alphabet Inc.", "EQUITY", "US"},
	{"AMZN", "Amazon.com Inc.", "EQUITY", "US"},
	{"META", "Meta Platforms Inc.", "EQUITY", "US"},
	{"TSLA", "Tesla Inc.", "EQUITY", "US"},
	{"NFLX", "Netflix Inc.", "EQUITY", "US"},
	{"AMD", "Advanced Micro Devices", "EQUITY", "US"},
	{"INTC", "Intel Corporation", "EQUITY", "US"},

	// US popular / meme
	{"GME", "GameStop Corp.", "EQUITY", "US"},
	{"AMC", "AMC Entertainment", "EQUITY", "US"},
	{"HOOD", "Robinhood Markets", "EQUITY", "US"},
	{"COIN", "Coinbase Global", "EQUITY", "US"},
	{"PLTR", "Palantir Technologies", "EQUITY", "US"},
	{"DIS", "The Walt Disney Company", "EQUITY", "US"},
	{"NKE", "Nike Inc.", "EQUITY", "US"},
	{"SBUX", "Starbucks Corporation", "EQUITY", "US"},
	{"MSTR", "MicroStrategy", "EQUITY", "US"},

	// India (NSE)
	{"RELIANCE.NS", "Reliance Industries", "EQUITY", "IN"},
	{"TCS.NS", "Tata Consultancy Services", "EQUITY", "IN"},
	{"HDFCBANK.NS", "HDFC Bank", "EQUITY", "IN"},
	{"INFY.NS", "Infosys Limited", "EQUITY", "IN"},
	{"ICICIBANK.NS", "ICICI Bank", "EQUITY", "IN"},
	{"SBIN.NS", "State Bank of India", "EQUITY", "IN"},
	{"BHARTIARTL.NS", "Bharti Airtel", "EQUITY", "IN"},
	{"ITC.NS", "ITC Limited", "EQUITY", "IN"},
	{"TATAMOTORS.NS", "Tata Motors", "EQUITY", "IN"},
	{"ZOMATO.NS", "Zomato Limited", "EQUITY", "IN"},
	{"PAYTM.NS", "Paytm (One97)", "EQUITY", "IN"},
	{"ASIANPAINT.NS", "Asian Paints", "EQUITY", "IN"},
	{"AXISBANK.NS", "Axis Bank", "EQUITY", "IN"},
	{"BAJFINANCE.NS", "Bajaj Finance", "EQUITY", "IN"},
	{"HCLTECH.NS", "HCL Technologies", "EQUITY", "IN"},
	{"HINDUNILVR.NS", "Hindustan Unilever", "EQUITY", "IN"},
	{"KOTAKBANK.NS", "Kotak Mahindra Bank", "EQUITY", "IN"},
	{"LT.NS", "Larsen & Toubro", "EQUITY", "IN"},
	{"MARUTI.NS", "Maruti Suzuki", "EQUITY", "IN"},
	{"SUNPHARMA.NS", "Sun Pharmaceutical", "EQUITY", "IN"},
	{"TATASTEEL.NS", "Tata Steel", "EQUITY", "IN"},
	{"TITAN.NS", "Titan Company", "EQUITY", "IN"},
	{"WIPRO.NS", "Wipro", "EQUITY", "IN"},

	// crypto
	{"BTC-USD", "Bitcoin", "CRYPTOCURRENCY", ""},
	{"ETH-USD", "Ethereum", "CRYPTOCURRENCY", ""},
	{"SOL-USD", "Solana", "CRYPTOCURRENCY", ""},
	{"DOGE-USD", "Dogecoin", "CRYPTOCURRENCY", ""},
	{"XRP-USD", "XRP", "CRYPTOCURRENCY", ""},
	{"ADA-USD", "Cardano", "CRYPTOCURRENCY", ""},
	{"SHIB-USD", "Shiba Inu", "CRYPTOCURRENCY", ""},
	{"PEPE-USD", "Pepe", "CRYPTOCURRENCY", ""},
	{"BNB-USD", "Binance Coin", "CRYPTOCURRENCY", ""},

	// indices
	{"^GSPC", "S&P 500", "INDEX", "US"},
	{"^DJI", "Dow Jones Industrial Average", "INDEX", "US"},
	{"^IXIC", "NASDAQ Composite", "INDEX", "US"},
	{"^NSEI", "NIFTY 50", "INDEX", "IN"},
	{"^BSESN", "SENSEX", "INDEX", "IN"},
}

// searchLimit caps any search answer.
const searchLimit = 20

// SearchStatic filters the popular list by a case-insensitive substring of
// the symbol or name. Queries shorter than 2 characters match nothing.
func SearchStatic(query string) []Ticker {
	q := strings.ToLower(strings.TrimSpace(query))
	if len(q) < 2 {
		return nil
	}
	var matches []Ticker
	for _, t := range popularTickers {
		if strings.Contains(strings.ToLower(t.Symbol), q) || strings.Contains(strings.ToLower(t.Name), q) {
			matches = append(matches, t)
			if len(matches) == searchLimit {
				break
			}
		}
	}
	return matches
}

// Search merges the static list with the live provider: static matches
// first (they are curated and never flaky), live results fill the rest. A
// live failure degrades to static-only, it never fails the search.
func Search(ctx context.Context, live SymbolSearcher, query string) []Ticker {
	results := SearchStatic(query)
	if live == nil || len(results) >= searchLimit {
		return results
	}
	seen := make(map[string]bool, len(results))
	for _, t := range results {
		seen[t.Symbol] = true
	}
	extra, err := live.Search(ctx, query)
	if err != nil {
		return results
	}
	for _, t := range extra {
		if seen[t.Symbol] {
			continue
		}
		results = append(results, t)
		if len(results) == searchLimit {
			break
		}
	}
	return results
}
