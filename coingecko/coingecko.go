// Package coingecko fetches crypto prices from the CoinGecko API.
//
// Free tier limitations worth knowing:
//   - rate limit around 10-30 requests per minute
//   - historical data only for the last 365 days
//
// Both limits are honored locally: dates beyond the window and symbols we
// have no CoinGecko id for are refused without a network call.
package coingecko

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/fumbled/fumble"
	"github.com/fumbled/fumble/date"
	"github.com/shopspring/decimal"
)

// coins maps common crypto pair symbols to CoinGecko coin ids.
var coins = map[string]string{
	"BTC-USD":   "bitcoin",
	"ETH-USD":   "ethereum",
	"BNB-USD":   "binancecoin",
	"XRP-USD":   "ripple",
	"SOL-USD":   "solana",
	"ADA-USD":   "cardano",
	"DOGE-USD":  "dogecoin",
	"AVAX-USD":  "avalanche-2",
	"DOT-USD":   "polkadot",
	"MATIC-USD": "matic-network",
	"SHIB-USD":  "shiba-inu",
	"TRX-USD":   "tron",
	"LINK-USD":  "chainlink",
	"ATOM-USD":  "cosmos",
	"UNI-USD":   "uniswap",
	"LTC-USD":   "litecoin",
	"XLM-USD":   "stellar",
	"ALGO-USD":  "algorand",
	"VET-USD":   "vechain",
	"FIL-USD":   "filecoin",
	"NEAR-USD":  "near",
	"APT-USD":   "aptos",
	"ARB-USD":   "arbitrum",
	"OP-USD":    "optimism",
	"SUI-USD":   "sui",
	"PEPE-USD":  "pepe",
	"WIF-USD":   "dogwifcoin",
}

// freeTierDays is how far back the free tier serves historical data.
const freeTierDays = 365

// CoinID returns the CoinGecko id for a pair symbol, or "" when the coin
// is not in the table.
func CoinID(symbol string) string {
	return coins[fumble.Normalize(symbol)]
}

// Client is the crypto source adapter. The zero value is not usable; use
// New.
type Client struct {
	base string
	http *http.Client

	// Today is injectable for tests of the free-tier window.
	Today func() date.Date
}

// New returns a Client against the public CoinGecko API.
func New() *Client {
	return &Client{
		base:  "https://api.coingecko.com/api/v3",
		http:  fumble.NewHTTPClient(),
		Today: date.Today,
	}
}

// NewWithBase returns a Client against a custom API base, for tests.
func NewWithBase(base string, client *http.Client) *Client {
	return &Client{base: base, http: client, Today: date.Today}
}

// Fetch returns both the historical price nearest the requested day and
// the current price. Both legs must succeed; there are no partial
// answers. Unknown coins and dates past the free tier are refused before
// any network traffic.
func (c *Client) Fetch(ctx context.Context, symbol string, on date.Date) (fumble.Quote, bool, error) {
	id := CoinID(symbol)
	if id == "" {
		return fumble.Quote{}, false, nil
	}
	if c.today().Sub(on) > freeTierDays {
		// free tier has no data that old; not an error, just nothing here
		return fumble.Quote{}, false, nil
	}

	historical, actual, ok, err := c.historical(ctx, id, on)
	if err != nil || !ok {
		return fumble.Quote{}, false, err
	}
	current, ok, err := c.current(ctx, id)
	if err != nil || !ok {
		return fumble.Quote{}, false, err
	}
	return fumble.Quote{
		Historical: historical,
		Current:    current,
		ActualDate: actual,
		Currency:   "USD",
	}, true, nil
}

// historical queries a [on-1d, on+2d] window of the market chart and picks
// the point closest in time to the requested day; the first seen point
// wins ties.
func (c *Client) historical(ctx context.Context, id string, on date.Date) (price decimal.Decimal, actual date.Date, ok bool, err error) {
	from := on.Unix() - 86400
	to := on.Unix() + 2*86400
	addr := fmt.Sprintf("%s/coins/%s/market_chart/range?vs_currency=usd&from=%d&to=%d", c.base, id, from, to)

	// payload: {"prices": [[ms, price], ...], ...}
	var content struct {
		Prices [][2]float64 `json:"prices"`
	}
	if err := fumble.Jwget(ctx, c.http, addr, &content); err != nil {
		return price, actual, false, err
	}
	if len(content.Prices) == 0 {
		return price, actual, false, nil
	}

	target := on.Unix() * 1000
	best := content.Prices[0]
	bestDiff := absInt64(int64(best[0]) - target)
	for _, p := range content.Prices[1:] {
		if diff := absInt64(int64(p[0]) - target); diff < bestDiff {
			best, bestDiff = p, diff
		}
	}
	if best[1] <= 0 {
		return price, actual, false, nil
	}
	ms := int64(best[0])
	return decimal.NewFromFloat(best[1]), date.From(timeFromMillis(ms)), true, nil
}

// current fetches the spot price. The answer is keyed by the coin id
// ({"bitcoin":{"usd":95000}}), so a jsonpath built from the id digs the
// value out.
func (c *Client) current(ctx context.Context, id string) (decimal.Decimal, bool, error) {
	addr := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", c.base, id)
	var jobj any
	if err := fumble.Jwget(ctx, c.http, addr, &jobj); err != nil {
		return decimal.Zero, false, err
	}
	jval, err := jsonpath.Get(fmt.Sprintf("$.%s.usd", id), jobj)
	if err != nil {
		// coin absent from the answer: nothing there, not a failure
		return decimal.Zero, false, nil
	}
	val, ok := jval.(float64)
	if !ok || val <= 0 {
		return decimal.Zero, false, nil
	}
	return decimal.NewFromFloat(val), true, nil
}

func (c *Client) today() date.Date {
	if c.Today != nil {
		return c.Today()
	}
	return date.Today()
}

func timeFromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
