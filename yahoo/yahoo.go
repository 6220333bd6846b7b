// Package yahoo fetches prices and symbol search results from the Yahoo
// Finance chart and search APIs.
//
// Yahoo throttles aggressively. Two habits keep us mostly under the
// radar: the current price comes from the tail of a short daily-interval
// chart window rather than a live quote endpoint, and an HTTP 429 is
// reported as a typed rate-limit error so the resolver can back off
// instead of hammering.
package yahoo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/fumbled/fumble"
	"github.com/fumbled/fumble/date"
	"github.com/shopspring/decimal"
)

// recentWindowDays is the chart range used to find the latest close.
const recentWindowDays = 7

// lookAheadDays bounds the search for the nearest trading day at or after
// the purchase date.
const lookAheadDays = 7

// Client is the primary market source adapter.
type Client struct {
	base string
	http *http.Client
}

// New returns a Client against the public Yahoo Finance API.
func New() *Client {
	return &Client{base: "https://query2.finance.yahoo.com", http: fumble.NewHTTPClient()}
}

// NewWithBase returns a Client against a custom API base, for tests.
func NewWithBase(base string, client *http.Client) *Client {
	return &Client{base: base, http: client}
}

// chartResponse is the subset of the v8 chart payload we read.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error any `json:"error"`
	} `json:"chart"`
}

// Fetch returns the first close at or after the requested day (within the
// look-ahead window) and the latest close of the recent window. No data
// in either leg, or a non-positive current price, is a plain miss; only
// throttling comes back as an error worth retrying.
func (c *Client) Fetch(ctx context.Context, symbol string, on date.Date) (fumble.Quote, bool, error) {
	current, currency, ok, err := c.current(ctx, symbol)
	if err != nil || !ok {
		return fumble.Quote{}, false, err
	}
	historical, actual, ok, err := c.historical(ctx, symbol, on)
	if err != nil || !ok {
		return fumble.Quote{}, false, err
	}
	return fumble.Quote{
		Historical: historical,
		Current:    current,
		ActualDate: actual,
		Currency:   currency,
	}, true, nil
}

// current reads the latest close from a 7-day daily chart. The meta price
// is preferred; when it is missing or zero the last non-zero close of the
// window stands in.
func (c *Client) current(ctx context.Context, symbol string) (price decimal.Decimal, currency string, ok bool, err error) {
	addr := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&range=%dd", c.base, url.PathEscape(symbol), recentWindowDays)
	var raw chartResponse
	if err := fumble.Jwget(ctx, c.http, addr, &raw); err != nil {
		return price, "", false, err
	}
	if len(raw.Chart.Result) == 0 {
		return price, "", false, nil
	}
	r := raw.Chart.Result[0]

	last := r.Meta.RegularMarketPrice
	if last <= 0 {
		closes := closes(r.Timestamp, r.Indicators.Quote)
		for i := len(closes) - 1; i >= 0; i-- {
			if closes[i] > 0 {
				last = closes[i]
				break
			}
		}
	}
	if last <= 0 {
		return price, "", false, nil
	}
	return decimal.NewFromFloat(last), r.Meta.Currency, true, nil
}

// historical queries [on, on+7d] and takes the first returned point: the
// nearest trading day at or after the purchase date.
func (c *Client) historical(ctx context.Context, symbol string, on date.Date) (price decimal.Decimal, actual date.Date, ok bool, err error) {
	addr := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d",
		c.base, url.PathEscape(symbol), on.Unix(), on.Add(lookAheadDays).Unix())
	var raw chartResponse
	if err := fumble.Jwget(ctx, c.http, addr, &raw); err != nil {
		return price, actual, false, err
	}
	if len(raw.Chart.Result) == 0 {
		return price, actual, false, nil
	}
	r := raw.Chart.Result[0]
	closes := closes(r.Timestamp, r.Indicators.Quote)
	for i, ts := range r.Timestamp {
		if closes[i] > 0 {
			return decimal.NewFromFloat(closes[i]), date.From(timeFromUnix(ts)), true, nil
		}
	}
	return price, actual, false, nil
}

// closes aligns the close series with the timestamps, or returns an
// all-zero slice when the payload is malformed.
func closes(timestamps []int64, quotes []struct {
	Close []float64 `json:"close"`
}) []float64 {
	if len(quotes) > 0 && len(quotes[0].Close) == len(timestamps) {
		return quotes[0].Close
	}
	return make([]float64, len(timestamps))
}

func timeFromUnix(sec int64) time.Time { return time.Unix(sec, 0).UTC() }

// Search queries the symbol search endpoint and keeps only tradable asset
// types, capped at 10.
func (c *Client) Search(ctx context.Context, query string) ([]fumble.Ticker, error) {
	addr := fmt.Sprintf("%s/v1/finance/search?q=%s", c.base, url.QueryEscape(query))
	var raw struct {
		Quotes []struct {
			Symbol    string `json:"symbol"`
			ShortName string `json:"shortname"`
			LongName  string `json:"longname"`
			QuoteType string `json:"quoteType"`
			Exchange  string `json:"exchange"`
		} `json:"quotes"`
	}
	if err := fumble.Jwget(ctx, c.http, addr, &raw); err != nil {
		return nil, err
	}
	valid := map[string]bool{"EQUITY": true, "ETF": true, "CRYPTOCURRENCY": true, "INDEX": true}
	var results []fumble.Ticker
	for _, q := range raw.Quotes {
		if !valid[q.QuoteType] {
			continue
		}
		name := q.ShortName
		if name == "" {
			name = q.LongName
		}
		if name == "" {
			name = q.Symbol
		}
		results = append(results, fumble.Ticker{Symbol: q.Symbol, Name: name, Type: q.QuoteType})
		if len(results) == 10 {
			break
		}
	}
	return results, nil
}
