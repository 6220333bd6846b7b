// Package gfinance scrapes a current price off a Google Finance quote
// page. It is the fallback of a fallback: current price only, one
// attempt, no retry, and any miss is simply "nothing here".
package gfinance

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/fumbled/fumble"
	"github.com/shopspring/decimal"
)

// Pretend to be a desktop browser; the page served to unknown agents has
// no price in it.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Two independent extraction patterns, tried in order. The class name is
// whatever Google ships this year; the data attribute is the stabler
// backup.
var (
	styledPricePattern = regexp.MustCompile(`<div class="YMlKec fxKbKc">([^<]+)</div>`)
	attrPricePattern   = regexp.MustCompile(`data-last-price="([0-9.]+)"`)
	nonNumeric         = regexp.MustCompile(`[^0-9.]`)
)

// Client is the secondary scrape source adapter.
type Client struct {
	base string
	http *http.Client
}

// New returns a Client against the public Google Finance pages.
func New() *Client {
	return &Client{base: "https://www.google.com/finance/quote/", http: fumble.NewHTTPClient()}
}

// NewWithBase returns a Client against a custom page base, for tests.
func NewWithBase(base string, client *http.Client) *Client {
	return &Client{base: base, http: client}
}

// quotePath translates a Yahoo-style symbol into the Google Finance page
// path: known suffixes select the exchange qualifier, crypto pairs pass
// through as-is, everything else defaults to NASDAQ.
func quotePath(symbol string) string {
	symbol = fumble.Normalize(symbol)
	switch {
	case strings.HasSuffix(symbol, ".NS"):
		return strings.TrimSuffix(symbol, ".NS") + ":NSE"
	case strings.HasSuffix(symbol, ".BO"):
		return strings.TrimSuffix(symbol, ".BO") + ":BOM"
	case strings.Contains(symbol, "-USD"):
		return symbol
	default:
		return symbol + ":NASDAQ"
	}
}

// Current fetches the quote page and extracts the price. The first
// pattern yielding a valid positive number wins; everything else is a
// miss, never an error worth retrying.
func (c *Client) Current(ctx context.Context, symbol string) (decimal.Decimal, bool, error) {
	addr := c.base + quotePath(symbol)
	body, err := fumble.Wget(ctx, c.http, addr, userAgent)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("scrape %s: %w", symbol, err)
	}

	if m := styledPricePattern.FindStringSubmatch(body); m != nil {
		// strip currency symbols and thousands separators before parsing
		if price, ok := parsePrice(nonNumeric.ReplaceAllString(m[1], "")); ok {
			return price, true, nil
		}
	}
	if m := attrPricePattern.FindStringSubmatch(body); m != nil {
		if price, ok := parsePrice(m[1]); ok {
			return price, true, nil
		}
	}
	return decimal.Zero, false, nil
}

func parsePrice(s string) (decimal.Decimal, bool) {
	val, err := strconv.ParseFloat(s, 64)
	if err != nil || val <= 0 {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(val), true
}
