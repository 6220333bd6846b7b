package fumble

import (
	"math"

	"github.com/shopspring/decimal"
)

// The roast ladder: for a given fumble amount, what everyday thing that
// money was. Thresholds are in USD and compared against the absolute
// amount, so a dodged loss gets roasted too.
var roasts = []struct {
	max  float64
	item string
}{
	{10, "a large pizza"},
	{25, "a month of Netflix"},
	{50, "a nice dinner out"},
	{100, "a pair of quality running shoes"},
	{200, "a month's groceries for one person"},
	{500, "a new smartphone"},
	{1000, "a roundtrip flight within the country"},
	{2000, "6 months of car insurance"},
	{5000, "a year's worth of gym membership"},
	{10000, "a semester of community college"},
	{25000, "a reliable used car"},
	{50000, "a year's rent in a major city"},
	{100000, "a down payment on a starter home"},
	{250000, "paying off student loans for two people"},
	{500000, "a modest house in the suburbs"},
	{1000000, "retiring 5 years early"},
	{math.Inf(1), "financial freedom for life"},
}

// RoastFor returns the ladder item for a fumble amount in USD.
func RoastFor(amountUSD decimal.Decimal) string {
	abs := amountUSD.Abs().InexactFloat64()
	for _, r := range roasts {
		if abs <= r.max {
			return r.item
		}
	}
	return "a yacht and then some"
}
