package fumble

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used whenever a provider reports no currency at all.
const DefaultCurrency = "USD"

// rates maps a currency code to how many of its units one USD buys.
// These are deliberately static ballpark rates: the verdict we compute is
// "you fumbled a used car", not an FX settlement.
var rates = map[string]decimal.Decimal{
	"USD": decimal.NewFromInt(1),
	"EUR": decimal.NewFromFloat(0.92),
	"GBP": decimal.NewFromFloat(0.79),
	"INR": decimal.NewFromFloat(83.5),
	"JPY": decimal.NewFromFloat(156.5),
	"AUD": decimal.NewFromFloat(1.56),
	"CAD": decimal.NewFromFloat(1.44),
	"CHF": decimal.NewFromFloat(0.90),
	"CNY": decimal.NewFromFloat(7.30),
	"SGD": decimal.NewFromFloat(1.35),
}

// SupportedCurrency reports whether code is one of the fixed currencies the
// converter knows about.
func SupportedCurrency(code string) bool {
	_, ok := rates[code]
	return ok
}

// rate returns the USD exchange rate for code, falling back to 1 (treat as
// USD) for anything unknown.
func rate(code string) decimal.Decimal {
	if r, ok := rates[code]; ok {
		return r
	}
	return decimal.NewFromInt(1)
}

// FromUSD converts an USD amount into the given currency.
func FromUSD(amount decimal.Decimal, code string) decimal.Decimal {
	return amount.Mul(rate(code))
}

// ToUSD converts an amount in the given currency into USD.
func ToUSD(amount decimal.Decimal, code string) decimal.Decimal {
	return amount.Div(rate(code))
}

// Between converts an amount from one currency to another, pivoting
// through USD. Between(x, c, c) is exact.
func Between(amount decimal.Decimal, from, to string) decimal.Decimal {
	if from == to {
		return amount
	}
	return FromUSD(ToUSD(amount, from), to)
}

// Display formats an amount in the conventions of its currency ("₹1,600.00",
// "$95,000.00"). Fraction digits and symbol come from the currency table.
func Display(amount decimal.Decimal, code string) string {
	cur := money.New(0, code).Currency()
	units := amount.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(units.IntPart())
}
