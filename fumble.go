package fumble

import (
	"github.com/shopspring/decimal"
)

// Outcome is the verdict on one purchase: what the same money in the
// asset would be worth today, and the difference. All amounts are USD;
// use Between/FromUSD for display in another currency.
type Outcome struct {
	Resolved

	// Spend is the original purchase amount in USD.
	Spend decimal.Decimal
	// Shares is how many units the spend would have bought on the
	// purchase date: spend / historical price.
	Shares decimal.Decimal
	// Value is what those shares are worth today: shares * current price.
	Value decimal.Decimal
	// Fumble is value - spend. Positive means the purchase was a fumble;
	// negative means the asset lost and the purchase dodged it.
	Fumble decimal.Decimal
}

// Fumbled reports whether the money would have grown.
func (o Outcome) Fumbled() bool { return o.Fumble.IsPositive() }

// Multiple is value/spend, the "it would have Nx'd" number.
func (o Outcome) Multiple() decimal.Decimal {
	if o.Spend.IsZero() {
		return decimal.Zero
	}
	return o.Value.DivRound(o.Spend, 2)
}

// Compute turns a resolved price and a spend into the verdict. The spend
// is given in USD; prices quoted in another currency are converted with
// the static rates, which is as precise as a regret machine needs to be.
func Compute(res Resolved, spendUSD decimal.Decimal) Outcome {
	historical := ToUSD(res.Historical, res.Currency)
	current := ToUSD(res.Current, res.Currency)

	shares := decimal.Zero
	if historical.IsPositive() {
		shares = spendUSD.Div(historical)
	}
	value := shares.Mul(current)
	return Outcome{
		Resolved: res,
		Spend:    spendUSD,
		Shares:   shares,
		Value:    value,
		Fumble:   value.Sub(spendUSD),
	}
}
