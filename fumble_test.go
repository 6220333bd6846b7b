package fumble

import (
	"testing"

	"github.com/fumbled/fumble/date"
	"github.com/shopspring/decimal"
)

func resolved(symbol string, historical, current float64, currency string) Resolved {
	return Resolved{
		Symbol:     symbol,
		Historical: decimal.NewFromFloat(historical),
		Current:    decimal.NewFromFloat(current),
		ActualDate: date.New(2021, 1, 1),
		Currency:   currency,
	}
}

func TestComputeGain(t *testing.T) {
	// $1000 into BTC at 29000, now 95000
	o := Compute(resolved("BTC-USD", 29000, 95000, "USD"), decimal.NewFromInt(1000))

	wantShares := decimal.NewFromInt(1000).Div(decimal.NewFromInt(29000))
	if !o.Shares.Equal(wantShares) {
		t.Errorf("Shares = %v, want %v", o.Shares, wantShares)
	}
	wantValue := wantShares.Mul(decimal.NewFromInt(95000))
	if !o.Value.Equal(wantValue) {
		t.Errorf("Value = %v, want %v", o.Value, wantValue)
	}
	if !o.Fumbled() {
		t.Error("Fumbled() = false for a 3x asset")
	}
	if got := o.Multiple(); !got.Equal(decimal.NewFromFloat(3.28)) {
		t.Errorf("Multiple() = %v, want 3.28", got)
	}
}

func TestComputeLoss(t *testing.T) {
	// the asset tanked: the purchase dodged a loss
	o := Compute(resolved("MEME", 100, 40, "USD"), decimal.NewFromInt(500))
	if o.Fumbled() {
		t.Error("Fumbled() = true for an asset that lost value")
	}
	if !o.Fumble.IsNegative() {
		t.Errorf("Fumble = %v, want negative", o.Fumble)
	}
}

func TestComputeConvertsCurrency(t *testing.T) {
	// prices in INR: both legs convert by the same rate, so shares and
	// the multiple are rate-independent
	o := Compute(resolved("RELIANCE.NS", 800, 3200, "INR"), decimal.NewFromInt(100))
	if got := o.Multiple(); !got.Equal(decimal.NewFromFloat(4)) {
		t.Errorf("Multiple() = %v, want 4", got)
	}
	// $100 at 800 INR ≈ $9.58/share historical
	wantValue := decimal.NewFromInt(400)
	if diff := o.Value.Sub(wantValue).Abs(); diff.GreaterThan(decimal.NewFromFloat(0.0001)) {
		t.Errorf("Value = %v, want ~%v", o.Value, wantValue)
	}
}

func TestComputeZeroSpend(t *testing.T) {
	o := Compute(resolved("AAPL", 100, 200, "USD"), decimal.Zero)
	if !o.Value.IsZero() || !o.Fumble.IsZero() {
		t.Errorf("zero spend: Value=%v Fumble=%v, want zeros", o.Value, o.Fumble)
	}
	if !o.Multiple().IsZero() {
		t.Errorf("Multiple() = %v, want 0 on zero spend", o.Multiple())
	}
}
