package fumble

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"aapl", "AAPL"},
		{"  btc-usd  ", "BTC-USD"},
		{"Reliance.ns", "RELIANCE.NS"},
		{"^nsei", "^NSEI"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClass(t *testing.T) {
	tests := []struct {
		symbol string
		want   AssetClass
	}{
		{"BTC-USD", Crypto},
		{"eth-usd", Crypto},
		{"DOGE-USD", Crypto},
		{"^GSPC", Index},
		{"^nsei", Index},
		{"AAPL", Equity},
		{"RELIANCE.NS", Equity},
		{"TCS.BO", Equity},
		{"BRK-B", Equity}, // a dash alone is not a crypto pair
	}
	for _, tt := range tests {
		if got := Class(tt.symbol); got != tt.want {
			t.Errorf("Class(%q) = %v, want %v", tt.symbol, got, tt.want)
		}
	}
}

func TestCurrencyFor(t *testing.T) {
	tests := []struct {
		symbol string
		want   string
	}{
		{"RELIANCE.NS", "INR"},
		{"tcs.bo", "INR"},
		{"^NSEI", "INR"},
		{"^BSESN", "INR"},
		{"AAPL", "USD"},
		{"^GSPC", "USD"},
		{"BTC-USD", "USD"},
	}
	for _, tt := range tests {
		if got := CurrencyFor(tt.symbol); got != tt.want {
			t.Errorf("CurrencyFor(%q) = %q, want %q", tt.symbol, got, tt.want)
		}
	}
}
