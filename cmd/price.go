package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/fumbled/fumble"
	"github.com/fumbled/fumble/date"
)

type priceCmd struct {
	spend    string
	manual   string
	currency string
	estimate bool
}

func (*priceCmd) Name() string     { return "price" }
func (*priceCmd) Synopsis() string { return "resolve a price and print the fumble receipt" }
func (*priceCmd) Usage() string {
	return `fmb price [-spend <amount>] [-manual <price>] [-currency <code>] [-estimate] <symbol> <date>

Resolves the historical and current price of a symbol and, when a spend
amount is given, prints what that money would be worth had it been
invested instead.

The resolution chain is: cache, crypto API (for -USD pairs), primary
market API with retry on throttling, page scrape, and finally (-estimate
only) a synthetic estimate.

Usage Examples:
# What did skipping Bitcoin in January 2024 cost?
$ fmb price -spend 500 BTC-USD 2024-01-15

# The provider is down but you remember the price.
$ fmb price -spend 120 -manual 42.50 AAPL 2020-03-01
`
}

func (c *priceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.spend, "spend", "", "Purchase amount to compute the fumble verdict for.")
	f.StringVar(&c.manual, "manual", "", "Manual current price, bypassing all providers.")
	f.StringVar(&c.currency, "currency", "USD", "Currency of the spend amount.")
	f.BoolVar(&c.estimate, "estimate", false, "Allow a fully synthetic estimate when every live source fails.")
}

func (c *priceCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		fmt.Fprintln(os.Stderr, "Error: want exactly <symbol> and <date>")
		return subcommands.ExitUsageError
	}
	symbol := f.Arg(0)
	on, err := date.Parse(f.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	q := fumble.Query{Symbol: symbol, Date: on}
	if c.manual != "" {
		if q.ManualPrice, err = decimal.NewFromString(c.manual); err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid manual price %q: %v\n", c.manual, err)
			return subcommands.ExitUsageError
		}
	}

	s, closeStore, err := OpenStore(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeStore()

	resolver := NewResolver(s)
	resolver.AllowSynthetic = c.estimate

	res, err := resolver.Resolve(ctx, q)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.spend == "" {
		printMarkdown(priceMarkdown(res))
		return subcommands.ExitSuccess
	}

	spend, err := decimal.NewFromString(c.spend)
	if err != nil || !spend.IsPositive() {
		fmt.Fprintf(os.Stderr, "Error: invalid spend amount %q\n", c.spend)
		return subcommands.ExitUsageError
	}
	outcome := fumble.Compute(res, fumble.ToUSD(spend, c.currency))
	printMarkdown(receiptMarkdown(outcome, c.currency))
	return subcommands.ExitSuccess
}

// priceMarkdown renders a bare resolution, no verdict.
func priceMarkdown(res fumble.Resolved) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", res.Symbol)
	fmt.Fprintf(&b, "| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| On %s | %s |\n", res.ActualDate, fumble.Display(res.Historical, res.Currency))
	fmt.Fprintf(&b, "| Today | %s |\n", fumble.Display(res.Current, res.Currency))
	fmt.Fprintf(&b, "| Source | %s |\n", res.Source)
	if res.Estimate {
		b.WriteString("\n*Estimated: no live data was available for part of this answer.*\n")
	}
	return b.String()
}

// receiptMarkdown renders the full regret receipt.
func receiptMarkdown(o fumble.Outcome, currency string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Fumble receipt: %s\n\n", o.Symbol)
	fmt.Fprintf(&b, "| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Spent on %s | %s |\n", o.ActualDate, fumble.Display(fumble.FromUSD(o.Spend, currency), currency))
	fmt.Fprintf(&b, "| Price then | %s |\n", fumble.Display(o.Historical, o.Currency))
	fmt.Fprintf(&b, "| Price today | %s |\n", fumble.Display(o.Current, o.Currency))
	fmt.Fprintf(&b, "| Would be worth | %s |\n", fumble.Display(fumble.FromUSD(o.Value, currency), currency))

	diff := fumble.Display(fumble.FromUSD(o.Fumble.Abs(), currency), currency)
	if o.Fumbled() {
		fmt.Fprintf(&b, "\n**You fumbled %s** - that was %s.\n", diff, fumble.RoastFor(o.Fumble))
	} else {
		fmt.Fprintf(&b, "\n**You dodged a %s loss.** Well played.\n", diff)
	}
	if o.Estimate {
		b.WriteString("\n*Estimated: numbers are directionally plausible, not market data.*\n")
	}
	return b.String()
}
