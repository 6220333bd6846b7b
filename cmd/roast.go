package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
	"google.golang.org/genai"

	"github.com/fumbled/fumble"
)

type roastCmd struct {
	static bool
}

func (*roastCmd) Name() string     { return "roast" }
func (*roastCmd) Synopsis() string { return "roast a fumbled amount of money" }
func (*roastCmd) Usage() string {
	return `fmb roast [-static] <amount-usd> [symbol]

Tells you what the fumbled amount could have bought instead. With a
GEMINI_API_KEY in the environment the roast is written by the model;
otherwise (or with -static) it comes from the built-in ladder.

Usage Examples:
$ fmb roast 4200 BTC-USD
$ fmb roast -static 150
`
}

func (c *roastCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.static, "static", false, "Skip the model, use the built-in roast ladder.")
}

func (c *roastCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: missing amount")
		return subcommands.ExitUsageError
	}
	amount, err := decimal.NewFromString(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid amount %q: %v\n", f.Arg(0), err)
		return subcommands.ExitUsageError
	}
	symbol := f.Arg(1)

	item := fumble.RoastFor(amount)
	fallback := fmt.Sprintf("That %s you fumbled? That was **%s**.", fumble.Display(amount, "USD"), item)

	if c.static || os.Getenv("GEMINI_API_KEY") == "" {
		printMarkdown(fallback)
		return subcommands.ExitSuccess
	}

	roast, err := modelRoast(ctx, amount, symbol, item)
	if err != nil {
		// the ladder never fails
		fmt.Fprintln(os.Stderr, "warning: model roast failed:", err)
		printMarkdown(fallback)
		return subcommands.ExitSuccess
	}
	printMarkdown(roast)
	return subcommands.ExitSuccess
}

const roastModel = "gemini-2.5-flash"

// modelRoast asks the model for a one-paragraph roast of the fumble.
func modelRoast(ctx context.Context, amount decimal.Decimal, symbol, item string) (string, error) {
	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("initializing the model client: %w", err)
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: strings.Join([]string{
			"You roast people about money they lost by buying or not buying assets at the wrong time.",
			"Be funny and a little mean, never cruel. One short paragraph, markdown allowed.",
		}, " ")}}},
	}
	chat, err := client.Chats.Create(ctx, roastModel, config, nil)
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf("They fumbled %s", fumble.Display(amount, "USD"))
	if symbol != "" {
		prompt += fmt.Sprintf(" on %s", symbol)
	}
	prompt += fmt.Sprintf(". For scale, that money was %s.", item)

	resp, err := chat.Send(ctx, &genai.Part{Text: prompt})
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from the model")
	}
	return resp.Candidates[0].Content.Parts[0].Text, nil
}
