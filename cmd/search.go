package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"

	"github.com/fumbled/fumble"
	"github.com/fumbled/fumble/yahoo"
)

type searchCmd struct {
	offline bool
}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "search tradable symbols by name or ticker" }
func (*searchCmd) Usage() string {
	return `fmb search [-offline] <query>

Searches the curated popular-asset list and the live provider, merged.

Usage Examples:
$ fmb search bitcoin
$ fmb search -offline reliance
`
}

func (c *searchCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.offline, "offline", false, "Only search the built-in list, no network call.")
}

func (c *searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	query := strings.Join(f.Args(), " ")
	if len(strings.TrimSpace(query)) < 2 {
		fmt.Fprintln(os.Stderr, "Error: query must be at least 2 characters")
		return subcommands.ExitUsageError
	}

	var live fumble.SymbolSearcher
	if !c.offline {
		live = yahoo.New()
	}
	results := fumble.Search(ctx, live, query)
	if len(results) == 0 {
		fmt.Println("no matches")
		return subcommands.ExitSuccess
	}

	var b strings.Builder
	b.WriteString("| Symbol | Name | Type |\n|---|---|---|\n")
	for _, t := range results {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", t.Symbol, t.Name, t.Type)
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
