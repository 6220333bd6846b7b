package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/google/subcommands"
	"github.com/redis/go-redis/v9"

	"github.com/fumbled/fumble/stats"
)

type statsCmd struct{}

func (*statsCmd) Name() string     { return "stats" }
func (*statsCmd) Synopsis() string { return "show aggregate usage counters" }
func (*statsCmd) Usage() string {
	return `fmb stats

Reads the fumble counters from Redis and prints them. Requires
-redis-addr or REDIS_ADDR.
`
}

func (*statsCmd) SetFlags(_ *flag.FlagSet) {}

func (c *statsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	addr := redisAddr()
	if addr == "" {
		fmt.Fprintln(os.Stderr, "Error: stats need Redis, set -redis-addr or REDIS_ADDR")
		return subcommands.ExitUsageError
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	summary, err := stats.New(client).Summarize(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error reading stats:", err)
		return subcommands.ExitFailure
	}

	var b strings.Builder
	b.WriteString("# Fumble Stats\n\n")
	fmt.Fprintf(&b, "- total fumbles: %d\n", summary.TotalFumbles)
	fmt.Fprintf(&b, "- total amount: $%.2f\n", summary.TotalAmount)
	if len(summary.PopularAssets) > 0 {
		b.WriteString("\n## Popular Assets\n\n| Symbol | Count |\n|---|---|\n")
		for _, k := range sortedKeys(summary.PopularAssets) {
			fmt.Fprintf(&b, "| %s | %s |\n", k, summary.PopularAssets[k])
		}
	}
	if len(summary.CurrencyUsage) > 0 {
		b.WriteString("\n## Currencies\n\n| Currency | Count |\n|---|---|\n")
		for _, k := range sortedKeys(summary.CurrencyUsage) {
			fmt.Fprintf(&b, "| %s | %s |\n", k, summary.CurrencyUsage[k])
		}
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
