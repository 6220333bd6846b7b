// Package cmd implements the CLI application around the price resolver.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"github.com/fumbled/fumble"
	"github.com/fumbled/fumble/coingecko"
	"github.com/fumbled/fumble/gfinance"
	"github.com/fumbled/fumble/store"
	"github.com/fumbled/fumble/yahoo"
)

// Register the subcommands.
// A main package calls Register() and then Execute() on the selected one.
func Register(c *subcommands.Commander) {
	c.Register(&priceCmd{}, "pricing")
	c.Register(&searchCmd{}, "pricing")

	c.Register(&serveCmd{}, "service")
	c.Register(&statsCmd{}, "service")

	c.Register(&roastCmd{}, "fun")
	c.Register(&topicCmd{}, "documentation")
}

// as a CLI application it is short lived, so globals flags are fine.

var redisAddrFlag = flag.String("redis-addr", "", "Redis address for the durable price cache and usage counters.\n If missing it will read the environment variable \"REDIS_ADDR\". Without Redis the cache is in-memory only.")

func redisAddr() string {
	if *redisAddrFlag == "" {
		*redisAddrFlag = os.Getenv("REDIS_ADDR")
	}
	return *redisAddrFlag
}

// OpenStore builds the price cache: tiered on Redis when an address is
// configured, otherwise plain in-memory. The returned close function is
// nil-safe.
func OpenStore(ctx context.Context) (fumble.Store, func(), error) {
	addr := redisAddr()
	if addr == "" {
		return store.NewMemory(), func() {}, nil
	}
	durable, err := store.DialRedis(ctx, addr)
	if err != nil {
		// degraded but alive: resolution still works without persistence
		log.Printf("warning: %v, falling back to in-memory cache", err)
		return store.NewMemory(), func() {}, nil
	}
	return store.NewTiered(durable), func() { durable.Close() }, nil
}

// NewResolver wires the full source chain behind the given store.
func NewResolver(s fumble.Store) *fumble.Resolver {
	return fumble.NewResolver(s, coingecko.New(), yahoo.New(), gfinance.New())
}

// printMarkdown renders markdown for the terminal. Rendering trouble
// falls back to the raw text, never to silence.
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Println(md)
		return
	}
	fmt.Print(out)
}
