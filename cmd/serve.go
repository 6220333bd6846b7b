package cmd

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/google/subcommands"
	"github.com/redis/go-redis/v9"

	"github.com/fumbled/fumble"
	"github.com/fumbled/fumble/coingecko"
	"github.com/fumbled/fumble/gfinance"
	"github.com/fumbled/fumble/server"
	"github.com/fumbled/fumble/stats"
	"github.com/fumbled/fumble/yahoo"
)

type serveCmd struct {
	addr      string
	synthetic bool
}

func (*serveCmd) Name() string     { return "serve" }
func (*serveCmd) Synopsis() string { return "run the price-resolution HTTP service" }
func (*serveCmd) Usage() string {
	return `fmb serve [-addr <host:port>] [-synthetic]

Runs the HTTP service:

  GET  /price?symbol=AAPL&date=2020-03-01[&manualPrice=42.5]
  GET  /search?q=apple
  GET  /roast?amount=1234
  GET  /stats
  POST /track
  GET  /health

With -redis-addr (or REDIS_ADDR) the price cache is durable and usage
counters are kept; without it the cache is per-process and tracking is
disabled.
`
}

func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", ":8080", "Address to listen on.")
	f.BoolVar(&c.synthetic, "synthetic", false, "Answer with synthetic estimates when every live source fails, instead of an error.")
}

func (c *serveCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	s, closeStore, err := OpenStore(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer closeStore()

	// the yahoo client doubles as the live symbol search
	y := yahoo.New()
	resolver := fumble.NewResolver(s, coingecko.New(), y, gfinance.New())
	resolver.AllowSynthetic = c.synthetic

	var tracker *stats.Tracker
	if addr := redisAddr(); addr != "" {
		tracker = stats.New(redis.NewClient(&redis.Options{Addr: addr}))
	}

	h := server.New(resolver, y, tracker)
	slog.Info("listening", "addr", c.addr)
	if err := http.ListenAndServe(c.addr, h.Router()); err != nil {
		slog.Error("server stopped", "err", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
