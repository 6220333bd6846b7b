package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"github.com/fumbled/fumble/cmd"
)

// completion describes the CLI for shell completion. Running under
// COMP_LINE prints candidates and exits; otherwise it is a no-op.
func completion() {
	sub := func() *complete.Command {
		return &complete.Command{Flags: map[string]complete.Predictor{
			"redis-addr": predict.Something,
		}}
	}
	c := &complete.Command{
		Sub: map[string]*complete.Command{
			"price":  sub(),
			"search": sub(),
			"serve":  sub(),
			"stats":  sub(),
			"roast":  sub(),
			"topic":  sub(),
		},
	}
	c.Complete("fmb")
}

func main() {
	completion()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "help")
	commander.Register(commander.FlagsCommand(), "help")
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
