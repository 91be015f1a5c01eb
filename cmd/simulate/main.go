// Command simulate plays computer-vs-computer matches in parallel and reports
// how often each side wins, how accurate it is and how long matches last.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/wricardo/seabattle/game/engine"
)

type CLI struct {
	Matches int    `default:"1000" help:"Number of matches to simulate"`
	P1      string `default:"hard" enum:"easy,medium,hard" help:"Difficulty of player1"`
	P2      string `default:"medium" enum:"easy,medium,hard" help:"Difficulty of player2"`
	Workers int    `default:"0" help:"Parallel workers (0 for one per CPU)"`
	Seed    int64  `default:"0" help:"RNG seed (0 for random)"`
	Verbose bool   `short:"v" help:"Verbose logging"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("simulate"),
		kong.Description("Computer-vs-computer Sea Battle simulator"),
	)

	if cli.Seed == 0 {
		cli.Seed = time.Now().UnixNano()
	}

	level := log.WarnLevel
	if cli.Verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: level})

	fmt.Printf("Simulating %d matches: player1=%s vs player2=%s (seed %d)\n\n",
		cli.Matches, cli.P1, cli.P2, cli.Seed)

	summary, err := Run(context.Background(), Options{
		Matches: cli.Matches,
		P1:      engine.Difficulty(cli.P1),
		P2:      engine.Difficulty(cli.P2),
		Workers: cli.Workers,
		Seed:    cli.Seed,
	}, logger)
	ctx.FatalIfErrorf(err)

	fmt.Print(summary.Report())
}
