package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/hailam/chesstree/internal/board"
	"github.com/hailam/chesstree/internal/engine"
	"github.com/hailam/chesstree/internal/match"
	"github.com/hailam/chesstree/internal/storage"
)

var (
	games       = flag.Int("games", 10, "number of games")
	concurrency = flag.Int("concurrency", 0, "games played at once (0 = GOMAXPROCS)")
	whiteDepth  = flag.Int("wdepth", 3, "White's deepening passes per move")
	blackDepth  = flag.Int("bdepth", 3, "Black's deepening passes per move")
	moveTime    = flag.Duration("movetime", time.Second, "time budget per move for both sides")
	maxPlies    = flag.Int("maxplies", 0, "stop unfinished games after this many plies (0 = default)")
	seed        = flag.Uint64("seed", 0, "match seed (0 = clock)")
	fen         = flag.String("fen", "", "start every game from this position")
	dbDir       = flag.String("db", "", "record results in the statistics database in this directory")
	quiet       = flag.Bool("q", false, "only print the summary")
)

func main() {
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg := match.Config{
		Games:       *games,
		Concurrency: *concurrency,
		White:       engine.SearchLimits{Depth: *whiteDepth, MoveTime: *moveTime},
		Black:       engine.SearchLimits{Depth: *blackDepth, MoveTime: *moveTime},
		MaxPlies:    *maxPlies,
		Seed:        *seed,
		Quiet:       *quiet,
	}
	if *fen != "" {
		pos, err := board.ParseFEN(*fen)
		if err != nil {
			log.Fatal(err)
		}
		cfg.Openings = []board.Position{pos}
	}
	if *dbDir != "" {
		store, err := storage.Open(*dbDir)
		if err != nil {
			log.Fatal(err)
		}
		defer store.Close()
		cfg.Recorder = store
	}

	start := time.Now()
	summary, err := match.Run(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	printSummary(summary, time.Since(start))
}

func printSummary(s match.Summary, elapsed time.Duration) {
	fmt.Printf("games %d  white %d  black %d  draws %d  unfinished %d\n",
		s.Games, s.WhiteWins, s.BlackWins, s.Draws, s.Unfinished)

	terms := make([]string, 0, len(s.ByTermination))
	for t := range s.ByTermination {
		terms = append(terms, t)
	}
	sort.Strings(terms)
	for _, t := range terms {
		fmt.Printf("  %-22s %d\n", t, s.ByTermination[t])
	}

	if s.Games > 0 {
		fmt.Printf("average length %.1f plies\n", float64(s.Plies)/float64(s.Games))
	}
	fmt.Printf("elapsed %v\n", elapsed.Round(time.Millisecond))
}
