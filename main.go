// chesstree plays the engine against itself and prints the game.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/hailam/chesstree/internal/board"
	"github.com/hailam/chesstree/internal/diagram"
	"github.com/hailam/chesstree/internal/engine"
	"github.com/hailam/chesstree/internal/game"
	"github.com/hailam/chesstree/internal/storage"
)

var (
	depth    = flag.Int("depth", 6, "deepening passes per move")
	moveTime = flag.Duration("movetime", 5*time.Second, "time budget per move")
	fen      = flag.String("fen", board.StartFEN, "start position")
	seed     = flag.Uint64("seed", 0, "random seed for tie-breaking (0 = clock)")
	maxPlies = flag.Int("maxplies", game.DefaultMaxPlies, "stop an unfinished game after this many plies")
	pgnFile  = flag.String("pgn", "", "also write the game as PGN to this file")
	pngFile  = flag.String("png", "", "write a diagram of the final position to this file")
	dbDir    = flag.String("db", "", "record the result in the statistics database in this directory")
)

func main() {
	flag.Parse()
	log.SetFlags(0)

	start, err := board.ParseFEN(*fen)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var opts []engine.Option
	if *seed != 0 {
		opts = append(opts, engine.WithSeed(*seed))
	}
	limits := engine.SearchLimits{Depth: *depth, MoveTime: *moveTime}
	player := game.NewEnginePlayer(engine.NewEngine(opts...), limits)

	g, err := game.New(player, player, game.WithStart(start), game.WithMaxPlies(*maxPlies))
	if err != nil {
		log.Fatal(err)
	}

	for !g.Over() {
		if ctx.Err() != nil {
			log.Println("interrupted")
			break
		}
		ply, err := g.Step(ctx)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%s (%dms)\n", ply.Move.String(), ply.Elapsed.Milliseconds())
	}

	fmt.Print(g.Transcript())

	if *pgnFile != "" {
		if err := writePGN(g, *pgnFile); err != nil {
			log.Fatal(err)
		}
	}
	if *pngFile != "" {
		if err := writeDiagram(g, *pngFile); err != nil {
			log.Fatal(err)
		}
	}
	if *dbDir != "" && g.Over() {
		if err := record(g, *dbDir); err != nil {
			log.Fatal(err)
		}
	}
}

func writePGN(g *game.Game, path string) error {
	pgn, err := g.PGN(game.PGNTags{
		Event: "chesstree self-play",
		White: "chesstree",
		Black: "chesstree",
		Date:  time.Now(),
	})
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(pgn), 0o644)
}

func writeDiagram(g *game.Game, path string) error {
	pos := g.Position()
	var buf bytes.Buffer
	err := diagram.EncodePNG(&buf, &pos, diagram.Options{
		Coordinates: true,
		Highlight:   diagram.LastMove(g.LastMove()),
	})
	if err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func record(g *game.Game, dir string) error {
	store, err := storage.Open(dir)
	if err != nil {
		return err
	}
	defer store.Close()

	stats, err := store.RecordGame(storage.GameRecord{
		Result:      string(g.Result()),
		Termination: g.Termination().String(),
		Plies:       len(g.History()),
		Duration:    g.Elapsed(),
	})
	if err != nil {
		return err
	}
	log.Printf("recorded: %d games, white scores %.1f%%", stats.GamesPlayed, stats.WhiteScore())
	return nil
}
