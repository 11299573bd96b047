// Package match plays batches of engine self-play games concurrently.
package match

import (
	"context"
	"errors"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/hailam/chesstree/internal/board"
	"github.com/hailam/chesstree/internal/engine"
	"github.com/hailam/chesstree/internal/game"
	"github.com/hailam/chesstree/internal/storage"
	"golang.org/x/sync/errgroup"
)

// Recorder stores the outcome of a finished game.
type Recorder interface {
	RecordGame(rec storage.GameRecord) (*storage.MatchStats, error)
}

// Config describes a match.
type Config struct {
	Games       int
	Concurrency int // 0 means GOMAXPROCS

	White engine.SearchLimits
	Black engine.SearchLimits

	// Openings are assigned to games round-robin; empty means the initial position.
	Openings []board.Position
	MaxPlies int // 0 means game.DefaultMaxPlies

	// Seed makes every game reproducible: game i seeds its engines from
	// Seed+2i and Seed+2i+1. Zero seeds from the clock.
	Seed uint64

	Recorder Recorder
	Quiet    bool // suppress per-game log lines
}

// GameResult is the outcome of one game of a match.
type GameResult struct {
	Index       int
	Result      game.Result
	Termination game.Termination
	Plies       int
	Elapsed     time.Duration
	Moves       []string
}

// Summary totals a match.
type Summary struct {
	Games         int
	WhiteWins     int
	BlackWins     int
	Draws         int
	Unfinished    int
	ByTermination map[string]int
	Plies         int
	Results       []GameResult // ordered by game index
}

func (s *Summary) add(r GameResult) {
	s.Games++
	s.Plies += r.Plies
	s.ByTermination[r.Termination.String()]++
	switch r.Result {
	case game.WhiteWins:
		s.WhiteWins++
	case game.BlackWins:
		s.BlackWins++
	case game.Draw:
		s.Draws++
	default:
		s.Unfinished++
	}
	s.Results[r.Index] = r
}

// Run plays cfg.Games games on cfg.Concurrency workers.
func Run(ctx context.Context, cfg Config) (Summary, error) {
	if cfg.Games <= 0 {
		return Summary{}, errors.New("match: no games requested")
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	concurrency = min(concurrency, cfg.Games)
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}

	if !cfg.Quiet {
		log.Println("match started")
		defer log.Println("match finished")
		log.Println("games", cfg.Games, "concurrency", concurrency)
	}

	summary := Summary{
		ByTermination: make(map[string]int),
		Results:       make([]GameResult, cfg.Games),
	}

	g, ctx := errgroup.WithContext(ctx)

	var indexes = make(chan int)
	var results = make(chan GameResult)

	g.Go(func() error {
		defer close(indexes)
		for i := range cfg.Games {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case indexes <- i:
			}
		}
		return nil
	})

	g.Go(func() error {
		for r := range results {
			summary.add(r)
			if cfg.Recorder != nil {
				rec := storage.GameRecord{
					Result:      string(r.Result),
					Termination: r.Termination.String(),
					Plies:       r.Plies,
					Duration:    r.Elapsed,
				}
				if _, err := cfg.Recorder.RecordGame(rec); err != nil {
					return err
				}
			}
			if !cfg.Quiet {
				log.Printf("game %d: %s (%s, %d plies) +%d -%d =%d",
					r.Index+1, r.Result, r.Termination, r.Plies,
					summary.WhiteWins, summary.BlackWins, summary.Draws)
			}
		}
		return nil
	})

	var wg = &sync.WaitGroup{}

	for range concurrency {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			return playGames(ctx, cfg, indexes, results)
		})
	}

	g.Go(func() error {
		wg.Wait()
		close(results)
		return nil
	})

	if err := g.Wait(); err != nil {
		return summary, err
	}
	return summary, nil
}

func playGames(
	ctx context.Context,
	cfg Config,
	indexes <-chan int,
	results chan<- GameResult,
) error {
	for i := range indexes {
		res, err := playGame(ctx, cfg, i)
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case results <- res:
		}
	}
	return nil
}

func playGame(ctx context.Context, cfg Config, index int) (GameResult, error) {
	seed := cfg.Seed + 2*uint64(index)
	white := game.NewEnginePlayer(engine.NewEngine(engine.WithSeed(seed)), cfg.White)
	black := game.NewEnginePlayer(engine.NewEngine(engine.WithSeed(seed+1)), cfg.Black)

	var opts []game.Option
	if cfg.MaxPlies > 0 {
		opts = append(opts, game.WithMaxPlies(cfg.MaxPlies))
	}
	if len(cfg.Openings) > 0 {
		opts = append(opts, game.WithStart(cfg.Openings[index%len(cfg.Openings)]))
	}

	g, err := game.New(white, black, opts...)
	if err != nil {
		return GameResult{}, err
	}
	if err := g.Play(ctx); err != nil {
		return GameResult{}, err
	}

	return GameResult{
		Index:       index,
		Result:      g.Result(),
		Termination: g.Termination(),
		Plies:       len(g.History()),
		Elapsed:     g.Elapsed(),
		Moves:       g.Moves(),
	}, nil
}
