// Package engine selects moves with a full-width minimax tree that tracks
// forced-mate distances alongside a material evaluation.
package engine

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/hailam/chesstree/internal/board"
)

// ErrNoLegalMove is matched by *NoLegalMoveError.
var ErrNoLegalMove = errors.New("no legal move")

// NoLegalMoveError is returned when the root position is checkmate or stalemate.
type NoLegalMoveError struct {
	FEN string
}

func (e *NoLegalMoveError) Error() string {
	return "no legal move in " + e.FEN
}

// Is lets errors.Is(err, ErrNoLegalMove) match.
func (e *NoLegalMoveError) Is(target error) bool {
	return target == ErrNoLegalMove
}

// SearchInfo contains information about the current search.
type SearchInfo struct {
	Depth  int
	Score  int // material balance backed up to the root, White positive
	MateIn int // signed mate distance in plies, 0 when no forced mate is known
	Nodes  uint64
	Time   time.Duration
	PV     []board.Move
}

// SearchLimits specifies constraints on the search.
type SearchLimits struct {
	Depth    int           // Number of deepening passes (0 = difficulty default)
	MoveTime time.Duration // Time for this move (0 = no limit)
}

// Result is the outcome of a completed search.
type Result struct {
	Move board.Move
	Info SearchInfo
}

// Difficulty represents the AI difficulty level.
type Difficulty int

const (
	Easy   Difficulty = iota // 2 ply, 1s
	Medium                   // 3 ply, 3s
	Hard                     // 6 ply, 5s
)

// DifficultySettings maps difficulty to search limits.
var DifficultySettings = map[Difficulty]SearchLimits{
	Easy:   {Depth: 2, MoveTime: 1 * time.Second},
	Medium: {Depth: 3, MoveTime: 3 * time.Second},
	Hard:   {Depth: 6, MoveTime: 5 * time.Second},
}

// ParseDifficulty maps "easy", "medium" and "hard" to a Difficulty.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch s {
	case "easy":
		return Easy, true
	case "medium":
		return Medium, true
	case "hard":
		return Hard, true
	}
	return Medium, false
}

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "easy"
	case Hard:
		return "hard"
	default:
		return "medium"
	}
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand makes tie-breaks between equally good moves draw from r.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		e.searcher.rng = r
	}
}

// WithSeed is WithRand with a PCG source seeded from seed.
func WithSeed(seed uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// WithDifficulty sets the default limits used when a search names none.
func WithDifficulty(d Difficulty) Option {
	return func(e *Engine) {
		e.difficulty = d
	}
}

// Engine is the chess AI engine. An Engine runs one search at a time;
// use one Engine per goroutine.
type Engine struct {
	searcher   *Searcher
	difficulty Difficulty

	// Callbacks
	OnInfo func(SearchInfo)
}

// NewEngine creates a new chess engine.
func NewEngine(opts ...Option) *Engine {
	now := uint64(time.Now().UnixNano())
	e := &Engine{
		searcher:   NewSearcher(rand.New(rand.NewPCG(now, now>>1))),
		difficulty: Medium,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetDifficulty sets the engine difficulty.
func (e *Engine) SetDifficulty(d Difficulty) {
	e.difficulty = d
}

// Difficulty returns the current difficulty.
func (e *Engine) Difficulty() Difficulty {
	return e.difficulty
}

// BestMove searches pos for at most maxDepth passes or budget, whichever
// ends first, and returns the chosen move.
func (e *Engine) BestMove(pos board.Position, maxDepth int, budget time.Duration) (board.Move, error) {
	res, err := e.Search(context.Background(), pos, SearchLimits{Depth: maxDepth, MoveTime: budget})
	return res.Move, err
}

// Search builds the game tree below pos and selects a move.
//
// The search stops early when limits.MoveTime elapses, ctx is cancelled or
// Stop is called; the first pass always completes so the root has children.
func (e *Engine) Search(ctx context.Context, pos board.Position, limits SearchLimits) (Result, error) {
	if limits.Depth <= 0 {
		limits.Depth = DifficultySettings[e.difficulty].Depth
	}

	s := e.searcher
	stopped := s.Reset()
	stop := func() { stopped.Store(true) }

	if limits.MoveTime > 0 {
		timer := time.AfterFunc(limits.MoveTime, stop)
		defer timer.Stop()
	}
	stopOnCancel := context.AfterFunc(ctx, stop)
	defer stopOnCancel()
	if ctx.Err() != nil {
		stop()
	}

	startTime := time.Now()
	root := newRoot(pos)
	var info SearchInfo

	for depth := 1; depth <= limits.Depth; depth++ {
		if depth > 1 && s.IsStopped() {
			break
		}

		if err := s.deepen(root); err != nil {
			return Result{}, err
		}
		if len(root.children) == 0 {
			return Result{}, &NoLegalMoveError{FEN: pos.FEN()}
		}

		info = SearchInfo{
			Depth:  depth,
			Score:  root.eval,
			MateIn: root.mate,
			Nodes:  s.Nodes(),
			Time:   time.Since(startTime),
			PV:     principalVariation(root),
		}
		if e.OnInfo != nil {
			e.OnInfo(info)
		}

		// Early termination: nothing beats mate in one.
		if root.mate == 2*colorSign(pos.SideToMove) {
			break
		}
	}

	best := s.choose(root)
	return Result{Move: best.move, Info: info}, nil
}

// Stop stops the current search.
func (e *Engine) Stop() {
	e.searcher.Stop()
}

// Perft counts leaf nodes of the legal move tree (for debugging move generation).
func (e *Engine) Perft(pos board.Position, depth int) (uint64, error) {
	return board.Perft(pos, depth)
}

// MovesToMate converts a signed ply distance into full moves for the side
// that delivers mate; negative when the side to move at the root is mated.
func MovesToMate(mate int, sideToMove board.Color) int {
	if mate == 0 {
		return 0
	}
	moves := abs(mate) / 2
	if (mate > 0) != (sideToMove == board.White) {
		return -moves
	}
	return moves
}

// ScoreToString converts a search result to a human-readable string.
func ScoreToString(info SearchInfo, sideToMove board.Color) string {
	if n := MovesToMate(info.MateIn, sideToMove); n > 0 {
		return "Mate in " + strconv.Itoa(n)
	} else if n < 0 {
		return "Mated in " + strconv.Itoa(-n)
	}

	sign := ""
	if info.Score > 0 {
		sign = "+"
	}
	return sign + strconv.Itoa(info.Score)
}
