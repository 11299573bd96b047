// Package game runs a chess game between two players and records its course.
package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hailam/chesstree/internal/board"
)

var (
	// ErrGameOver is returned by Step once the game has a result.
	ErrGameOver = errors.New("game is over")

	// ErrIllegalMove is returned when a player answers with a move that is
	// not legal in the current position.
	ErrIllegalMove = board.ErrIllegalMove

	// ErrNoPlayer is returned by Step when the side to move has no Player;
	// its moves must come through Apply.
	ErrNoPlayer = errors.New("no player for the side to move")
)

// Result is a game result as written in PGN.
type Result string

const (
	NoResult  Result = "*"
	WhiteWins Result = "1-0"
	BlackWins Result = "0-1"
	Draw      Result = "1/2-1/2"
)

// Termination says why a game ended.
type Termination uint8

const (
	Ongoing Termination = iota
	Checkmate
	Stalemate
	InsufficientMaterial
	FiftyMoveRule
	ThreefoldRepetition
	PlyLimit
)

func (t Termination) String() string {
	switch t {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	case InsufficientMaterial:
		return "insufficient material"
	case FiftyMoveRule:
		return "fifty-move rule"
	case ThreefoldRepetition:
		return "threefold repetition"
	case PlyLimit:
		return "ply limit"
	default:
		return "ongoing"
	}
}

// DefaultMaxPlies ends a game that has not finished after this many half-moves.
const DefaultMaxPlies = 500

// Ply is one played half-move.
type Ply struct {
	Move    board.Move
	Elapsed time.Duration
}

// Option configures a Game.
type Option func(*Game)

// WithStart starts the game from pos instead of the initial position.
func WithStart(pos board.Position) Option {
	return func(g *Game) {
		g.start = pos
	}
}

// WithMaxPlies sets the ply cap; n <= 0 disables it.
func WithMaxPlies(n int) Option {
	return func(g *Game) {
		g.maxPlies = n
	}
}

// Game is a game in progress. A Game is not safe for concurrent use.
type Game struct {
	white, black Player

	start    board.Position
	pos      board.Position
	history  []Ply
	seen     map[uint64]int
	maxPlies int

	result      Result
	termination Termination
	elapsed     time.Duration
}

// New sets up a game between white and black. The start position is
// adjudicated immediately, so a game can be over before its first move.
func New(white, black Player, opts ...Option) (*Game, error) {
	g := &Game{
		white:    white,
		black:    black,
		start:    board.NewPosition(),
		maxPlies: DefaultMaxPlies,
		result:   NoResult,
		seen:     make(map[uint64]int),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.pos = g.start
	g.seen[g.pos.Hash()]++

	if err := g.adjudicateStart(); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Game) adjudicateStart() error {
	hasMoves, err := g.pos.HasLegalMoves()
	if err != nil {
		return err
	}
	switch {
	case !hasMoves && g.pos.InCheck():
		g.finish(winnerOf(g.pos.SideToMove.Other()), Checkmate)
	case !hasMoves:
		g.finish(Draw, Stalemate)
	case g.pos.InsufficientMaterial():
		g.finish(Draw, InsufficientMaterial)
	case g.pos.HalfMoveClock >= 100:
		g.finish(Draw, FiftyMoveRule)
	}
	return nil
}

func winnerOf(c board.Color) Result {
	if c == board.White {
		return WhiteWins
	}
	return BlackWins
}

func (g *Game) finish(r Result, t Termination) {
	g.result = r
	g.termination = t
}

// Position returns the current position.
func (g *Game) Position() board.Position {
	return g.pos
}

// Start returns the position the game started from.
func (g *Game) Start() board.Position {
	return g.start
}

// History returns the plies played so far.
func (g *Game) History() []Ply {
	return g.history
}

// LastMove returns the most recent move, or nil before the first move.
func (g *Game) LastMove() *board.Move {
	if len(g.history) == 0 {
		return nil
	}
	return &g.history[len(g.history)-1].Move
}

// Over reports whether the game has finished.
func (g *Game) Over() bool {
	return g.termination != Ongoing
}

// Result returns the result, NoResult while the game is running or when it
// was stopped by the ply cap.
func (g *Game) Result() Result {
	return g.result
}

// Termination returns why the game ended.
func (g *Game) Termination() Termination {
	return g.termination
}

// Elapsed returns the total thinking time of both players.
func (g *Game) Elapsed() time.Duration {
	return g.elapsed
}

// Step asks the side to move for a move and plays it.
func (g *Game) Step(ctx context.Context) (Ply, error) {
	if g.Over() {
		return Ply{}, ErrGameOver
	}

	player := g.white
	if g.pos.SideToMove == board.Black {
		player = g.black
	}
	if player == nil {
		return Ply{}, ErrNoPlayer
	}

	legal, err := g.pos.GenerateLegalMoves()
	if err != nil {
		return Ply{}, err
	}

	started := time.Now()
	chosen, err := player.Move(ctx, g.pos)
	if err != nil {
		return Ply{}, err
	}
	move, ok := board.FindUCI(legal, chosen.UCI())
	if !ok {
		return Ply{}, fmt.Errorf("%w: %s in %s", ErrIllegalMove, chosen.UCI(), g.pos.FEN())
	}

	ply := Ply{Move: move, Elapsed: time.Since(started)}
	g.play(ply)
	return ply, nil
}

// Apply plays m for the side to move without consulting a player.
func (g *Game) Apply(m board.Move) (Ply, error) {
	if g.Over() {
		return Ply{}, ErrGameOver
	}
	legal, err := g.pos.GenerateLegalMoves()
	if err != nil {
		return Ply{}, err
	}
	move, ok := board.FindUCI(legal, m.UCI())
	if !ok {
		return Ply{}, fmt.Errorf("%w: %s in %s", ErrIllegalMove, m.UCI(), g.pos.FEN())
	}
	ply := Ply{Move: move}
	g.play(ply)
	return ply, nil
}

func (g *Game) play(ply Ply) {
	mover := g.pos.SideToMove
	g.history = append(g.history, ply)
	g.elapsed += ply.Elapsed
	g.pos = ply.Move.Position

	key := g.pos.Hash()
	g.seen[key]++

	m := &ply.Move
	switch {
	case m.Checkmate:
		g.finish(winnerOf(mover), Checkmate)
	case m.Stalemate:
		g.finish(Draw, Stalemate)
	case m.InsufficientMaterial:
		g.finish(Draw, InsufficientMaterial)
	case g.pos.HalfMoveClock >= 100:
		g.finish(Draw, FiftyMoveRule)
	case g.seen[key] >= 3:
		g.finish(Draw, ThreefoldRepetition)
	case g.maxPlies > 0 && len(g.history) >= g.maxPlies:
		g.finish(NoResult, PlyLimit)
	}
}

// Play steps until the game ends or a step fails.
func (g *Game) Play(ctx context.Context) error {
	for !g.Over() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := g.Step(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Moves returns every played move in long notation.
func (g *Game) Moves() []string {
	out := make([]string, len(g.history))
	for i := range g.history {
		out[i] = g.history[i].Move.String()
	}
	return out
}

// Transcript returns the result tag, one move per line and the result.
// An unfinished or empty game yields an empty transcript.
func (g *Game) Transcript() string {
	if len(g.history) == 0 || g.result == NoResult {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "[Result %q]\n", string(g.result))
	for _, m := range g.Moves() {
		sb.WriteString(m)
		sb.WriteByte('\n')
	}
	sb.WriteString(string(g.result))
	sb.WriteByte('\n')
	return sb.String()
}
