package game

import (
	"context"

	"github.com/hailam/chesstree/internal/board"
	"github.com/hailam/chesstree/internal/engine"
)

// Player chooses a move for the side to move in pos.
type Player interface {
	Move(ctx context.Context, pos board.Position) (board.Move, error)
}

// PlayerFunc adapts a function to the Player interface.
type PlayerFunc func(ctx context.Context, pos board.Position) (board.Move, error)

// Move calls f(ctx, pos).
func (f PlayerFunc) Move(ctx context.Context, pos board.Position) (board.Move, error) {
	return f(ctx, pos)
}

// EnginePlayer asks an engine for every move.
type EnginePlayer struct {
	Engine *engine.Engine
	Limits engine.SearchLimits
}

// NewEnginePlayer returns a player searching with the given limits.
func NewEnginePlayer(eng *engine.Engine, limits engine.SearchLimits) *EnginePlayer {
	return &EnginePlayer{Engine: eng, Limits: limits}
}

func (p *EnginePlayer) Move(ctx context.Context, pos board.Position) (board.Move, error) {
	res, err := p.Engine.Search(ctx, pos, p.Limits)
	if err != nil {
		return board.Move{}, err
	}
	return res.Move, nil
}
