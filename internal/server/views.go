package server

import (
	"github.com/hailam/chesstree/internal/board"
	"github.com/hailam/chesstree/internal/game"
)

// moveView is the JSON form of a generated move.
type moveView struct {
	UCI                  string `json:"uci"`
	SAN                  string `json:"san"`
	Notation             string `json:"notation"`
	FEN                  string `json:"fen"`
	Capture              bool   `json:"capture,omitempty"`
	Check                bool   `json:"check,omitempty"`
	Checkmate            bool   `json:"checkmate,omitempty"`
	Stalemate            bool   `json:"stalemate,omitempty"`
	InsufficientMaterial bool   `json:"insufficient_material,omitempty"`
}

func newMoveView(m *board.Move, siblings []board.Move) moveView {
	return moveView{
		UCI:                  m.UCI(),
		SAN:                  m.SAN(siblings),
		Notation:             m.String(),
		FEN:                  m.Position.FEN(),
		Capture:              m.Capture,
		Check:                m.Check,
		Checkmate:            m.Checkmate,
		Stalemate:            m.Stalemate,
		InsufficientMaterial: m.InsufficientMaterial,
	}
}

type movesResponse struct {
	FEN     string     `json:"fen"`
	InCheck bool       `json:"in_check"`
	Count   int        `json:"count"`
	Moves   []moveView `json:"moves"`
}

type bestMoveResponse struct {
	Move    moveView `json:"move"`
	Score   int      `json:"score"`
	MateIn  int      `json:"mate_in"`
	Summary string   `json:"summary"`
	Depth   int      `json:"depth"`
	Nodes   uint64   `json:"nodes"`
	TimeMs  int64    `json:"time_ms"`
	PV      []string `json:"pv"`
}

// gameState is what clients see of a session.
type gameState struct {
	ID          string   `json:"id"`
	White       string   `json:"white"`
	Black       string   `json:"black"`
	StartFEN    string   `json:"start_fen"`
	FEN         string   `json:"fen"`
	SideToMove  string   `json:"side_to_move"`
	InCheck     bool     `json:"in_check"`
	Moves       []string `json:"moves"`
	SAN         []string `json:"san"`
	LastMove    string   `json:"last_move,omitempty"`
	Over        bool     `json:"over"`
	Result      string   `json:"result"`
	Termination string   `json:"termination,omitempty"`
}

func newGameState(s *session) gameState {
	g := s.game
	pos := g.Position()
	start := g.Start()
	history := g.History()

	line := make([]board.Move, len(history))
	for i := range history {
		line[i] = history[i].Move
	}
	san, err := board.MovesToSAN(start, line)
	if err != nil {
		san = nil
	}

	st := gameState{
		ID:         s.id,
		White:      s.white,
		Black:      s.black,
		StartFEN:   start.FEN(),
		FEN:        pos.FEN(),
		SideToMove: pos.SideToMove.String(),
		InCheck:    pos.InCheck(),
		Moves:      g.Moves(),
		SAN:        san,
		Over:       g.Over(),
		Result:     string(g.Result()),
	}
	if m := g.LastMove(); m != nil {
		st.LastMove = m.UCI()
	}
	if g.Termination() != game.Ongoing {
		st.Termination = g.Termination().String()
	}
	return st
}

// wsMessage is one message on a game stream.
type wsMessage struct {
	Type  string     `json:"type"` // "state", "ply" or "error"
	Ply   *moveView  `json:"ply,omitempty"`
	State *gameState `json:"state,omitempty"`
	Error string     `json:"error,omitempty"`
}

// clientMessage is sent by stream clients: "step", "play" or "move".
type clientMessage struct {
	Type string `json:"type"`
	Move string `json:"move,omitempty"`
}
