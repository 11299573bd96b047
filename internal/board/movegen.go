package board

import (
	"errors"
	"fmt"
)

// ErrInvalidPosition is returned when the position cannot arise in a game:
// a pawn of the side to move stands on a back rank, or the side to move can
// already capture the opposing king.
var ErrInvalidPosition = errors.New("invalid position")

// KingSafety is the outcome of a king-capture probe.
type KingSafety uint8

const (
	// KingSafe means no move of the side to move captures the opposing king.
	KingSafe KingSafety = iota
	// KingExposed means the side to move could capture the opposing king.
	KingExposed
)

func (k KingSafety) String() string {
	if k == KingExposed {
		return "exposed"
	}
	return "safe"
}

type genMode uint8

const (
	modeLegal  genMode = iota // collect every legal move with its tags
	modeExists                // stop at the first legal move
	modeProbe                 // only look for a capture of the opposing king
)

type moveKind uint8

const (
	kindNormal moveKind = iota
	kindDoublePush
	kindEnPassant
	kindCastle
)

var (
	knightOffsets = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingOffsets   = [8][2]int{{0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0}, {-1, 1}}
	bishopRays    = [4][2]int{{1, 1}, {1, -1}, {-1, -1}, {-1, 1}}
	rookRays      = [4][2]int{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}
	queenRays     = [8][2]int{{0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1}, {-1, 0}, {-1, 1}}

	promotionOrder = [4]PieceType{Queen, Rook, Bishop, Knight}
)

// castle describes one of the four castling moves.
type castle struct {
	right          CastlingRights
	color          Color
	king, rook     Square
	kingTo, rookTo Square
	between        []Square // must be empty
	kingPath       []Square // must not be attacked, start square included
}

var castles = [4]castle{
	{WhiteKingSideCastle, White, E1, H1, G1, F1, []Square{F1, G1}, []Square{E1, F1, G1}},
	{WhiteQueenSideCastle, White, E1, A1, C1, D1, []Square{D1, C1, B1}, []Square{E1, D1, C1}},
	{BlackKingSideCastle, Black, E8, H8, G8, F8, []Square{F8, G8}, []Square{E8, F8, G8}},
	{BlackQueenSideCastle, Black, E8, A8, C8, D8, []Square{D8, C8, B8}, []Square{E8, D8, C8}},
}

func castleFor(right CastlingRights) *castle {
	for i := range castles {
		if castles[i].right == right {
			return &castles[i]
		}
	}
	return nil
}

// rookHomeRight returns the right tied to a rook of color c on sq, if sq is
// one of c's rook corners.
func rookHomeRight(sq Square, c Color) CastlingRights {
	for i := range castles {
		if castles[i].color == c && castles[i].rook == sq {
			return castles[i].right
		}
	}
	return NoCastling
}

// generator walks every piece of the side to move.
// In modeExists and modeProbe it stops as soon as found is set.
type generator struct {
	pos   *Position
	mode  genMode
	moves []Move
	found bool
	err   error
}

func (g *generator) done() bool {
	return g.err != nil || (g.found && g.mode != modeLegal)
}

// GenerateLegalMoves returns every strictly legal move of the side to move,
// each carrying its resulting position and check, mate, stalemate and
// material tags. The receiver is never modified.
func (p *Position) GenerateLegalMoves() ([]Move, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if p.ProbeKingCapture() == KingExposed {
		return nil, fmt.Errorf("%w: %s can capture the %s king", ErrInvalidPosition, p.SideToMove, p.SideToMove.Other())
	}

	g := generator{pos: p, mode: modeLegal, moves: make([]Move, 0, 32)}
	g.run()
	if g.err != nil {
		return nil, g.err
	}
	return g.moves, nil
}

// HasLegalMoves reports whether the side to move has at least one legal move.
func (p *Position) HasLegalMoves() (bool, error) {
	if err := p.validate(); err != nil {
		return false, err
	}
	g := generator{pos: p, mode: modeExists}
	g.run()
	return g.found, g.err
}

// ProbeKingCapture reports whether any move of the side to move would capture
// the opposing king. It never fails.
func (p *Position) ProbeKingCapture() KingSafety {
	g := generator{pos: p, mode: modeProbe}
	g.run()
	if g.found {
		return KingExposed
	}
	return KingSafe
}

// InCheck returns true if the king of the side to move is attacked.
func (p *Position) InCheck() bool {
	flipped := *p
	flipped.SideToMove = p.SideToMove.Other()
	flipped.EnPassant = NoSquare
	return flipped.ProbeKingCapture() == KingExposed
}

// validate rejects pawns of the side to move on either back rank.
func (p *Position) validate() error {
	pawn := NewPiece(Pawn, p.SideToMove)
	for file := 0; file < 8; file++ {
		for _, rank := range [2]int{0, 7} {
			if sq := NewSquare(file, rank); p.squares[sq] == pawn {
				return fmt.Errorf("%w: %s pawn on %s", ErrInvalidPosition, p.SideToMove, sq)
			}
		}
	}
	return nil
}

func (g *generator) run() {
	us := g.pos.SideToMove
	for sq := Square(0); sq < NoSquare && !g.done(); sq++ {
		piece := g.pos.squares[sq]
		if piece == NoPiece || piece.Color() != us {
			continue
		}
		switch piece.Type() {
		case Pawn:
			g.pawnMoves(sq, us)
		case Knight:
			g.leaperMoves(sq, us, knightOffsets[:])
		case Bishop:
			g.sliderMoves(sq, us, bishopRays[:])
		case Rook:
			g.sliderMoves(sq, us, rookRays[:])
		case Queen:
			g.sliderMoves(sq, us, queenRays[:])
		case King:
			g.leaperMoves(sq, us, kingOffsets[:])
			if g.mode != modeProbe && !g.done() {
				g.castlingMoves(sq, us)
			}
		}
	}
}

func (g *generator) pawnMoves(from Square, us Color) {
	dir := us.forward()

	for _, df := range [2]int{-1, 1} {
		to, ok := from.Offset(df, dir)
		if !ok {
			continue
		}
		target := g.pos.squares[to]
		switch {
		case target != NoPiece && target.Color() != us:
			g.pawnTo(from, to, us)
		case target == NoPiece && to == g.pos.EnPassant && g.mode != modeProbe:
			passed := NewSquare(to.File(), from.Rank())
			if g.pos.squares[passed].Is(Pawn, us.Other()) {
				g.add(from, to, NoPiece, kindEnPassant, NoCastling)
			}
		}
		if g.done() {
			return
		}
	}

	if g.mode == modeProbe {
		return
	}

	to, ok := from.Offset(0, dir)
	if !ok || g.pos.squares[to] != NoPiece {
		return
	}
	g.pawnTo(from, to, us)

	startRank := 1
	if us == Black {
		startRank = 6
	}
	if from.Rank() != startRank || g.done() {
		return
	}
	if to2, ok := to.Offset(0, dir); ok && g.pos.squares[to2] == NoPiece {
		g.add(from, to2, NoPiece, kindDoublePush, NoCastling)
	}
}

// pawnTo adds a pawn move, branching into the four promotions on the last rank.
func (g *generator) pawnTo(from, to Square, us Color) {
	if g.mode == modeProbe || (to.Rank() != 0 && to.Rank() != 7) {
		g.add(from, to, NoPiece, kindNormal, NoCastling)
		return
	}
	for _, pt := range promotionOrder {
		g.add(from, to, NewPiece(pt, us), kindNormal, NoCastling)
		if g.done() {
			return
		}
	}
}

func (g *generator) leaperMoves(from Square, us Color, offsets [][2]int) {
	for _, d := range offsets {
		to, ok := from.Offset(d[0], d[1])
		if !ok {
			continue
		}
		if target := g.pos.squares[to]; target != NoPiece && target.Color() == us {
			continue
		}
		g.add(from, to, NoPiece, kindNormal, NoCastling)
		if g.done() {
			return
		}
	}
}

func (g *generator) sliderMoves(from Square, us Color, rays [][2]int) {
	for _, d := range rays {
		to, ok := from.Offset(d[0], d[1])
		for ok {
			target := g.pos.squares[to]
			if target != NoPiece && target.Color() == us {
				break
			}
			g.add(from, to, NoPiece, kindNormal, NoCastling)
			if g.done() || target != NoPiece {
				break
			}
			to, ok = to.Offset(d[0], d[1])
		}
		if g.done() {
			return
		}
	}
}

func (g *generator) castlingMoves(from Square, us Color) {
	for i := range castles {
		cs := &castles[i]
		if cs.color != us || from != cs.king || g.pos.CastlingRights&cs.right == 0 {
			continue
		}
		if g.pos.squares[cs.rook] != NewPiece(Rook, us) {
			continue
		}
		if !g.allEmpty(cs.between) || !g.pathSafe(cs) {
			continue
		}
		g.add(cs.king, cs.kingTo, NoPiece, kindCastle, cs.right)
		if g.done() {
			return
		}
	}
}

func (g *generator) allEmpty(squares []Square) bool {
	for _, sq := range squares {
		if g.pos.squares[sq] != NoPiece {
			return false
		}
	}
	return true
}

// pathSafe probes a copy with the king placed on each square of its path.
func (g *generator) pathSafe(cs *castle) bool {
	king := g.pos.squares[cs.king]
	for _, sq := range cs.kingPath {
		probe := *g.pos
		probe.squares[cs.king] = NoPiece
		probe.squares[sq] = king
		probe.SideToMove = cs.color.Other()
		probe.EnPassant = NoSquare
		if probe.ProbeKingCapture() == KingExposed {
			return false
		}
	}
	return true
}

// add handles one candidate move. In probe mode it only checks whether the
// target square holds the opposing king; otherwise it builds the successor
// and keeps it if the mover's king survives every reply.
func (g *generator) add(from, to Square, promo Piece, kind moveKind, right CastlingRights) {
	if g.mode == modeProbe {
		if g.pos.squares[to].Is(King, g.pos.SideToMove.Other()) {
			g.found = true
		}
		return
	}

	next, captured := g.successor(from, to, promo, kind, right)
	if next.ProbeKingCapture() == KingExposed {
		return
	}

	if g.mode == modeExists {
		g.found = true
		return
	}

	m := Move{
		From:                 from,
		To:                   to,
		Position:             next,
		Castling:             right,
		Capture:              captured,
		Promotion:            promo,
		InsufficientMaterial: next.InsufficientMaterial(),
	}
	m.Check = next.InCheck()

	replies, err := next.HasLegalMoves()
	if err != nil {
		g.err = err
		return
	}
	if !replies {
		m.Checkmate = m.Check
		m.Stalemate = !m.Check
	}

	g.moves = append(g.moves, m)
}

// successor returns a copy of the position with the candidate applied and the
// turn passed to the opponent. It reports whether a piece was captured.
func (g *generator) successor(from, to Square, promo Piece, kind moveKind, right CastlingRights) (Position, bool) {
	next := *g.pos
	us := next.SideToMove
	them := us.Other()

	piece := next.squares[from]
	captured := next.squares[to]

	next.squares[from] = NoPiece
	if promo != NoPiece {
		next.squares[to] = promo
	} else {
		next.squares[to] = piece
	}

	next.EnPassant = NoSquare
	switch kind {
	case kindDoublePush:
		next.EnPassant = NewSquare(from.File(), (from.Rank()+to.Rank())/2)
	case kindEnPassant:
		passed := NewSquare(to.File(), from.Rank())
		captured = next.squares[passed]
		next.squares[passed] = NoPiece
	case kindCastle:
		cs := castleFor(right)
		next.squares[cs.rookTo] = next.squares[cs.rook]
		next.squares[cs.rook] = NoPiece
	}

	switch piece.Type() {
	case King:
		next.CastlingRights &^= castleRight(us, true) | castleRight(us, false)
	case Rook:
		next.CastlingRights &^= rookHomeRight(from, us)
	}
	if captured.Is(Rook, them) {
		next.CastlingRights &^= rookHomeRight(to, them)
	}

	if captured != NoPiece || piece.Type() == Pawn {
		next.HalfMoveClock = 0
	} else {
		next.HalfMoveClock++
	}
	if us == Black {
		next.FullMoveNumber++
	}
	next.SideToMove = them

	return next, captured != NoPiece
}

// Perft counts the leaf nodes of the legal move tree to the given depth.
func Perft(pos Position, depth int) (uint64, error) {
	if depth <= 0 {
		return 1, nil
	}
	moves, err := pos.GenerateLegalMoves()
	if err != nil {
		return 0, err
	}
	if depth == 1 {
		return uint64(len(moves)), nil
	}
	var nodes uint64
	for i := range moves {
		n, err := Perft(moves[i].Position, depth-1)
		if err != nil {
			return 0, err
		}
		nodes += n
	}
	return nodes, nil
}

// Divide returns the perft count below each root move, keyed by UCI text.
func Divide(pos Position, depth int) (map[string]uint64, error) {
	moves, err := pos.GenerateLegalMoves()
	if err != nil {
		return nil, err
	}
	result := make(map[string]uint64, len(moves))
	for i := range moves {
		n, err := Perft(moves[i].Position, depth-1)
		if err != nil {
			return nil, err
		}
		result[moves[i].UCI()] = n
	}
	return result, nil
}
