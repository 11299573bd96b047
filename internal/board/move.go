package board

import "strings"

// Move is one legal transition together with the position it produces.
//
// The resulting Position is stored in full; the generator never shares a
// board between moves.
type Move struct {
	From     Square
	To       Square
	Position Position

	// Castling is the single right exercised by this move, or NoCastling.
	Castling  CastlingRights
	Capture   bool
	Promotion Piece

	Check                bool
	Checkmate            bool
	Stalemate            bool
	InsufficientMaterial bool
}

// IsNull reports whether m is a placeholder without a from square,
// such as the root of a search tree.
func (m *Move) IsNull() bool {
	return m.From == NoSquare
}

// Piece returns the piece that moved, as it stood before any promotion.
func (m *Move) Piece() Piece {
	if m.Promotion != NoPiece {
		return NewPiece(Pawn, m.Promotion.Color())
	}
	return m.Position.PieceAt(m.To)
}

// String returns the move in long notation: "e2-e4", "e4xd5", "e7-e8Q", "0-0".
func (m *Move) String() string {
	switch m.Castling {
	case WhiteKingSideCastle, BlackKingSideCastle:
		return "0-0"
	case WhiteQueenSideCastle, BlackQueenSideCastle:
		return "0-0-0"
	}
	if m.IsNull() {
		return "--"
	}

	var sb strings.Builder
	sb.WriteString(m.From.String())
	if m.Capture {
		sb.WriteByte('x')
	} else {
		sb.WriteByte('-')
	}
	sb.WriteString(m.To.String())
	if m.Promotion != NoPiece {
		sb.WriteString(m.Promotion.String())
	}
	return sb.String()
}

// UCI returns the move in UCI format (e.g., "e2e4", "e7e8q").
func (m *Move) UCI() string {
	if m.IsNull() {
		return "0000"
	}
	s := m.From.String() + m.To.String()
	if m.Promotion != NoPiece {
		s += strings.ToLower(m.Promotion.String())
	}
	return s
}

// FindUCI returns the move among moves whose UCI text equals s.
func FindUCI(moves []Move, s string) (Move, bool) {
	s = strings.ToLower(s)
	for i := range moves {
		if moves[i].UCI() == s {
			return moves[i], true
		}
	}
	return Move{}, false
}
