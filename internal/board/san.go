package board

import (
	"errors"
	"fmt"
	"strings"
)

// ErrIllegalMove is returned when a move text matches no legal move.
var ErrIllegalMove = errors.New("illegal move")

// SAN returns the move in Standard Algebraic Notation.
// siblings are all legal moves from the same position and are used to
// disambiguate between pieces of the same kind reaching the same square.
func (m *Move) SAN(siblings []Move) string {
	if m.IsNull() {
		return "--"
	}

	var sb strings.Builder
	switch m.Castling {
	case WhiteKingSideCastle, BlackKingSideCastle:
		sb.WriteString("O-O")
	case WhiteQueenSideCastle, BlackQueenSideCastle:
		sb.WriteString("O-O-O")
	default:
		pt := m.Piece().Type()

		if pt != Pawn {
			sb.WriteByte("PNBRQK"[pt])
			sb.WriteString(disambiguation(m, pt, siblings))
		}

		if m.Capture {
			if pt == Pawn {
				sb.WriteByte('a' + byte(m.From.File()))
			}
			sb.WriteByte('x')
		}

		sb.WriteString(m.To.String())

		if m.Promotion != NoPiece {
			sb.WriteByte('=')
			sb.WriteByte("PNBRQK"[m.Promotion.Type()])
		}
	}

	if m.Checkmate {
		sb.WriteByte('#')
	} else if m.Check {
		sb.WriteByte('+')
	}

	return sb.String()
}

// disambiguation returns the origin file, rank or square needed to tell m
// apart from other pieces of type pt that can reach the same square.
func disambiguation(m *Move, pt PieceType, siblings []Move) string {
	from := m.From
	var sameFile, sameRank, ambiguous bool

	for i := range siblings {
		other := &siblings[i]
		if other.To != m.To || other.From == from || other.Piece().Type() != pt {
			continue
		}
		ambiguous = true
		if other.From.File() == from.File() {
			sameFile = true
		}
		if other.From.Rank() == from.Rank() {
			sameRank = true
		}
	}

	switch {
	case !ambiguous:
		return ""
	case !sameFile:
		return string(rune('a' + from.File()))
	case !sameRank:
		return string(rune('1' + from.Rank()))
	default:
		return from.String()
	}
}

// ParseMove finds the legal move from pos written as s in SAN ("Nf3",
// "exd5", "e8=Q+", "O-O"), in UCI ("g1f3") or in long notation ("g1-f3").
func ParseMove(pos *Position, s string) (Move, error) {
	moves, err := pos.GenerateLegalMoves()
	if err != nil {
		return Move{}, err
	}

	s = strings.TrimSpace(s)
	if m, ok := FindUCI(moves, s); ok {
		return m, nil
	}
	for i := range moves {
		if moves[i].String() == s {
			return moves[i], nil
		}
	}

	s = strings.TrimRight(s, "+#!?")
	s = strings.ReplaceAll(s, "0", "O")
	for i := range moves {
		san := strings.TrimRight(moves[i].SAN(moves), "+#")
		if san == s {
			return moves[i], nil
		}
	}

	return Move{}, fmt.Errorf("%w: %q in %s", ErrIllegalMove, s, pos.FEN())
}

// MovesToSAN converts a line of moves played from pos to SAN notation.
func MovesToSAN(pos Position, line []Move) ([]string, error) {
	result := make([]string, len(line))
	for i := range line {
		siblings, err := pos.GenerateLegalMoves()
		if err != nil {
			return nil, err
		}
		result[i] = line[i].SAN(siblings)
		pos = line[i].Position
	}
	return result, nil
}
