package board

import (
	"fmt"
	"strings"
)

// CastlingRights represents the available castling options.
// A single bit also tags which castling a Move performed.
type CastlingRights uint8

const (
	WhiteKingSideCastle  CastlingRights = 1 << iota // K
	WhiteQueenSideCastle                            // Q
	BlackKingSideCastle                             // k
	BlackQueenSideCastle                            // q
	NoCastling           CastlingRights = 0
	AllCastling          CastlingRights = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// String returns the FEN castling rights string.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	s := ""
	if cr&WhiteKingSideCastle != 0 {
		s += "K"
	}
	if cr&WhiteQueenSideCastle != 0 {
		s += "Q"
	}
	if cr&BlackKingSideCastle != 0 {
		s += "k"
	}
	if cr&BlackQueenSideCastle != 0 {
		s += "q"
	}
	return s
}

// CanCastle returns true if the given side can castle in the given direction.
func (cr CastlingRights) CanCastle(c Color, kingSide bool) bool {
	return cr&castleRight(c, kingSide) != 0
}

func castleRight(c Color, kingSide bool) CastlingRights {
	switch {
	case c == White && kingSide:
		return WhiteKingSideCastle
	case c == White:
		return WhiteQueenSideCastle
	case kingSide:
		return BlackKingSideCastle
	default:
		return BlackQueenSideCastle
	}
}

// Position represents a complete chess position.
//
// Position is a plain value: assigning it copies the whole board, and two
// positions are equal with == exactly when every field matches.
type Position struct {
	squares [64]Piece

	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square // Target square for en passant, NoSquare if none
	HalfMoveClock  int    // Moves since last pawn move or capture
	FullMoveNumber int    // Full move counter, starts at 1
}

// NewPosition creates the starting position.
func NewPosition() Position {
	pos, _ := ParseFEN(StartFEN)
	return pos
}

// EmptyPosition returns a board with no pieces, White to move.
func EmptyPosition() Position {
	return Position{EnPassant: NoSquare, FullMoveNumber: 1}
}

// PieceAt returns the piece at the given square, or NoPiece if empty.
func (p *Position) PieceAt(sq Square) Piece {
	if sq >= NoSquare {
		return NoPiece
	}
	return p.squares[sq]
}

// IsEmpty returns true if the square is empty.
func (p *Position) IsEmpty(sq Square) bool {
	return p.PieceAt(sq) == NoPiece
}

// SetPiece places piece on sq, replacing whatever was there.
// Passing NoPiece clears the square.
func (p *Position) SetPiece(sq Square, piece Piece) {
	p.squares[sq] = piece
}

// KingSquare returns the square of the king of color c, or NoSquare.
func (p *Position) KingSquare(c Color) Square {
	king := NewPiece(King, c)
	for sq := Square(0); sq < NoSquare; sq++ {
		if p.squares[sq] == king {
			return sq
		}
	}
	return NoSquare
}

// Count returns how many pieces of the given kind are on the board.
func (p *Position) Count(piece Piece) int {
	n := 0
	for _, pc := range p.squares {
		if pc == piece {
			n++
		}
	}
	return n
}

// String returns a visual representation of the position.
func (p *Position) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < 8; file++ {
			piece := p.PieceAt(NewSquare(file, rank))
			if piece == NoPiece {
				sb.WriteString(". ")
			} else {
				sb.WriteString(piece.String() + " ")
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Side to move: %s\n", p.SideToMove)
	fmt.Fprintf(&sb, "Castling: %s\n", p.CastlingRights)
	fmt.Fprintf(&sb, "En passant: %s\n", p.EnPassant)
	fmt.Fprintf(&sb, "Half-move clock: %d\n", p.HalfMoveClock)
	fmt.Fprintf(&sb, "Full move: %d\n", p.FullMoveNumber)
	fmt.Fprintf(&sb, "FEN: %s\n", p.FEN())
	return sb.String()
}

// InsufficientMaterial reports whether neither side can possibly deliver mate.
//
// Any pawn, rook or queen is sufficient. So is a bishop paired with a second
// bishop or a knight on the same side. Two knights alone are not.
func (p *Position) InsufficientMaterial() bool {
	var hasBishop, hasKnight [2]bool
	for _, pc := range p.squares {
		if pc == NoPiece {
			continue
		}
		c := pc.Color()
		switch pc.Type() {
		case Pawn, Rook, Queen:
			return false
		case Bishop:
			if hasBishop[c] || hasKnight[c] {
				return false
			}
			hasBishop[c] = true
		case Knight:
			if hasBishop[c] {
				return false
			}
			hasKnight[c] = true
		}
	}
	return true
}
